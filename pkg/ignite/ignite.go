// Package ignite is the top-level entry point for the journal engine: a
// memory-mapped, windowed binary log format compatible with systemd's
// journal container, a post-write analytical file indexer, and a unified
// query layer across many files.
//
// Instance wires internal/engine (the active-file + rotation coordinator)
// behind the teacher's functional-options construction style: a service
// logger is built once and threaded down into every subsystem Config.
package ignite

import (
	"context"

	"github.com/netdata/go-journalfile/internal/engine"
	"github.com/netdata/go-journalfile/internal/filter"
	"github.com/netdata/go-journalfile/internal/indexer"
	"github.com/netdata/go-journalfile/internal/query"
	"github.com/netdata/go-journalfile/pkg/logger"
	"github.com/netdata/go-journalfile/pkg/options"
)

// Instance is the primary entry point for interacting with the journal
// engine: appending entries, sealing the active file, and querying across
// every file the engine knows about.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance creates and initializes a new journal engine instance,
// recovering any previously sealed files left in the configured journal
// directory and opening a fresh active file to accept writes.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Append writes one entry to the active journal file. fields are raw
// "NAME=value" byte payloads, matching the wire representation of a Data
// object's payload. realtimeUsec and monotonicUsec are microsecond
// timestamps; callers with no monotonic clock source may pass 0.
func (i *Instance) Append(ctx context.Context, fields [][]byte, realtimeUsec, monotonicUsec uint64) (uint64, error) {
	return i.engine.AddEntry(fields, realtimeUsec, monotonicUsec)
}

// Seal retires the active journal file, builds its FileIndex, registers
// it as a query source, and opens a new active file. Returns the path of
// the file just sealed.
func (i *Instance) Seal(ctx context.Context) (string, error) {
	return i.engine.Seal(ctx)
}

// BuildActiveIndex runs an analytical pass over the active journal file
// without sealing it, for callers that want to see freshly written
// entries in a query before the next rotation.
func (i *Instance) BuildActiveIndex() (*indexer.FileIndex, error) {
	return i.engine.BuildActiveIndex()
}

// Query runs a log query across every sealed file plus the active
// file's current contents, applying f (nil matches everything) and
// returning up to params.Limit entries plus the pagination state the
// next page should resume from.
func (i *Instance) Query(ctx context.Context, f *filter.Filter, params query.Params) ([]query.LogEntryID, *query.PaginationState, error) {
	return i.engine.Query(ctx, f, params)
}

// Close gracefully shuts down the instance, syncing and closing every
// open journal file handle.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
