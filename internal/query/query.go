// Package query implements spec.md §4.11: the unified reader across one
// or many file indexes. It resolves an Anchor to a concrete timestamp,
// positions a cursor per file (resuming from pagination state or binary
// searching from the anchor), restricts candidates through a Filter's
// resolved bitmap, and merges the per-file candidate streams with a
// k-way heap ordered by timestamp with deterministic cross-file
// tie-breaking.
package query

import (
	"container/heap"
	"context"
	"sort"

	"github.com/netdata/go-journalfile/internal/filter"
	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// LogEntryID identifies one log entry surfaced by a query (spec.md
// §4.11's output record).
type LogEntryID struct {
	FileID    [16]byte
	Offset    uint64
	Timestamp int64
	Position  int
}

// Params carries a log query's inputs (spec.md §4.11).
type Params struct {
	Anchor               Anchor
	Direction            Direction
	Limit                int // <= 0 means unlimited.
	SourceTimestampField string
	Filter               *filter.Filter
	After                *int64 // inclusive lower bound, microseconds.
	Before               *int64 // exclusive upper bound, microseconds.
	Resume               *PaginationState
}

// validate enforces spec.md §7's InvalidQueryTimeRange: after must be
// strictly less than before when both are set.
func (p Params) validate() error {
	if p.After != nil && p.Before != nil && *p.After >= *p.Before {
		return journalerrors.NewInvalidQueryTimeRangeError(*p.After, *p.Before)
	}
	return nil
}

// Run executes a log query across sources, returning up to Limit
// entries and the pagination state a subsequent page should resume
// from. Run checks ctx for cancellation once per emitted entry
// (spec.md §5: "Long-running queries must check a cancellation token at
// merge-loop iteration boundaries... No partial result is ever returned
// on cancellation").
func Run(ctx context.Context, sources []Source, params Params) ([]LogEntryID, *PaginationState, error) {
	if err := params.validate(); err != nil {
		return nil, nil, err
	}

	if len(sources) == 0 {
		return nil, params.Resume.clone(), nil
	}

	anchorUsec := resolve(params.Anchor, sources)

	cursors := make([]*fileCursor, len(sources))
	for i, src := range sources {
		fc, err := newFileCursor(src, params, anchorUsec)
		if err != nil {
			return nil, nil, err
		}
		cursors[i] = fc
	}

	h := &entryHeap{direction: params.Direction}
	heap.Init(h)
	for i, fc := range cursors {
		entry, ok, err := fc.next()
		if err != nil {
			return nil, nil, err
		}
		if ok {
			heap.Push(h, heapItem{entry: entry, fileIdx: i})
		}
	}

	limit := params.Limit
	var results []LogEntryID
	state := params.Resume.clone()

	for h.Len() > 0 {
		if limit > 0 && len(results) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, journalerrors.NewQueryCancelledError(len(sources))
		}

		item := heap.Pop(h).(heapItem)
		results = append(results, item.entry)
		state.set(item.entry.FileID, item.entry.Position)

		next, ok, err := cursors[item.fileIdx].next()
		if err != nil {
			return nil, nil, err
		}
		if ok {
			heap.Push(h, heapItem{entry: next, fileIdx: item.fileIdx})
		}
	}

	return results, state, nil
}

// SortSources orders sources deterministically by (seqnum_id,
// head_entry_seqnum), matching other_examples' journaldreader.go
// SortJournalFiles — a supplemented helper for callers that don't
// already have a stable file order before building a multi-file query
// (spec.md §4.11's "file order in input" tie-break rule needs one).
func SortSources(sources []Source) ([]Source, error) {
	type keyed struct {
		src        Source
		seqnumID   [16]byte
		headSeqnum uint64
	}

	ks := make([]keyed, len(sources))
	for i, s := range sources {
		hg, err := s.File.Header()
		if err != nil {
			return nil, err
		}
		hdr := hg.Value()
		ks[i] = keyed{src: s, seqnumID: hdr.SeqnumID(), headSeqnum: hdr.HeadEntrySeqnum()}
		hg.Release()
	}

	sort.SliceStable(ks, func(i, j int) bool {
		if cmp := compareSeqnumID(ks[i].seqnumID, ks[j].seqnumID); cmp != 0 {
			return cmp < 0
		}
		return ks[i].headSeqnum < ks[j].headSeqnum
	})

	out := make([]Source, len(ks))
	for i, k := range ks {
		out[i] = k.src
	}
	return out, nil
}

func compareSeqnumID(a, b [16]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
