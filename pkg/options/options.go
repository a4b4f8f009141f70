// Package options provides data structures and functions for configuring
// the journal engine. It defines the parameters that control the window
// manager, object encoding, file indexer limits, index-store compression,
// and rotated-journal naming, following the teacher's functional-options
// shape: a struct of grouped sub-options plus a stack of OptionFunc
// mutators applied over a set of sane defaults.
package options

import (
	"strings"
	"time"
)

// windowOptions holds the window settings for the mmap window manager that
// backs every read and write into a journal file's arena. The engine does
// not pass these values on: the journal window manager always maps fixed
// 4 MiB windows and keeps 32 of them resident, whatever Size and Count say.
type windowOptions struct {
	// Size is the fixed byte length (W) of every window the manager maps.
	// Must be a multiple of 8 and at least as large as the largest object
	// the writer can allocate plus its alignment padding.
	//
	//  - Default: 8MiB
	//  - Minimum: 64KiB
	//  - Maximum: 256MiB
	Size uint64 `json:"windowSize"`

	// Count is the number (K) of windows kept resident at once, LRU-evicted
	// on miss.
	//
	//  - Default: 32
	Count int `json:"windowCount"`
}

// indexerOptions configures the file-indexer's analytical pass.
type indexerOptions struct {
	// MaxUniqueValuesPerField is the cardinality ceiling above which a field
	// is classified high-cardinality and given its own split-container chunk.
	//
	// Default: 1,000,000
	MaxUniqueValuesPerField int `json:"maxUniqueValuesPerField"`

	// MaxFieldPayloadSize is the byte length above which a data object's
	// payload is skipped rather than added to the bitmap catalog.
	//
	// Default: 512
	MaxFieldPayloadSize int `json:"maxFieldPayloadSize"`

	// BucketDuration is the histogram bucket width.
	//
	// Default: 1s
	BucketDuration time.Duration `json:"bucketDuration"`
}

// journalOptions configures where journal files live and how rotated/sealed
// files are named.
type journalOptions struct {
	// Directory is the subdirectory within DataDir that holds journal files.
	//
	// Default: "/journals"
	Directory string `json:"directory"`

	// Prefix is the filename prefix for journal files. The generated name
	// is "prefix_NNNNN_timestamp.journal".
	//
	// Default: "journal"
	Prefix string `json:"prefix"`
}

// Options defines the configuration parameters for the journal engine. It
// provides control over storage layout, object encoding, indexer behavior,
// and index-store compression.
type Options struct {
	// DataDir specifies the base path where files will be stored.
	//
	// Default: "/var/lib/go-journalfile"
	DataDir string `json:"dataDir"`

	// Compact selects the compact object encoding (u32 offsets) over the
	// regular encoding (u64 offsets).
	//
	// Default: false
	Compact bool `json:"compact"`

	// KeyedHash selects SipHash-2-4 keyed with the file id over the legacy
	// unkeyed Jenkins lookup3 hash.
	//
	// Default: true
	KeyedHash bool `json:"keyedHash"`

	// IndexStoreCompressionLevel is the zstd level applied to each chunk of
	// the split index container.
	//
	// Default: 1
	IndexStoreCompressionLevel int `json:"indexStoreCompressionLevel"`

	// Window configures the mmap window manager.
	Window *windowOptions `json:"window"`

	// Indexer configures the file-indexer's analytical pass.
	Indexer *indexerOptions `json:"indexer"`

	// Journal configures journal file location and naming.
	Journal *journalOptions `json:"journal"`
}

// OptionFunc is a function type that modifies the journal engine's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.Compact = opts.Compact
		o.KeyedHash = opts.KeyedHash
		o.IndexStoreCompressionLevel = opts.IndexStoreCompressionLevel
		o.Window = opts.Window
		o.Indexer = opts.Indexer
		o.Journal = opts.Journal
	}
}

// WithDataDir sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithWindowSize sets the fixed byte length of each mmap window.
func WithWindowSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinWindowSize && size <= MaxWindowSize && size%8 == 0 {
			o.Window.Size = size
		}
	}
}

// WithWindowCount sets how many windows the manager keeps resident at once.
func WithWindowCount(count int) OptionFunc {
	return func(o *Options) {
		if count >= MinWindowCount && count <= MaxWindowCount {
			o.Window.Count = count
		}
	}
}

// WithCompact selects the compact (u32-offset) object encoding for newly
// created journal files.
func WithCompact(compact bool) OptionFunc {
	return func(o *Options) {
		o.Compact = compact
	}
}

// WithKeyedHash selects SipHash-2-4 keyed hashing over the legacy unkeyed
// Jenkins lookup3 hash for newly created journal files.
func WithKeyedHash(keyed bool) OptionFunc {
	return func(o *Options) {
		o.KeyedHash = keyed
	}
}

// WithMaxUniqueValuesPerField sets the cardinality ceiling above which a
// field is classified high-cardinality.
func WithMaxUniqueValuesPerField(max int) OptionFunc {
	return func(o *Options) {
		if max > 0 {
			o.Indexer.MaxUniqueValuesPerField = max
		}
	}
}

// WithMaxFieldPayloadSize sets the byte length above which a data object's
// payload is skipped by the indexer.
func WithMaxFieldPayloadSize(max int) OptionFunc {
	return func(o *Options) {
		if max > 0 {
			o.Indexer.MaxFieldPayloadSize = max
		}
	}
}

// WithBucketDuration sets the histogram bucket width.
func WithBucketDuration(d time.Duration) OptionFunc {
	return func(o *Options) {
		if d > 0 {
			o.Indexer.BucketDuration = d
		}
	}
}

// WithIndexStoreCompressionLevel sets the zstd level applied to each chunk
// of the split index container.
func WithIndexStoreCompressionLevel(level int) OptionFunc {
	return func(o *Options) {
		if level >= 1 && level <= 22 {
			o.IndexStoreCompressionLevel = level
		}
	}
}

// WithJournalDirectory sets the subdirectory, relative to DataDir, where
// journal files are stored.
func WithJournalDirectory(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.Journal.Directory = directory
		}
	}
}

// WithJournalPrefix sets the filename prefix used for rotated journal files.
func WithJournalPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.Journal.Prefix = prefix
		}
	}
}
