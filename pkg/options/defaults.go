package options

import "time"

const (
	// DefaultDataDir is the default base directory where journal files and
	// their split-index companions are stored.
	DefaultDataDir = "/var/lib/go-journalfile"

	// DefaultWindowSize is the default value of the Window.Size option. Must
	// be a multiple of 8 and large enough to hold the largest single object
	// the writer ever allocates. The journal window manager does not read
	// it; its own window length is a fixed 4 MiB.
	DefaultWindowSize uint64 = 8 * 1024 * 1024

	// MinWindowSize is the smallest window size accepted; below this, a
	// single Entry object carrying many fields could straddle a window.
	MinWindowSize uint64 = 64 * 1024

	// MaxWindowSize bounds window size to keep the LRU's resident set
	// predictable.
	MaxWindowSize uint64 = 256 * 1024 * 1024

	// DefaultWindowCount is the default number (K) of simultaneously mapped
	// windows the window manager retains per open file.
	DefaultWindowCount = 32

	// MinWindowCount is the smallest K that still allows the writer to hold
	// a header window, a hash-table window, and a tail-object window live
	// at once without thrashing.
	MinWindowCount = 4

	// MaxWindowCount bounds K to keep virtual address space usage sane.
	MaxWindowCount = 1024

	// DefaultCompact selects the regular (non-compact) object encoding,
	// matching upstream systemd's default for new journal files.
	DefaultCompact = false

	// DefaultKeyedHash selects SipHash-2-4 keyed with the file id over the
	// legacy unkeyed Jenkins lookup3 hash.
	DefaultKeyedHash = true

	// DefaultMaxUniqueValuesPerField is the cardinality ceiling above which
	// a field is classified high-cardinality and given its own index chunk.
	DefaultMaxUniqueValuesPerField = 1_000_000

	// DefaultMaxFieldPayloadSize is the byte length above which a data
	// object's payload is skipped by the indexer rather than added to a
	// bitmap catalog.
	DefaultMaxFieldPayloadSize = 512

	// DefaultBucketDuration is the histogram bucket width.
	DefaultBucketDuration = time.Second

	// DefaultIndexStoreCompressionLevel is the zstd level applied to each
	// chunk of the split index container.
	DefaultIndexStoreCompressionLevel = 1

	// DefaultJournalPrefix is the filename prefix used when generating
	// rotated/sealed journal file names.
	DefaultJournalPrefix = "journal"

	// DefaultJournalDirectory is the default subdirectory within DataDir
	// where journal files are stored.
	DefaultJournalDirectory = "/journals"
)

// Holds the default configuration settings for a journal engine instance.
var defaultOptions = Options{
	DataDir: DefaultDataDir,
	Window: &windowOptions{
		Size:  DefaultWindowSize,
		Count: DefaultWindowCount,
	},
	Compact:   DefaultCompact,
	KeyedHash: DefaultKeyedHash,
	Indexer: &indexerOptions{
		MaxUniqueValuesPerField: DefaultMaxUniqueValuesPerField,
		MaxFieldPayloadSize:     DefaultMaxFieldPayloadSize,
		BucketDuration:          DefaultBucketDuration,
	},
	IndexStoreCompressionLevel: DefaultIndexStoreCompressionLevel,
	Journal: &journalOptions{
		Directory: DefaultJournalDirectory,
		Prefix:    DefaultJournalPrefix,
	},
}

// NewDefaultOptions returns a copy of the package default configuration.
// The Window/Indexer/Journal sub-structs are copied rather than shared, so
// mutating one Options value through an OptionFunc never affects another.
func NewDefaultOptions() Options {
	opts := defaultOptions
	window := *defaultOptions.Window
	indexer := *defaultOptions.Indexer
	journal := *defaultOptions.Journal
	opts.Window = &window
	opts.Indexer = &indexer
	opts.Journal = &journal
	return opts
}
