// Package indexer builds the post-pass analytical FileIndex of spec.md
// §4.8 over an already-written journal file: a one-second-bucket time
// histogram, an entry-offset vector sorted by timestamp, and a per-field
// cardinality-classified bitmap catalog.
package indexer

import (
	"time"

	"go.uber.org/zap"

	"github.com/netdata/go-journalfile/internal/bitmap"
)

// Histogram is a fixed-bucket-width time histogram over a journal file's
// entries (spec.md §3's in-memory "Histogram").
type Histogram struct {
	StartSecond    int64
	BucketDuration time.Duration
	Counts         []uint32
}

// BucketFor returns the bucket index for a realtime microsecond timestamp,
// or (-1, false) if it falls before StartSecond or past the last bucket.
func (h *Histogram) BucketFor(usec int64) (int, bool) {
	sec := usec / 1_000_000
	width := int64(h.BucketDuration / time.Second)
	if width <= 0 {
		width = 1
	}
	idx := (sec - h.StartSecond) / width
	if idx < 0 || idx >= int64(len(h.Counts)) {
		return -1, false
	}
	return int(idx), true
}

// FieldValuePair identifies one bitmap catalog entry: a resolved
// "FIELD=value" pair.
type FieldValuePair struct {
	Field string
	Value string
}

// FileIndex is the immutable analytical snapshot of spec.md §3: rebuilt
// wholesale on any mutation to the underlying journal file, never patched
// in place.
type FileIndex struct {
	FileID    [16]byte
	IndexedAt time.Time
	// WasOnline records whether the source journal file's header state was
	// Online at index-build time — supplemented feature: lets a query
	// distinguish a freshly rotated file from one that may still be
	// receiving writes.
	WasOnline bool

	Histogram Histogram

	// EntryOffsets is sorted by (effective timestamp, offset), per spec.md
	// §4.8 step 1.
	EntryOffsets []uint32

	Fields                map[string]struct{}
	IndexedFields         map[string]struct{}
	HighCardinalityFields map[string]struct{}

	Bitmaps map[FieldValuePair]*bitmap.Bitmap

	// offsetIndex maps an entry's file offset to its position in
	// EntryOffsets, the "offset→index map" spec.md §4.8 builds during
	// enumeration.
	offsetIndex map[uint32]int
}

// IndexOf returns the position of entryOffset within EntryOffsets, or
// (-1, false) if the entry is not part of this index.
func (fi *FileIndex) IndexOf(entryOffset uint32) (int, bool) {
	idx, ok := fi.offsetIndex[entryOffset]
	if !ok {
		return -1, false
	}
	return idx, true
}

// Rehydrate reconstructs a FileIndex from its component parts, rebuilding
// the offset→index map that a split-container round trip (internal/
// indexstore) cannot carry on the wire since it's a pure function of
// EntryOffsets.
func Rehydrate(
	fileID [16]byte,
	indexedAt time.Time,
	wasOnline bool,
	histogram Histogram,
	entryOffsets []uint32,
	fields map[string]struct{},
	indexedFields map[string]struct{},
	highCardinalityFields map[string]struct{},
	bitmaps map[FieldValuePair]*bitmap.Bitmap,
) *FileIndex {
	offsetIndex := make(map[uint32]int, len(entryOffsets))
	for i, off := range entryOffsets {
		offsetIndex[off] = i
	}
	return &FileIndex{
		FileID:                fileID,
		IndexedAt:             indexedAt,
		WasOnline:             wasOnline,
		Histogram:             histogram,
		EntryOffsets:          entryOffsets,
		Fields:                fields,
		IndexedFields:         indexedFields,
		HighCardinalityFields: highCardinalityFields,
		Bitmaps:               bitmaps,
		offsetIndex:           offsetIndex,
	}
}

// Universe returns the size of the position space bitmaps in this index
// are built over: one position per entry in EntryOffsets.
func (fi *FileIndex) Universe() uint32 { return uint32(len(fi.EntryOffsets)) }

// BitmapForValue returns the bitmap for an exact FIELD=value pair, or nil
// if the pair was never indexed (spec.md §4.10's MatchFieldValue leaf).
func (fi *FileIndex) BitmapForValue(field, value string) *bitmap.Bitmap {
	return fi.Bitmaps[FieldValuePair{Field: field, Value: value}]
}

// BitmapsForField returns every bitmap indexed under the given field name,
// used by spec.md §4.10's MatchFieldName leaf to build the field-wide
// union.
func (fi *FileIndex) BitmapsForField(field string) []*bitmap.Bitmap {
	var out []*bitmap.Bitmap
	for pair, bm := range fi.Bitmaps {
		if pair.Field == field {
			out = append(out, bm)
		}
	}
	return out
}

// StartTime and EndTime expose the index's covered timestamp range for
// Head/Tail anchor resolution (spec.md §4.11).
func (fi *FileIndex) StartTime() int64 {
	if len(fi.EntryOffsets) == 0 {
		return 0
	}
	return fi.Histogram.StartSecond * 1_000_000
}

func (fi *FileIndex) EndTime() int64 {
	width := int64(fi.Histogram.BucketDuration / time.Second)
	if width <= 0 {
		width = 1
	}
	return (fi.Histogram.StartSecond + int64(len(fi.Histogram.Counts))*width) * 1_000_000
}

// Config carries the indexer's tunables, following spec.md §6's default
// config surface plus the source-timestamp and field-selection inputs of
// §4.8.
type Config struct {
	// Fields is the list of field names to build bitmap catalog entries
	// for. An empty list means "every field observed."
	Fields []string

	// SourceTimestampField, if non-empty, names a logical timestamp field
	// carried in entry data; entries lacking it fall back to the entry
	// header's realtime.
	SourceTimestampField string

	BucketDuration          time.Duration
	MaxUniqueValuesPerField int
	MaxFieldPayloadSize     int

	Logger *zap.SugaredLogger
}
