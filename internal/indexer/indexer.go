package indexer

import (
	"sort"
	"time"

	"github.com/netdata/go-journalfile/internal/bitmap"
	"github.com/netdata/go-journalfile/internal/journal"
	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

type timestampedOffset struct {
	ts     int64
	offset uint32
}

// BuildFileIndex implements spec.md §4.8 in full: entry enumeration,
// histogram construction, and the per-field cardinality-classified bitmap
// pass.
func BuildFileIndex(jf *journal.JournalFile, cfg Config) (*FileIndex, error) {
	hg, err := jf.Header()
	if err != nil {
		return nil, err
	}
	hdr := hg.Value()
	fileID := hdr.FileID()
	wasOnline := hdr.State() == journal.StateOnline
	topHead := hdr.EntryArrayOffset()
	fieldHTOff := int64(hdr.FieldHashTableOffset())
	fieldHTSize := int(hdr.FieldHashTableSize())
	keyed := hdr.IsKeyedHash()
	hg.Release()

	offsets, err := journal.CollectOffsets(jf, topHead)
	if err != nil {
		return nil, err
	}

	entries := make([]timestampedOffset, 0, len(offsets))
	for _, off := range offsets {
		ts, err := effectiveTimestamp(jf, off, cfg.SourceTimestampField)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warnw("indexer: skipping malformed entry", "offset", off, "error", err)
			}
			continue
		}
		entries = append(entries, timestampedOffset{ts: ts, offset: uint32(off)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ts != entries[j].ts {
			return entries[i].ts < entries[j].ts
		}
		return entries[i].offset < entries[j].offset
	})

	entryOffsets := make([]uint32, len(entries))
	offsetIndex := make(map[uint32]int, len(entries))
	for i, e := range entries {
		entryOffsets[i] = e.offset
		offsetIndex[e.offset] = i
	}

	bucketDuration := cfg.BucketDuration
	if bucketDuration <= 0 {
		bucketDuration = time.Second
	}
	histogram := buildHistogram(entries, bucketDuration)

	fields := cfg.Fields
	if len(fields) == 0 {
		fields, err = discoverFieldNames(jf, fieldHTOff, fieldHTSize)
		if err != nil {
			return nil, err
		}
	}

	bitmaps := make(map[FieldValuePair]*bitmap.Bitmap)
	indexedFields := make(map[string]struct{})
	highCardinality := make(map[string]struct{})
	allFields := make(map[string]struct{})

	maxUnique := cfg.MaxUniqueValuesPerField
	if maxUnique <= 0 {
		maxUnique = 1_000_000
	}
	maxPayload := cfg.MaxFieldPayloadSize
	if maxPayload <= 0 {
		maxPayload = 512
	}

	universe := uint32(len(entryOffsets))

	for _, field := range fields {
		allFields[field] = struct{}{}

		fieldHash := journal.Hash([]byte(field), fileID, keyed)
		fieldOffset, err := journal.LookupFieldOffset(jf, fieldHTOff, fieldHTSize, fieldHash, []byte(field))
		if err != nil {
			return nil, journalerrors.NewIndexBuildFailedError("field lookup", len(entries), err)
		}
		if fieldOffset == 0 {
			continue
		}

		uniqueCount := 0
		dataOffset := uint64(0)

		fg, err := jf.FieldObjectAt(int64(fieldOffset))
		if err != nil {
			return nil, err
		}
		dataOffset = fg.Value().HeadDataOffset()
		fg.Release()

		for dataOffset != 0 {
			dg, err := jf.DataObjectAt(int64(dataOffset))
			if err != nil {
				return nil, err
			}
			d := dg.Value()
			payload := d.Payload()
			entryHead := d.EntryArrayHead()
			next := d.NextFieldOffset()
			compressed := d.Compressed()

			if len(payload) >= maxPayload || compressed {
				dg.Release()
				dataOffset = next
				if cfg.Logger != nil {
					if compressed {
						cfg.Logger.Debugw("indexer: skipping compressed payload", "field", field)
					} else {
						cfg.Logger.Debugw("indexer: skipping large payload", "field", field)
					}
				}
				continue
			}

			value := valueOf(payload)
			dg.Release()

			if uniqueCount >= maxUnique {
				highCardinality[field] = struct{}{}
				dataOffset = next
				continue
			}

			entryOffsetsForValue, err := journal.CollectOffsets(jf, entryHead)
			if err != nil {
				return nil, err
			}
			indices := make([]uint32, 0, len(entryOffsetsForValue))
			for _, eo := range entryOffsetsForValue {
				if idx, ok := offsetIndex[uint32(eo)]; ok {
					indices = append(indices, uint32(idx))
				}
			}
			sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

			bm := bitmap.BuildDensityAware(indices, universe)
			bitmaps[FieldValuePair{Field: field, Value: value}] = bm
			uniqueCount++

			dataOffset = next
		}

		indexedFields[field] = struct{}{}
	}

	return &FileIndex{
		FileID:                fileID,
		IndexedAt:             stableNow(),
		WasOnline:             wasOnline,
		Histogram:             histogram,
		EntryOffsets:          entryOffsets,
		Fields:                allFields,
		IndexedFields:         indexedFields,
		HighCardinalityFields: highCardinality,
		Bitmaps:               bitmaps,
		offsetIndex:           offsetIndex,
	}, nil
}

// stableNow isolates the one wall-clock read BuildFileIndex performs,
// kept in its own function so tests can substitute a fixed clock without
// threading a time source through every call site.
var stableNow = time.Now

func valueOf(payload []byte) string {
	for i, b := range payload {
		if b == '=' {
			return string(payload[i+1:])
		}
	}
	return string(payload)
}

// EffectiveTimestamp resolves the timestamp a query or the indexer itself
// uses to order an entry: the configured source-timestamp field's value
// when present, otherwise the entry header's realtime (spec.md §4.8 step 1,
// reused by the query layer's binary search per §4.11).
func EffectiveTimestamp(jf *journal.JournalFile, entryOffset uint64, sourceField string) (int64, error) {
	return effectiveTimestamp(jf, entryOffset, sourceField)
}

func effectiveTimestamp(jf *journal.JournalFile, entryOffset uint64, sourceField string) (int64, error) {
	eg, err := jf.EntryObjectAt(int64(entryOffset))
	if err != nil {
		return 0, err
	}
	e := eg.Value()
	realtime := int64(e.RealtimeUsec())

	if sourceField == "" {
		eg.Release()
		return realtime, nil
	}

	// Copy the item offsets out and drop the entry guard first: only one
	// object view may be held at a time.
	dataOffsets := make([]uint64, e.NumItems())
	for i := range dataOffsets {
		dataOffsets[i] = e.Item(i).DataOffset
	}
	eg.Release()

	for _, dataOffset := range dataOffsets {
		dg, err := jf.DataObjectAt(int64(dataOffset))
		if err != nil {
			return 0, err
		}
		if dg.Value().Compressed() {
			dg.Release()
			continue
		}
		payload := dg.Value().Payload()
		name, value, ok := splitEquals(payload)
		dg.Release()
		if ok && string(name) == sourceField {
			if ts, ok := parseInt64(value); ok {
				return ts, nil
			}
		}
	}
	return realtime, nil
}

func splitEquals(payload []byte) (name, value []byte, ok bool) {
	for i, b := range payload {
		if b == '=' {
			return payload[:i], payload[i+1:], true
		}
	}
	return nil, nil, false
}

func parseInt64(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(b) {
		return 0, false
	}
	var v int64
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0, false
		}
		v = v*10 + int64(b[i]-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}

func buildHistogram(entries []timestampedOffset, bucketDuration time.Duration) Histogram {
	if len(entries) == 0 {
		return Histogram{BucketDuration: bucketDuration}
	}
	width := int64(bucketDuration / time.Second)
	if width <= 0 {
		width = 1
	}
	start := entries[0].ts / 1_000_000
	start -= start % width

	last := entries[len(entries)-1].ts / 1_000_000
	nbuckets := (last-start)/width + 1

	counts := make([]uint32, nbuckets)
	for _, e := range entries {
		sec := e.ts / 1_000_000
		idx := (sec - start) / width
		counts[idx]++
	}

	return Histogram{StartSecond: start, BucketDuration: bucketDuration, Counts: counts}
}

// discoverFieldNames enumerates every field name present in the field
// hash table, used when Config.Fields is empty ("index every field").
func discoverFieldNames(jf *journal.JournalFile, tableOffset int64, tableSize int) ([]string, error) {
	htg, err := jf.HashTableAt(tableOffset, tableSize)
	if err != nil {
		return nil, err
	}
	ht := htg.Value()
	n := ht.N()
	heads := make([]uint64, n)
	for i := 0; i < n; i++ {
		heads[i] = ht.Head(i)
	}
	htg.Release()

	var names []string
	for _, head := range heads {
		offset := head
		for offset != 0 {
			fg, err := jf.FieldObjectAt(int64(offset))
			if err != nil {
				return nil, err
			}
			names = append(names, string(fg.Value().Payload()))
			next := fg.Value().NextHashOffset()
			fg.Release()
			offset = next
		}
	}
	return names, nil
}
