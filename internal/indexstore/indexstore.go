package indexstore

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/netdata/go-journalfile/internal/bitmap"
	"github.com/netdata/go-journalfile/internal/indexer"
	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// magic identifies a split index container on disk.
var magic = [8]byte{'J', 'F', 'I', 'D', 'X', 'v', '1', 0}

// Container is a split index container loaded from disk: the metadata
// chunk is always decoded eagerly (it's small and every query needs it),
// the primary and per-high-cardinality-field chunks decompress lazily on
// first lookup (spec.md §4.9's routing rationale: don't pay for a chunk a
// query never touches).
type Container struct {
	meta *Metadata

	primaryRaw []byte
	primary    *OrderedTable

	hcRaw    map[string][]byte
	hcTables map[string]*OrderedTable
}

// Metadata returns the container's decoded metadata chunk.
func (c *Container) Metadata() *Metadata { return c.meta }

// Write serializes idx as a split index container to w, compressing each
// chunk independently at the given zstd level (spec.md §6: "Compression
// is zstd level 1" by default; callers may pass Options.IndexStoreCompressionLevel).
func Write(w io.Writer, idx *indexer.FileIndex, level int) error {
	hcFields := sortedKeys(idx.HighCardinalityFields)

	meta := &Metadata{
		FileID:        idx.FileID,
		IndexedAtUnix: idx.IndexedAt.UnixNano(),
		WasOnline:     idx.WasOnline,
		StartSecond:   idx.Histogram.StartSecond,
		BucketSeconds: int64(idx.Histogram.BucketDuration.Seconds()),
		Counts:        idx.Histogram.Counts,
		EntryOffsets:  idx.EntryOffsets,
		Fields:        sortedKeys(idx.Fields),
		IndexedFields: sortedKeys(idx.IndexedFields),
		HCFieldOrder:  hcFields,
	}

	hcSet := idx.HighCardinalityFields
	hcEntries := make(map[string][]Entry, len(hcFields))
	var primaryEntries []Entry

	for pair, bm := range idx.Bitmaps {
		key := []byte(pair.Field + "=" + pair.Value)
		if _, ok := hcSet[pair.Field]; ok {
			hcEntries[pair.Field] = append(hcEntries[pair.Field], Entry{Key: key, Bitmap: bm})
		} else {
			primaryEntries = append(primaryEntries, Entry{Key: key, Bitmap: bm})
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return journalerrors.NewBaseError(err, journalerrors.ErrorCodeInternal, "failed to build zstd encoder")
	}
	defer enc.Close()

	chunks := make([][]byte, 0, 2+len(hcFields))
	chunks = append(chunks, enc.EncodeAll(meta.Encode(), nil))
	chunks = append(chunks, enc.EncodeAll(NewOrderedTable(primaryEntries).Encode(), nil))
	for _, f := range hcFields {
		chunks = append(chunks, enc.EncodeAll(NewOrderedTable(hcEntries[f]).Encode(), nil))
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(chunks)))
	if _, err := w.Write(u32[:]); err != nil {
		return err
	}
	for _, chunk := range chunks {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(chunk)))
		if _, err := w.Write(u32[:]); err != nil {
			return err
		}
	}
	for _, chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a split index container written by Write, decoding the
// metadata chunk eagerly and holding the remaining chunks compressed
// until first lookup.
func Read(r io.Reader) (*Container, error) {
	var got [8]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, wrapShort(err)
	}
	if got != magic {
		return nil, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeInvalidMagicNumber, "index container signature mismatch")
	}

	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, wrapShort(err)
	}
	n := binary.LittleEndian.Uint32(u32[:])

	lens := make([]uint32, n)
	for i := range lens {
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, wrapShort(err)
		}
		lens[i] = binary.LittleEndian.Uint32(u32[:])
	}

	chunks := make([][]byte, n)
	for i, l := range lens {
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, wrapShort(err)
		}
		chunks[i] = buf
	}

	if len(chunks) < 2 {
		return nil, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeZerocopyFailure, "index container has no metadata/primary chunks")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, journalerrors.NewBaseError(err, journalerrors.ErrorCodeInternal, "failed to build zstd decoder")
	}
	defer dec.Close()

	metaBytes, err := dec.DecodeAll(chunks[0], nil)
	if err != nil {
		return nil, journalerrors.NewChunkCorruptionError(0, "", err)
	}
	meta, err := DecodeMetadata(metaBytes)
	if err != nil {
		return nil, err
	}

	hcRaw := make(map[string][]byte, len(meta.HCFieldOrder))
	for i, f := range meta.HCFieldOrder {
		hcRaw[f] = chunks[2+i]
	}

	return &Container{
		meta:       meta,
		primaryRaw: chunks[1],
		hcRaw:      hcRaw,
		hcTables:   make(map[string]*OrderedTable),
	}, nil
}

// tableFor routes a field to its chunk per spec.md §4.9: a field in the
// high-cardinality set routes to its own chunk; everything else routes
// to the shared primary chunk.
func (c *Container) tableFor(field string) (*OrderedTable, error) {
	for _, hc := range c.meta.HCFieldOrder {
		if hc != field {
			continue
		}
		if t, ok := c.hcTables[field]; ok {
			return t, nil
		}
		t, err := c.decodeChunk(c.hcRaw[field], uint16(indexOf(c.meta.HCFieldOrder, field)+2), field)
		if err != nil {
			return nil, err
		}
		c.hcTables[field] = t
		return t, nil
	}

	return c.primaryTable()
}

// primaryTable decodes (once) and returns the shared low-cardinality
// chunk.
func (c *Container) primaryTable() (*OrderedTable, error) {
	if c.primary == nil {
		t, err := c.decodeChunk(c.primaryRaw, 1, "")
		if err != nil {
			return nil, err
		}
		c.primary = t
	}
	return c.primary, nil
}

func (c *Container) decodeChunk(raw []byte, chunkID uint16, field string) (*OrderedTable, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, journalerrors.NewBaseError(err, journalerrors.ErrorCodeInternal, "failed to build zstd decoder")
	}
	defer dec.Close()

	data, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, journalerrors.NewChunkCorruptionError(chunkID, field, err)
	}
	return DecodeOrderedTable(data)
}

// Lookup resolves an exact FIELD=value pair to its bitmap, or nil if the
// pair was never indexed.
func (c *Container) Lookup(field, value string) (*bitmap.Bitmap, error) {
	table, err := c.tableFor(field)
	if err != nil {
		return nil, err
	}
	return table.Lookup([]byte(field + "=" + value)), nil
}

// PrefixScan enumerates every entry for a field, routed to and scanning
// only that field's chunk (spec.md §4.9: "Prefix queries on hc fields
// enumerate only that chunk").
func (c *Container) PrefixScan(field string) ([]Entry, error) {
	table, err := c.tableFor(field)
	if err != nil {
		return nil, err
	}
	return table.PrefixScan([]byte(field + "=")), nil
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
