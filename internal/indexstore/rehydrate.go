package indexstore

import (
	"time"

	"github.com/netdata/go-journalfile/internal/bitmap"
	"github.com/netdata/go-journalfile/internal/indexer"
)

func toSet(ss []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		out[s] = struct{}{}
	}
	return out
}

func splitFieldValue(key []byte) (field, value string) {
	for i, b := range key {
		if b == '=' {
			return string(key[:i]), string(key[i+1:])
		}
	}
	return string(key), ""
}

// ToFileIndex decodes every chunk of the container and reassembles an
// indexer.FileIndex equivalent to the one Write serialized — the round
// trip spec.md §8's scenario S6 asserts: "all bitmap lookups agree
// exactly with a linear scan."
func (c *Container) ToFileIndex() (*indexer.FileIndex, error) {
	bitmaps := make(map[indexer.FieldValuePair]*bitmap.Bitmap)

	primary, err := c.primaryTable()
	if err != nil {
		return nil, err
	}
	for _, e := range primary.All() {
		field, value := splitFieldValue(e.Key)
		bitmaps[indexer.FieldValuePair{Field: field, Value: value}] = e.Bitmap
	}

	for _, f := range c.meta.HCFieldOrder {
		table, err := c.tableFor(f)
		if err != nil {
			return nil, err
		}
		for _, e := range table.All() {
			field, value := splitFieldValue(e.Key)
			bitmaps[indexer.FieldValuePair{Field: field, Value: value}] = e.Bitmap
		}
	}

	histogram := indexer.Histogram{
		StartSecond:    c.meta.StartSecond,
		BucketDuration: time.Duration(c.meta.BucketSeconds) * time.Second,
		Counts:         c.meta.Counts,
	}

	return indexer.Rehydrate(
		c.meta.FileID,
		c.meta.IndexedAt(),
		c.meta.WasOnline,
		histogram,
		c.meta.EntryOffsets,
		toSet(c.meta.Fields),
		toSet(c.meta.IndexedFields),
		toSet(c.meta.HCFieldOrder),
		bitmaps,
	), nil
}
