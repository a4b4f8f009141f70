package indexstore

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/go-journalfile/internal/bitmap"
	"github.com/netdata/go-journalfile/internal/indexer"
)

func buildTestFileIndex() *indexer.FileIndex {
	universe := uint32(8)
	bitmaps := map[indexer.FieldValuePair]*bitmap.Bitmap{
		{Field: "PRIORITY", Value: "6"}: bitmap.BitmapFromSortedIter([]uint32{0, 2, 4}, universe),
		{Field: "PRIORITY", Value: "3"}: bitmap.BitmapFromSortedIter([]uint32{1, 3}, universe),
		{Field: "SERVICE", Value: "api"}: bitmap.BitmapFromSortedIter([]uint32{0, 1, 2, 3, 4, 5, 6, 7}, universe),
		{Field: "REQUEST_ID", Value: "req-1"}: bitmap.BitmapFromSortedIter([]uint32{0}, universe),
		{Field: "REQUEST_ID", Value: "req-2"}: bitmap.BitmapFromSortedIter([]uint32{1}, universe),
	}

	return indexer.Rehydrate(
		[16]byte{1, 2, 3},
		time.Unix(1_700_000_000, 0).UTC(),
		true,
		indexer.Histogram{StartSecond: 1_700_000_000, BucketDuration: time.Second, Counts: []uint32{1, 1, 1, 1, 1, 1, 1, 1}},
		[]uint32{10, 20, 30, 40, 50, 60, 70, 80},
		map[string]struct{}{"PRIORITY": {}, "SERVICE": {}, "REQUEST_ID": {}},
		map[string]struct{}{"PRIORITY": {}, "SERVICE": {}, "REQUEST_ID": {}},
		map[string]struct{}{"REQUEST_ID": {}},
		bitmaps,
	)
}

// TestContainerRoundTrip grounds spec.md §8's S6 scenario: every bitmap
// lookup against the reconstructed FileIndex must agree exactly with the
// original.
func TestContainerRoundTrip(t *testing.T) {
	original := buildTestFileIndex()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original, 1))

	container, err := Read(&buf)
	require.NoError(t, err)

	rehydrated, err := container.ToFileIndex()
	require.NoError(t, err)

	assert.Equal(t, original.FileID, rehydrated.FileID)
	assert.Equal(t, original.WasOnline, rehydrated.WasOnline)
	assert.Equal(t, original.EntryOffsets, rehydrated.EntryOffsets)
	assert.Equal(t, original.Histogram, rehydrated.Histogram)
	assert.Equal(t, original.Fields, rehydrated.Fields)
	assert.Equal(t, original.IndexedFields, rehydrated.IndexedFields)
	assert.Equal(t, original.HighCardinalityFields, rehydrated.HighCardinalityFields)

	for pair, bm := range original.Bitmaps {
		got := rehydrated.BitmapForValue(pair.Field, pair.Value)
		require.NotNil(t, got, "missing bitmap for %v", pair)
		assert.Equal(t, bm.Positions(), got.Positions(), "mismatch for %v", pair)
	}
}

func TestContainerLookupRoutesLowAndHighCardinality(t *testing.T) {
	original := buildTestFileIndex()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original, 1))

	container, err := Read(&buf)
	require.NoError(t, err)

	bm, err := container.Lookup("PRIORITY", "6")
	require.NoError(t, err)
	require.NotNil(t, bm)
	assert.Equal(t, []uint32{0, 2, 4}, bm.Positions())

	bm, err = container.Lookup("REQUEST_ID", "req-2")
	require.NoError(t, err)
	require.NotNil(t, bm)
	assert.Equal(t, []uint32{1}, bm.Positions())

	missing, err := container.Lookup("PRIORITY", "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestContainerPrefixScan(t *testing.T) {
	original := buildTestFileIndex()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original, 1))

	container, err := Read(&buf)
	require.NoError(t, err)

	entries, err := container.PrefixScan("REQUEST_ID")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = container.PrefixScan("PRIORITY")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not an index container at all")))
	assert.Error(t, err)
}
