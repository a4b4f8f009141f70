package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/go-journalfile/internal/bitmap"
	"github.com/netdata/go-journalfile/internal/indexer"
)

func testIndex() *indexer.FileIndex {
	universe := uint32(10)
	bitmaps := map[indexer.FieldValuePair]*bitmap.Bitmap{
		{Field: "PRIORITY", Value: "6"}: bitmap.BitmapFromSortedIter([]uint32{0, 2, 4, 6, 8}, universe),
		{Field: "PRIORITY", Value: "3"}: bitmap.BitmapFromSortedIter([]uint32{1, 3, 5}, universe),
		{Field: "SERVICE", Value: "api"}: bitmap.BitmapFromSortedIter([]uint32{0, 1, 2, 3}, universe),
	}
	return indexer.Rehydrate(
		[16]byte{1}, time.Now(), true,
		indexer.Histogram{},
		make([]uint32, universe),
		map[string]struct{}{"PRIORITY": {}, "SERVICE": {}},
		map[string]struct{}{"PRIORITY": {}, "SERVICE": {}},
		nil,
		bitmaps,
	)
}

func TestMatchFieldValue(t *testing.T) {
	idx := testIndex()
	got := Value("PRIORITY", "6").Evaluate(idx)
	assert.Equal(t, []uint32{0, 2, 4, 6, 8}, got.Positions())
}

func TestMatchFieldValueMissing(t *testing.T) {
	idx := testIndex()
	got := Value("PRIORITY", "nope").Evaluate(idx)
	assert.True(t, got.IsEmpty())
}

func TestMatchFieldName(t *testing.T) {
	idx := testIndex()
	got := Name("PRIORITY").Evaluate(idx)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 8}, got.Positions())
}

func TestNilFilterMatchesEverything(t *testing.T) {
	idx := testIndex()
	var f *Filter
	got := f.Evaluate(idx)
	assert.Equal(t, int(idx.Universe()), got.Len())
}

func TestAndOfOrdersBySmallestFirst(t *testing.T) {
	idx := testIndex()
	f := AndOf(Value("SERVICE", "api"), Value("PRIORITY", "6"))
	got := f.Evaluate(idx)
	assert.Equal(t, []uint32{0, 2}, got.Positions())
}

func TestOrOf(t *testing.T) {
	idx := testIndex()
	f := OrOf(Value("PRIORITY", "6"), Value("PRIORITY", "3"))
	got := f.Evaluate(idx)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 8}, got.Positions())
}

func TestNotOf(t *testing.T) {
	idx := testIndex()
	f := NotOf(Value("PRIORITY", "6"))
	got := f.Evaluate(idx)
	assert.Equal(t, int(idx.Universe())-5, got.Len())
	assert.False(t, got.Contains(0))
	assert.True(t, got.Contains(1))
}

func TestEmptyAndOfIsFull(t *testing.T) {
	idx := testIndex()
	got := AndOf().Evaluate(idx)
	assert.Equal(t, int(idx.Universe()), got.Len())
}

func TestEmptyOrOfIsEmpty(t *testing.T) {
	idx := testIndex()
	got := OrOf().Evaluate(idx)
	assert.True(t, got.IsEmpty())
}

func TestNestedCombinators(t *testing.T) {
	idx := testIndex()
	f := AndOf(
		Name("PRIORITY"),
		NotOf(Value("PRIORITY", "3")),
	)
	got := f.Evaluate(idx)
	require.False(t, got.IsEmpty())
	assert.Equal(t, []uint32{0, 2, 4, 6, 8}, got.Positions())
}
