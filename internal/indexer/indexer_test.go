package indexer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/go-journalfile/internal/journal"
	"github.com/netdata/go-journalfile/pkg/logger"
)

func newTestJournal(t *testing.T) (*journal.JournalFile, *journal.Writer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "indexer.journal")
	jf, err := journal.Create(&journal.CreateConfig{Path: path, Compact: false, KeyedHash: true, Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = jf.Close() })
	return jf, journal.NewWriter(jf)
}

func TestBuildFileIndexHistogramAndOffsets(t *testing.T) {
	jf, w := newTestJournal(t)

	base := int64(1_700_000_000) * 1_000_000
	for i := 0; i < 5; i++ {
		_, err := w.AddEntry([][]byte{
			[]byte("MESSAGE=entry"),
			[]byte("PRIORITY=6"),
		}, uint64(base+int64(i)*1_000_000), 0)
		require.NoError(t, err)
	}

	idx, err := BuildFileIndex(jf, Config{BucketDuration: time.Second})
	require.NoError(t, err)

	require.Len(t, idx.EntryOffsets, 5)
	assert.Equal(t, uint32(5), idx.Universe())
	assert.Len(t, idx.Histogram.Counts, 5)
	for _, c := range idx.Histogram.Counts {
		assert.Equal(t, uint32(1), c)
	}
	assert.True(t, idx.WasOnline)

	for i, off := range idx.EntryOffsets {
		pos, ok := idx.IndexOf(off)
		require.True(t, ok)
		assert.Equal(t, i, pos)
	}
}

func TestBuildFileIndexBitmapsClassifyByField(t *testing.T) {
	jf, w := newTestJournal(t)

	base := uint64(1_700_000_000) * 1_000_000
	values := []string{"6", "6", "3", "6", "3"}
	for i, v := range values {
		_, err := w.AddEntry([][]byte{
			[]byte("MESSAGE=entry"),
			[]byte("PRIORITY=" + v),
		}, base+uint64(i)*1_000_000, 0)
		require.NoError(t, err)
	}

	idx, err := BuildFileIndex(jf, Config{BucketDuration: time.Second})
	require.NoError(t, err)

	bm6 := idx.BitmapForValue("PRIORITY", "6")
	require.NotNil(t, bm6)
	assert.Equal(t, 3, bm6.Len())

	bm3 := idx.BitmapForValue("PRIORITY", "3")
	require.NotNil(t, bm3)
	assert.Equal(t, 2, bm3.Len())

	assert.Nil(t, idx.BitmapForValue("PRIORITY", "99"))

	all := idx.BitmapsForField("PRIORITY")
	assert.Len(t, all, 2)
}

func TestBuildFileIndexHighCardinalityClassification(t *testing.T) {
	jf, w := newTestJournal(t)

	base := uint64(1_700_000_000) * 1_000_000
	for i := 0; i < 10; i++ {
		_, err := w.AddEntry([][]byte{
			[]byte("MESSAGE=entry"),
			[]byte("REQUEST_ID=" + string(rune('a'+i))),
		}, base+uint64(i)*1_000_000, 0)
		require.NoError(t, err)
	}

	idx, err := BuildFileIndex(jf, Config{BucketDuration: time.Second, MaxUniqueValuesPerField: 3})
	require.NoError(t, err)

	_, isHC := idx.HighCardinalityFields["REQUEST_ID"]
	assert.True(t, isHC)
}

func TestEffectiveTimestampFallsBackToRealtime(t *testing.T) {
	jf, w := newTestJournal(t)

	off, err := w.AddEntry([][]byte{[]byte("MESSAGE=no ts field")}, 123456, 0)
	require.NoError(t, err)

	ts, err := EffectiveTimestamp(jf, off, "MY_TIMESTAMP")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), ts)
}

func TestEffectiveTimestampUsesSourceField(t *testing.T) {
	jf, w := newTestJournal(t)

	off, err := w.AddEntry([][]byte{
		[]byte("MESSAGE=has ts"),
		[]byte("MY_TIMESTAMP=987654321"),
	}, 123456, 0)
	require.NoError(t, err)

	ts, err := EffectiveTimestamp(jf, off, "MY_TIMESTAMP")
	require.NoError(t, err)
	assert.Equal(t, int64(987654321), ts)
}

func TestHistogramBucketFor(t *testing.T) {
	h := Histogram{StartSecond: 1000, BucketDuration: time.Second, Counts: make([]uint32, 10)}

	idx, ok := h.BucketFor(1000 * 1_000_000)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = h.BucketFor(1005 * 1_000_000)
	require.True(t, ok)
	assert.Equal(t, 5, idx)

	_, ok = h.BucketFor(999 * 1_000_000)
	assert.False(t, ok)

	_, ok = h.BucketFor(2000 * 1_000_000)
	assert.False(t, ok)
}
