package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectOffsetsEmptyChain(t *testing.T) {
	jf := newTestFile(t, false, true)
	offsets, err := CollectOffsets(jf, 0)
	require.NoError(t, err)
	assert.Empty(t, offsets)
}

func TestCollectOffsetsAcrossMultipleArrays(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	var want []uint64
	for i := 0; i < 12; i++ {
		off, err := w.AddEntry([][]byte{[]byte("MESSAGE=m")}, uint64(1000+i), uint64(i))
		require.NoError(t, err)
		want = append(want, off)
	}

	hg, err := jf.Header()
	require.NoError(t, err)
	topHead := hg.Value().EntryArrayOffset()
	hg.Release()

	got, err := CollectOffsets(jf, topHead)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDirectedPartitionPointForward(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	var offsets []uint64
	for i := 0; i < 10; i++ {
		off, err := w.AddEntry([][]byte{[]byte("MESSAGE=m")}, uint64(1000+i*10), 0)
		require.NoError(t, err)
		offsets = append(offsets, off)
	}

	hg, err := jf.Header()
	require.NoError(t, err)
	topHead := hg.Value().EntryArrayOffset()
	hg.Release()

	// First entry offset at or after realtime 1050 should be index 5.
	threshold := uint64(1050)
	predicate := func(entryOffset uint64) (bool, error) {
		eg, err := jf.EntryObjectAt(int64(entryOffset))
		if err != nil {
			return false, err
		}
		defer eg.Release()
		return eg.Value().RealtimeUsec() >= threshold, nil
	}

	pos, found, err := DirectedPartitionPoint(jf, topHead, predicate, true)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, pos)
	assert.Equal(t, offsets[5], mustCollect(t, jf, topHead)[pos])
}

func TestDirectedPartitionPointNoneMatch(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	for i := 0; i < 5; i++ {
		_, err := w.AddEntry([][]byte{[]byte("MESSAGE=m")}, uint64(1000+i), 0)
		require.NoError(t, err)
	}

	hg, err := jf.Header()
	require.NoError(t, err)
	topHead := hg.Value().EntryArrayOffset()
	hg.Release()

	predicate := func(entryOffset uint64) (bool, error) { return false, nil }
	_, found, err := DirectedPartitionPoint(jf, topHead, predicate, true)
	require.NoError(t, err)
	assert.False(t, found)
}

func mustCollect(t *testing.T, jf *JournalFile, head uint64) []uint64 {
	t.Helper()
	offsets, err := CollectOffsets(jf, head)
	require.NoError(t, err)
	return offsets
}
