package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAddEntryAppendsAndChains(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	off1, err := w.AddEntry([][]byte{[]byte("MESSAGE=hello"), []byte("PRIORITY=6")}, 1000, 500)
	require.NoError(t, err)
	require.NotZero(t, off1)

	off2, err := w.AddEntry([][]byte{[]byte("MESSAGE=world"), []byte("PRIORITY=6")}, 2000, 600)
	require.NoError(t, err)
	require.NotZero(t, off2)
	assert.NotEqual(t, off1, off2)

	hg, err := jf.Header()
	require.NoError(t, err)
	hdr := hg.Value()
	assert.Equal(t, uint64(2), hdr.NEntries())
	assert.Equal(t, uint64(1), hdr.HeadEntrySeqnum())
	assert.Equal(t, uint64(2), hdr.TailEntrySeqnum())
	topHead := hdr.EntryArrayOffset()
	hg.Release()

	offsets, err := CollectOffsets(jf, topHead)
	require.NoError(t, err)
	assert.Equal(t, []uint64{off1, off2}, offsets)
}

func TestInternDataObjectDedupesIdenticalPayload(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	off1, hash1, err := w.internDataObject([]byte("PRIORITY=6"))
	require.NoError(t, err)

	off2, hash2, err := w.internDataObject([]byte("PRIORITY=6"))
	require.NoError(t, err)

	assert.Equal(t, off1, off2)
	assert.Equal(t, hash1, hash2)
}

func TestInternDataObjectSharesFieldAcrossValues(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	dataOff1, _, err := w.internDataObject([]byte("PRIORITY=6"))
	require.NoError(t, err)
	dataOff2, _, err := w.internDataObject([]byte("PRIORITY=7"))
	require.NoError(t, err)
	assert.NotEqual(t, dataOff1, dataOff2)

	hg, err := jf.Header()
	require.NoError(t, err)
	hdr := hg.Value()
	fieldHTOff := int64(hdr.FieldHashTableOffset())
	fieldHTSize := int(hdr.FieldHashTableSize())
	fileID := hdr.FileID()
	keyed := hdr.IsKeyedHash()
	hg.Release()

	fieldHash := Hash([]byte("PRIORITY"), fileID, keyed)
	fieldOffset, err := LookupFieldOffset(jf, fieldHTOff, fieldHTSize, fieldHash, []byte("PRIORITY"))
	require.NoError(t, err)
	require.NotZero(t, fieldOffset)

	fg, err := jf.FieldObjectAt(int64(fieldOffset))
	require.NoError(t, err)
	f := fg.Value()
	head := f.HeadDataOffset()
	tail := f.TailDataOffset()
	fg.Release()

	assert.Equal(t, dataOff1, head)
	assert.Equal(t, dataOff2, tail)
}

// TestHashTableCollisionChaining grounds spec.md §8's S4 scenario: two
// distinct Data objects landing in the same bucket must both be
// discoverable by exact (hash, payload) match, and removing neither from
// the chain affects the other's lookup.
func TestHashTableCollisionChaining(t *testing.T) {
	jf := newTestFile(t, false, true)
	w := NewWriter(jf)

	hg, err := jf.Header()
	require.NoError(t, err)
	hdr := hg.Value()
	dataHTOff := int64(hdr.DataHashTableOffset())
	dataHTSize := int(hdr.DataHashTableSize())
	hg.Release()

	htg, err := jf.HashTableAt(dataHTOff, dataHTSize)
	require.NoError(t, err)
	buckets := uint64(htg.Value().N())
	htg.Release()

	payloadA := []byte("SERVICE=alpha")
	payloadB := []byte("SERVICE=beta")

	hashA := uint64(42)
	hashB := hashA + buckets // same bucket (hash % buckets equal), distinct hash value

	offA, err := w.allocateData(payloadA, hashA)
	require.NoError(t, err)
	offB, err := w.allocateData(payloadB, hashB)
	require.NoError(t, err)

	require.NoError(t, InsertDataBucket(jf, dataHTOff, dataHTSize, hashA, offA))
	require.NoError(t, InsertDataBucket(jf, dataHTOff, dataHTSize, hashB, offB))

	gotA, err := LookupDataOffset(jf, dataHTOff, dataHTSize, hashA, payloadA)
	require.NoError(t, err)
	assert.Equal(t, offA, gotA)

	gotB, err := LookupDataOffset(jf, dataHTOff, dataHTSize, hashB, payloadB)
	require.NoError(t, err)
	assert.Equal(t, offB, gotB)

	// A payload that never existed, even with a colliding hash, must miss.
	miss, err := LookupDataOffset(jf, dataHTOff, dataHTSize, hashA, []byte("SERVICE=gamma"))
	require.NoError(t, err)
	assert.Zero(t, miss)
}
