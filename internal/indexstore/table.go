package indexstore

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/netdata/go-journalfile/internal/bitmap"
)

// Entry is one row of an OrderedTable: a literal "FIELD=value" byte key
// and the bitmap it resolves to.
type Entry struct {
	Key    []byte
	Bitmap *bitmap.Bitmap
}

// OrderedTable is the sorted byte-keyed table that stands in for an FST
// chunk (see package doc): entries sorted ascending by Key, looked up and
// prefix-scanned by binary search.
type OrderedTable struct {
	entries []Entry
}

// NewOrderedTable sorts entries by key and wraps them.
func NewOrderedTable(entries []Entry) *OrderedTable {
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].Key, entries[j].Key) < 0 })
	return &OrderedTable{entries: entries}
}

// Len reports how many entries the table holds.
func (t *OrderedTable) Len() int { return len(t.entries) }

// Lookup returns the bitmap for an exact key, or nil if absent.
func (t *OrderedTable) Lookup(key []byte) *bitmap.Bitmap {
	i := sort.Search(len(t.entries), func(i int) bool { return bytes.Compare(t.entries[i].Key, key) >= 0 })
	if i < len(t.entries) && bytes.Equal(t.entries[i].Key, key) {
		return t.entries[i].Bitmap
	}
	return nil
}

// PrefixScan returns every entry whose key starts with prefix, in key
// order — spec.md §4.9's "prefix queries on hc fields enumerate only that
// chunk" (the chunk boundary is enforced by the caller choosing which
// table to scan, not by this method).
func (t *OrderedTable) PrefixScan(prefix []byte) []Entry {
	i := sort.Search(len(t.entries), func(i int) bool { return bytes.Compare(t.entries[i].Key, prefix) >= 0 })
	var out []Entry
	for ; i < len(t.entries) && bytes.HasPrefix(t.entries[i].Key, prefix); i++ {
		out = append(out, t.entries[i])
	}
	return out
}

// All returns every entry in key order.
func (t *OrderedTable) All() []Entry { return t.entries }

// Encode serializes the table as a count followed by repeated
// [keyLen u32][key][bitmapLen u32][bitmap wire bytes] records.
func (t *OrderedTable) Encode() []byte {
	var buf bytes.Buffer
	var lenBuf [4]byte

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(t.entries)))
	buf.Write(lenBuf[:])

	for _, e := range t.entries {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.Key)))
		buf.Write(lenBuf[:])
		buf.Write(e.Key)

		bmBytes := bitmap.EncodeBitmap(e.Bitmap)
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(bmBytes)))
		buf.Write(lenBuf[:])
		buf.Write(bmBytes)
	}

	return buf.Bytes()
}

// DecodeOrderedTable parses the format Encode produces. Entries are
// already in key order on disk, so no re-sort is needed.
func DecodeOrderedTable(data []byte) (*OrderedTable, error) {
	r := bytes.NewReader(data)
	var lenBuf [4]byte

	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, wrapShort(err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	entries := make([]Entry, n)

	for i := range entries {
		if _, err := r.Read(lenBuf[:]); err != nil {
			return nil, wrapShort(err)
		}
		keyLen := binary.LittleEndian.Uint32(lenBuf[:])
		key := make([]byte, keyLen)
		if keyLen > 0 {
			if _, err := r.Read(key); err != nil {
				return nil, wrapShort(err)
			}
		}

		if _, err := r.Read(lenBuf[:]); err != nil {
			return nil, wrapShort(err)
		}
		bmLen := binary.LittleEndian.Uint32(lenBuf[:])
		bmBytes := make([]byte, bmLen)
		if bmLen > 0 {
			if _, err := r.Read(bmBytes); err != nil {
				return nil, wrapShort(err)
			}
		}

		bm, err := bitmap.DecodeBitmap(bmBytes)
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{Key: key, Bitmap: bm}
	}

	return &OrderedTable{entries: entries}, nil
}
