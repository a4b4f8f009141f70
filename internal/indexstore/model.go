// Package indexstore implements spec.md §4.9's FST lookup routing and
// §6's split index container wire format: a directory-prefixed sequence
// of independently zstd-compressed chunks — a metadata chunk, a primary
// ordered table for low-cardinality FIELD=value pairs, and one ordered
// chunk per high-cardinality field.
//
// The pack carries no FST library (blevesearch/vellum and friends do not
// appear anywhere in the retrieved examples), so each chunk's table is a
// sorted byte-keyed slice addressed by binary search — the same shape
// rpcpool-yellowstone-faithful's store/index package uses for its
// on-disk key→offset table, adapted here to map FIELD=value byte keys to
// serialized tree8 bitmaps instead of file offsets.
package indexstore

import (
	"bytes"
	"encoding/binary"
	"sort"
	"time"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// Metadata is the deterministic, length-prefixed serialization of
// everything a FileIndex carries outside its bitmap catalog (spec.md §3's
// FileIndex minus `bitmaps`).
type Metadata struct {
	FileID         [16]byte
	IndexedAtUnix  int64
	WasOnline      bool
	StartSecond    int64
	BucketSeconds  int64
	Counts         []uint32
	EntryOffsets   []uint32
	Fields         []string
	IndexedFields  []string
	// HCFieldOrder lists high-cardinality field names in the order their
	// chunks appear after the primary chunk in the container.
	HCFieldOrder []string
}

// IndexedAt returns the indexing timestamp as a time.Time.
func (m *Metadata) IndexedAt() time.Time {
	return time.Unix(0, m.IndexedAtUnix).UTC()
}

func putString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func putStrings(buf *bytes.Buffer, ss []string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(ss)))
	buf.Write(lenBuf[:])
	for _, s := range ss {
		putString(buf, s)
	}
}

func putUint32s(buf *bytes.Buffer, vs []uint32) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(vs)))
	buf.Write(lenBuf[:])
	for _, v := range vs {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
}

// Encode serializes the metadata deterministically: field ordering is
// fixed by struct layout and the Fields/IndexedFields/HCFieldOrder slices
// are always written in the (sorted) order they were set in, so equal
// metadata always produces byte-identical output.
func (m *Metadata) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(m.FileID[:])

	var i64 [8]byte
	binary.LittleEndian.PutUint64(i64[:], uint64(m.IndexedAtUnix))
	buf.Write(i64[:])

	if m.WasOnline {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	binary.LittleEndian.PutUint64(i64[:], uint64(m.StartSecond))
	buf.Write(i64[:])
	binary.LittleEndian.PutUint64(i64[:], uint64(m.BucketSeconds))
	buf.Write(i64[:])

	putUint32s(&buf, m.Counts)
	putUint32s(&buf, m.EntryOffsets)
	putStrings(&buf, m.Fields)
	putStrings(&buf, m.IndexedFields)
	putStrings(&buf, m.HCFieldOrder)

	return buf.Bytes()
}

func getString(r *bytes.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return "", wrapShort(err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", wrapShort(err)
		}
	}
	return string(b), nil
}

func getStrings(r *bytes.Reader) ([]string, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, wrapShort(err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	out := make([]string, n)
	for i := range out {
		s, err := getString(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func getUint32s(r *bytes.Reader) ([]uint32, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, wrapShort(err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	out := make([]uint32, n)
	var b [4]byte
	for i := range out {
		if _, err := r.Read(b[:]); err != nil {
			return nil, wrapShort(err)
		}
		out[i] = binary.LittleEndian.Uint32(b[:])
	}
	return out, nil
}

func wrapShort(err error) error {
	return journalerrors.NewBaseError(err, journalerrors.ErrorCodeZerocopyFailure, "index metadata buffer truncated")
}

// DecodeMetadata parses the format Encode produces.
func DecodeMetadata(data []byte) (*Metadata, error) {
	r := bytes.NewReader(data)
	m := &Metadata{}

	if _, err := r.Read(m.FileID[:]); err != nil {
		return nil, wrapShort(err)
	}

	var i64 [8]byte
	if _, err := r.Read(i64[:]); err != nil {
		return nil, wrapShort(err)
	}
	m.IndexedAtUnix = int64(binary.LittleEndian.Uint64(i64[:]))

	wasOnline, err := r.ReadByte()
	if err != nil {
		return nil, wrapShort(err)
	}
	m.WasOnline = wasOnline != 0

	if _, err := r.Read(i64[:]); err != nil {
		return nil, wrapShort(err)
	}
	m.StartSecond = int64(binary.LittleEndian.Uint64(i64[:]))

	if _, err := r.Read(i64[:]); err != nil {
		return nil, wrapShort(err)
	}
	m.BucketSeconds = int64(binary.LittleEndian.Uint64(i64[:]))

	if m.Counts, err = getUint32s(r); err != nil {
		return nil, err
	}
	if m.EntryOffsets, err = getUint32s(r); err != nil {
		return nil, err
	}
	if m.Fields, err = getStrings(r); err != nil {
		return nil, err
	}
	if m.IndexedFields, err = getStrings(r); err != nil {
		return nil, err
	}
	if m.HCFieldOrder, err = getStrings(r); err != nil {
		return nil, err
	}

	return m, nil
}

// sortedKeys returns the keys of a string set in ascending order, the
// deterministic form every set-valued FileIndex field is stored in.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
