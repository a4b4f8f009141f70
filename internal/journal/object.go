package journal

import (
	"encoding/binary"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// ObjectType identifies the kind of object an ObjectHeader precedes, per
// spec.md §4.2.
type ObjectType uint8

const (
	ObjectUnused        ObjectType = 0
	ObjectData          ObjectType = 1
	ObjectField         ObjectType = 2
	ObjectEntry         ObjectType = 3
	ObjectDataHashTable ObjectType = 4
	ObjectFieldHashTable ObjectType = 5
	ObjectEntryArray    ObjectType = 6
	ObjectTag           ObjectType = 7
)

func (t ObjectType) String() string {
	switch t {
	case ObjectUnused:
		return "UNUSED"
	case ObjectData:
		return "DATA"
	case ObjectField:
		return "FIELD"
	case ObjectEntry:
		return "ENTRY"
	case ObjectDataHashTable:
		return "DATA_HASH_TABLE"
	case ObjectFieldHashTable:
		return "FIELD_HASH_TABLE"
	case ObjectEntryArray:
		return "ENTRY_ARRAY"
	case ObjectTag:
		return "TAG"
	default:
		return "UNKNOWN"
	}
}

// ObjectHeaderSize is the fixed byte length of the header every object
// (Data, Field, Entry, EntryArray, HashTable, Tag) begins with.
const ObjectHeaderSize = 16

// Object header byte offsets, relative to the object's own start offset.
const (
	objOffType  = 0
	objOffFlags = 1
	// bytes 2-7 reserved/padding
	objOffSize = 8
)

// ObjectHeader is a zero-copy view over the 16-byte header that precedes
// every object in the arena: a 1-byte type, a 1-byte flags field, 6 bytes
// of reserved padding, and an 8-byte little-endian total object size
// (header included).
type ObjectHeader struct {
	buf []byte
}

// NewObjectHeaderView wraps buf as an ObjectHeader view. buf must be at
// least ObjectHeaderSize bytes; only the first ObjectHeaderSize bytes are
// read.
func NewObjectHeaderView(buf []byte) (*ObjectHeader, error) {
	if len(buf) < ObjectHeaderSize {
		return nil, newZerocopyFailure(0, "object header slice shorter than ObjectHeaderSize")
	}
	return &ObjectHeader{buf: buf[:ObjectHeaderSize]}, nil
}

func (o *ObjectHeader) Type() ObjectType { return ObjectType(o.buf[objOffType]) }
func (o *ObjectHeader) Flags() uint8     { return o.buf[objOffFlags] }
func (o *ObjectHeader) Size() uint64     { return binary.LittleEndian.Uint64(o.buf[objOffSize:]) }

// Per-object flags, set on Data object headers only. Mirrors the real
// journal format's OBJECT_COMPRESSED_* bits: when one is set, Payload()
// holds compressed bytes rather than literal FIELD=value text.
const (
	ObjectCompressedXZ   uint8 = 1 << 0
	ObjectCompressedLZ4  uint8 = 1 << 1
	ObjectCompressedZSTD uint8 = 1 << 2
)

// IsCompressed reports whether any OBJECT_COMPRESSED_* bit is set.
func (o *ObjectHeader) IsCompressed() bool {
	return o.Flags()&(ObjectCompressedXZ|ObjectCompressedLZ4|ObjectCompressedZSTD) != 0
}

func (o *ObjectHeader) SetType(t ObjectType)    { o.buf[objOffType] = byte(t) }
func (o *ObjectHeader) SetFlags(f uint8)        { o.buf[objOffFlags] = f }
func (o *ObjectHeader) SetSize(size uint64)     { binary.LittleEndian.PutUint64(o.buf[objOffSize:], size) }

// CheckType validates that this header's type matches want, returning a
// JournalError carrying both the expected and actual type names otherwise.
func (o *ObjectHeader) CheckType(offset int64, want ObjectType) error {
	got := o.Type()
	if got != want {
		return journalerrors.NewInvalidObjectTypeError(offset, want.String(), got.String())
	}
	return nil
}

// newZerocopyFailure builds the JournalError every codec view returns when
// a raw slice's length or alignment doesn't match the geometry its object
// type requires.
func newZerocopyFailure(offset int64, reason string) error {
	return journalerrors.NewZerocopyFailureError(offset, reason)
}

// align8 rounds n up to the next multiple of 8. Objects start at 8-byte
// aligned offsets; an object's Size() records its exact length, and the
// writer pads the arena after it with align8.
func align8(n uint64) uint64 {
	return (n + 7) &^ 7
}
