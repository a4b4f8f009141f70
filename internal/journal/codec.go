package journal

import "encoding/binary"

// This file implements spec.md §4.2: zero-copy, validated views over the
// byte bodies that follow an ObjectHeader, in both the regular (u64
// offsets) and compact (u32 offsets, spec.md §9 "dual regular/compact
// encodings") encodings. Every constructor here validates geometry before
// returning a view and fails closed (returns an error, never a
// partially-valid view) exactly as spec.md §4.2 requires.

// offsetWidth returns the byte width of an on-disk offset field: 8 in
// regular mode, 4 in compact mode.
func offsetWidth(compact bool) int {
	if compact {
		return 4
	}
	return 8
}

func readOffset(buf []byte, off int, compact bool) uint64 {
	if compact {
		return uint64(binary.LittleEndian.Uint32(buf[off:]))
	}
	return binary.LittleEndian.Uint64(buf[off:])
}

func writeOffset(buf []byte, off int, compact bool, v uint64) {
	if compact {
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(buf[off:], v)
}

// ---------------------------------------------------------------------
// Data object
// ---------------------------------------------------------------------

// Data object fixed-field byte offsets, relative to the object body (i.e.
// after ObjectHeaderSize).
const (
	dataOffHash = 0 // always u64, 8 bytes regardless of encoding
)

// DataObjectView is a zero-copy view over a Data object: hash, next-hash
// chain pointer, next-field chain pointer, this data's entry-array chain
// (head/tail + count), and the FIELD=value payload bytes.
type DataObjectView struct {
	buf        []byte
	compact    bool
	offW       int
	compressed bool
	// fixedSize is the byte length of the fixed-field region, after which
	// the payload begins.
	fixedSize int
}

// NewDataObjectView validates and wraps buf, the full object body (object
// header already stripped) for a Data object. compact selects offset width; compressed
// carries this object's header-level OBJECT_COMPRESSED_* state (spec.md
// §4.8 step 3: a compressed payload must be skipped, not indexed as text).
func NewDataObjectView(offset int64, buf []byte, compact bool, compressed bool) (*DataObjectView, error) {
	offW := offsetWidth(compact)
	fixedSize := 8 + 4*offW // hash + next_hash + next_field + entry_head + entry_tail
	if compact {
		fixedSize += 4 // n_entries as u32 in compact mode
	} else {
		fixedSize += 8 // n_entries as u64 in regular mode
	}
	if len(buf) < fixedSize {
		return nil, newZerocopyFailure(offset, "data object body shorter than fixed-field region")
	}
	return &DataObjectView{buf: buf, compact: compact, offW: offW, fixedSize: fixedSize, compressed: compressed}, nil
}

// Compressed reports whether this Data object's payload is compressed
// (OBJECT_COMPRESSED_XZ/LZ4/ZSTD set on its object header). Payload()
// still returns the raw on-disk bytes; callers that can't decompress must
// skip rather than treat them as literal FIELD=value text.
func (d *DataObjectView) Compressed() bool { return d.compressed }

func (d *DataObjectView) nextHashOff() int  { return dataOffHash + 8 }
func (d *DataObjectView) nextFieldOff() int { return d.nextHashOff() + d.offW }
func (d *DataObjectView) entryHeadOff() int { return d.nextFieldOff() + d.offW }
func (d *DataObjectView) entryTailOff() int { return d.entryHeadOff() + d.offW }
func (d *DataObjectView) nEntriesOff() int  { return d.entryTailOff() + d.offW }

func (d *DataObjectView) Hash() uint64            { return binary.LittleEndian.Uint64(d.buf[dataOffHash:]) }
func (d *DataObjectView) NextHashOffset() uint64   { return readOffset(d.buf, d.nextHashOff(), d.compact) }
func (d *DataObjectView) NextFieldOffset() uint64  { return readOffset(d.buf, d.nextFieldOff(), d.compact) }
func (d *DataObjectView) EntryArrayHead() uint64    { return readOffset(d.buf, d.entryHeadOff(), d.compact) }
func (d *DataObjectView) EntryArrayTail() uint64    { return readOffset(d.buf, d.entryTailOff(), d.compact) }

func (d *DataObjectView) NEntries() uint64 {
	if d.compact {
		return uint64(binary.LittleEndian.Uint32(d.buf[d.nEntriesOff():]))
	}
	return binary.LittleEndian.Uint64(d.buf[d.nEntriesOff():])
}

// Payload returns the FIELD=value bytes stored after the fixed fields.
func (d *DataObjectView) Payload() []byte { return d.buf[d.fixedSize:] }

func (d *DataObjectView) SetHash(h uint64) { binary.LittleEndian.PutUint64(d.buf[dataOffHash:], h) }
func (d *DataObjectView) SetNextHashOffset(v uint64)  { writeOffset(d.buf, d.nextHashOff(), d.compact, v) }
func (d *DataObjectView) SetNextFieldOffset(v uint64) { writeOffset(d.buf, d.nextFieldOff(), d.compact, v) }
func (d *DataObjectView) SetEntryArrayHead(v uint64)  { writeOffset(d.buf, d.entryHeadOff(), d.compact, v) }
func (d *DataObjectView) SetEntryArrayTail(v uint64)  { writeOffset(d.buf, d.entryTailOff(), d.compact, v) }
func (d *DataObjectView) SetNEntries(v uint64) {
	if d.compact {
		binary.LittleEndian.PutUint32(d.buf[d.nEntriesOff():], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(d.buf[d.nEntriesOff():], v)
}

// DataObjectSize returns the total on-disk size (header included) a Data
// object with the given payload length would occupy. The size is exact, not
// padded; the writer pads the arena to the next 8-byte boundary after it.
func DataObjectSize(payloadLen int, compact bool) uint64 {
	offW := offsetWidth(compact)
	fixed := 8 + 4*offW
	if compact {
		fixed += 4
	} else {
		fixed += 8
	}
	return uint64(ObjectHeaderSize + fixed + payloadLen)
}

// ---------------------------------------------------------------------
// Field object
// ---------------------------------------------------------------------

// FieldObjectView is a zero-copy view over a Field object: hash, next-hash
// chain pointer, the head/tail of its data-object list, and the field name
// payload (no "=").
type FieldObjectView struct {
	buf       []byte
	compact   bool
	offW      int
	fixedSize int
}

func NewFieldObjectView(offset int64, buf []byte, compact bool) (*FieldObjectView, error) {
	offW := offsetWidth(compact)
	fixedSize := 8 + 3*offW // hash + next_hash + head_data + tail_data
	if len(buf) < fixedSize {
		return nil, newZerocopyFailure(offset, "field object body shorter than fixed-field region")
	}
	return &FieldObjectView{buf: buf, compact: compact, offW: offW, fixedSize: fixedSize}, nil
}

func (f *FieldObjectView) nextHashOff() int { return 8 }
func (f *FieldObjectView) headDataOff() int { return f.nextHashOff() + f.offW }
func (f *FieldObjectView) tailDataOff() int { return f.headDataOff() + f.offW }

func (f *FieldObjectView) Hash() uint64           { return binary.LittleEndian.Uint64(f.buf[0:]) }
func (f *FieldObjectView) NextHashOffset() uint64 { return readOffset(f.buf, f.nextHashOff(), f.compact) }
func (f *FieldObjectView) HeadDataOffset() uint64 { return readOffset(f.buf, f.headDataOff(), f.compact) }
func (f *FieldObjectView) TailDataOffset() uint64 { return readOffset(f.buf, f.tailDataOff(), f.compact) }
func (f *FieldObjectView) Payload() []byte        { return f.buf[f.fixedSize:] }

func (f *FieldObjectView) SetHash(h uint64) { binary.LittleEndian.PutUint64(f.buf[0:], h) }
func (f *FieldObjectView) SetNextHashOffset(v uint64) { writeOffset(f.buf, f.nextHashOff(), f.compact, v) }
func (f *FieldObjectView) SetHeadDataOffset(v uint64) { writeOffset(f.buf, f.headDataOff(), f.compact, v) }
func (f *FieldObjectView) SetTailDataOffset(v uint64) { writeOffset(f.buf, f.tailDataOff(), f.compact, v) }

// FieldObjectSize returns the total on-disk size a Field object with the
// given name length would occupy (exact, not padded to 8).
func FieldObjectSize(nameLen int, compact bool) uint64 {
	offW := offsetWidth(compact)
	fixed := 8 + 3*offW
	return uint64(ObjectHeaderSize + fixed + nameLen)
}

// ---------------------------------------------------------------------
// Entry object
// ---------------------------------------------------------------------

// EntryItem is one (data_object_offset, hash) pair stored inline in an
// Entry object, identifying one field=value this entry carries.
type EntryItem struct {
	DataOffset uint64
	Hash       uint64
}

const entryFixedSize = 8 + 8 + 8 + 16 + 8 // realtime, monotonic, seqnum, boot_id, xor_hash

// EntryObjectView is a zero-copy view over an Entry object's fixed header
// fields and its inline item array.
type EntryObjectView struct {
	buf        []byte
	compact    bool
	itemStride int
}

func NewEntryObjectView(offset int64, buf []byte, compact bool) (*EntryObjectView, error) {
	if len(buf) < entryFixedSize {
		return nil, newZerocopyFailure(offset, "entry object body shorter than fixed-field region")
	}
	stride := 16
	if compact {
		stride = 12
	}
	tail := len(buf) - entryFixedSize
	if tail%stride != 0 {
		return nil, newZerocopyFailure(offset, "entry item tail does not divide evenly by item stride")
	}
	return &EntryObjectView{buf: buf, compact: compact, itemStride: stride}, nil
}

func (e *EntryObjectView) RealtimeUsec() uint64  { return binary.LittleEndian.Uint64(e.buf[0:]) }
func (e *EntryObjectView) MonotonicUsec() uint64 { return binary.LittleEndian.Uint64(e.buf[8:]) }
func (e *EntryObjectView) Seqnum() uint64        { return binary.LittleEndian.Uint64(e.buf[16:]) }
func (e *EntryObjectView) BootID() [16]byte {
	var id [16]byte
	copy(id[:], e.buf[24:40])
	return id
}
func (e *EntryObjectView) XorHash() uint64 { return binary.LittleEndian.Uint64(e.buf[40:]) }

func (e *EntryObjectView) SetRealtimeUsec(v uint64)  { binary.LittleEndian.PutUint64(e.buf[0:], v) }
func (e *EntryObjectView) SetMonotonicUsec(v uint64) { binary.LittleEndian.PutUint64(e.buf[8:], v) }
func (e *EntryObjectView) SetSeqnum(v uint64)        { binary.LittleEndian.PutUint64(e.buf[16:], v) }
func (e *EntryObjectView) SetBootID(id [16]byte)     { copy(e.buf[24:40], id[:]) }
func (e *EntryObjectView) SetXorHash(v uint64)        { binary.LittleEndian.PutUint64(e.buf[40:], v) }

// NumItems returns the number of field items carried inline.
func (e *EntryObjectView) NumItems() int {
	return (len(e.buf) - entryFixedSize) / e.itemStride
}

// Item returns the i'th item.
func (e *EntryObjectView) Item(i int) EntryItem {
	base := entryFixedSize + i*e.itemStride
	if e.compact {
		off := uint64(binary.LittleEndian.Uint32(e.buf[base:]))
		hash := binary.LittleEndian.Uint64(e.buf[base+4:])
		return EntryItem{DataOffset: off, Hash: hash}
	}
	off := binary.LittleEndian.Uint64(e.buf[base:])
	hash := binary.LittleEndian.Uint64(e.buf[base+8:])
	return EntryItem{DataOffset: off, Hash: hash}
}

// SetItem writes the i'th item.
func (e *EntryObjectView) SetItem(i int, item EntryItem) {
	base := entryFixedSize + i*e.itemStride
	if e.compact {
		binary.LittleEndian.PutUint32(e.buf[base:], uint32(item.DataOffset))
		binary.LittleEndian.PutUint64(e.buf[base+4:], item.Hash)
		return
	}
	binary.LittleEndian.PutUint64(e.buf[base:], item.DataOffset)
	binary.LittleEndian.PutUint64(e.buf[base+8:], item.Hash)
}

// EntryObjectSize returns the total on-disk size an Entry object carrying
// n items would occupy (exact, not padded to 8).
func EntryObjectSize(n int, compact bool) uint64 {
	stride := 16
	if compact {
		stride = 12
	}
	return uint64(ObjectHeaderSize + entryFixedSize + n*stride)
}

// ---------------------------------------------------------------------
// EntryArray object
// ---------------------------------------------------------------------

// EntryArrayView is a zero-copy view over an EntryArray object: a
// next-array chain pointer followed by an inline array of entry offsets.
type EntryArrayView struct {
	buf     []byte
	compact bool
	offW    int
}

func NewEntryArrayView(offset int64, buf []byte, compact bool) (*EntryArrayView, error) {
	offW := offsetWidth(compact)
	if len(buf) < offW {
		return nil, newZerocopyFailure(offset, "entry array body shorter than next-offset field")
	}
	tail := len(buf) - offW
	if tail%offW != 0 {
		return nil, newZerocopyFailure(offset, "entry array tail does not divide evenly by offset width")
	}
	return &EntryArrayView{buf: buf, compact: compact, offW: offW}, nil
}

func (a *EntryArrayView) NextOffset() uint64    { return readOffset(a.buf, 0, a.compact) }
func (a *EntryArrayView) SetNextOffset(v uint64) { writeOffset(a.buf, 0, a.compact, v) }

// Capacity returns how many entry offsets this array can hold.
func (a *EntryArrayView) Capacity() int {
	return (len(a.buf) - a.offW) / a.offW
}

func (a *EntryArrayView) Get(i int) uint64 {
	return readOffset(a.buf, a.offW+i*a.offW, a.compact)
}

func (a *EntryArrayView) Set(i int, v uint64) {
	writeOffset(a.buf, a.offW+i*a.offW, a.compact, v)
}

// EntryArraySize returns the total on-disk size of an EntryArray with
// capacity slots.
func EntryArraySize(capacity int, compact bool) uint64 {
	offW := offsetWidth(compact)
	return align8(uint64(ObjectHeaderSize + offW + capacity*offW))
}

// ---------------------------------------------------------------------
// Hash-table object
// ---------------------------------------------------------------------

// HashTableView is a zero-copy view over a DataHashTable or FieldHashTable
// object's body: N buckets of {head_hash_offset, tail_hash_offset}.
type HashTableView struct {
	buf     []byte
	compact bool
	offW    int
}

func NewHashTableView(offset int64, buf []byte, compact bool) (*HashTableView, error) {
	offW := offsetWidth(compact)
	bucketSize := 2 * offW
	if len(buf)%bucketSize != 0 {
		return nil, newZerocopyFailure(offset, "hash table body does not divide evenly by bucket size")
	}
	return &HashTableView{buf: buf, compact: compact, offW: offW}, nil
}

// N returns the bucket count.
func (h *HashTableView) N() int {
	return len(h.buf) / (2 * h.offW)
}

func (h *HashTableView) Head(bucket int) uint64 {
	return readOffset(h.buf, bucket*2*h.offW, h.compact)
}

func (h *HashTableView) Tail(bucket int) uint64 {
	return readOffset(h.buf, bucket*2*h.offW+h.offW, h.compact)
}

func (h *HashTableView) SetHead(bucket int, v uint64) {
	writeOffset(h.buf, bucket*2*h.offW, h.compact, v)
}

func (h *HashTableView) SetTail(bucket int, v uint64) {
	writeOffset(h.buf, bucket*2*h.offW+h.offW, h.compact, v)
}

// HashTableSize returns the total on-disk size of a hash table with n
// buckets.
func HashTableSize(n int, compact bool) uint64 {
	offW := offsetWidth(compact)
	return align8(uint64(ObjectHeaderSize + n*2*offW))
}

// ---------------------------------------------------------------------
// Tag object
// ---------------------------------------------------------------------

const tagBodySize = 8 + 8 + 32 // epoch, seqnum, 256-bit tag

// TagObjectView is a zero-copy view over an optional authenticated
// checkpoint object.
type TagObjectView struct {
	buf []byte
}

func NewTagObjectView(offset int64, buf []byte) (*TagObjectView, error) {
	if len(buf) != tagBodySize {
		return nil, newZerocopyFailure(offset, "tag object body length mismatch")
	}
	return &TagObjectView{buf: buf}, nil
}

func (t *TagObjectView) Epoch() uint64  { return binary.LittleEndian.Uint64(t.buf[0:]) }
func (t *TagObjectView) Seqnum() uint64 { return binary.LittleEndian.Uint64(t.buf[8:]) }
func (t *TagObjectView) Tag() [32]byte {
	var tag [32]byte
	copy(tag[:], t.buf[16:48])
	return tag
}
