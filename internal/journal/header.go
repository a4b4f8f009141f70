// Package journal implements the memory-mapped, windowed journal file
// engine described in spec.md §3-§4.6: the header and object container,
// the window manager, the zero-copy object codec, the on-file hash tables,
// the offset-array entry chains, and the append-only writer. Header and
// object layout are grounded in appgate-journaldreader's reverse-engineered
// reading of the real systemd journal format.
package journal

import "encoding/binary"

// Signature is the fixed 8-byte magic every journal file begins with.
var Signature = [8]byte{'L', 'P', 'K', 'S', 'H', 'H', 'R', 'H'}

// HeaderSize is the fixed byte length of the journal file header.
const HeaderSize = 208

// Incompatible header flags. A reader that doesn't understand a bit set
// here must refuse to open the file; this module only ever sets
// IncompatibleKeyedHash and IncompatibleCompact.
const (
	IncompatibleCompressedXZ   uint32 = 1 << 0
	IncompatibleCompressedLZ4  uint32 = 1 << 1
	IncompatibleKeyedHash      uint32 = 1 << 2
	IncompatibleCompressedZSTD uint32 = 1 << 3
	IncompatibleCompact        uint32 = 1 << 4
)

// Byte offsets of every header field, in declaration order. Fields are
// packed with no hidden padding; the 7-byte gap after the 1-byte state
// field is explicit, matching the real journal file header exactly.
const (
	offSignature             = 0
	offCompatibleFlags        = 8
	offIncompatibleFlags      = 12
	offState                  = 16
	offFileID                 = 24
	offMachineID              = 40
	offTailEntryBootID        = 56
	offSeqnumID               = 72
	offHeaderSize             = 88
	offArenaSize              = 96
	offDataHashTableOffset    = 104
	offDataHashTableSize      = 112
	offFieldHashTableOffset   = 120
	offFieldHashTableSize     = 128
	offTailObjectOffset       = 136
	offNObjects               = 144
	offNEntries               = 152
	offTailEntrySeqnum        = 160
	offHeadEntrySeqnum        = 168
	offEntryArrayOffset       = 176
	offHeadEntryRealtime      = 184
	offTailEntryRealtime      = 192
	offTailEntryMonotonic     = 200
)

// State byte values.
const (
	StateOffline uint8 = 0
	StateOnline  uint8 = 1
	StateArchived uint8 = 2
)

// Header is a zero-copy view over a journal file's fixed-size header
// region. It never copies; every accessor reads directly out of buf, which
// must be exactly HeaderSize bytes (a single window-manager slice, since
// HeaderSize is always far smaller than the configured window size W).
type Header struct {
	buf []byte
}

// NewHeaderView wraps buf as a Header view. buf must be exactly HeaderSize
// bytes long.
func NewHeaderView(buf []byte) (*Header, error) {
	if len(buf) != HeaderSize {
		return nil, newZerocopyFailure(0, "header slice length != HeaderSize")
	}
	return &Header{buf: buf}, nil
}

func (h *Header) u32(off int) uint32     { return binary.LittleEndian.Uint32(h.buf[off:]) }
func (h *Header) u64(off int) uint64     { return binary.LittleEndian.Uint64(h.buf[off:]) }
func (h *Header) putU32(off int, v uint32) { binary.LittleEndian.PutUint32(h.buf[off:], v) }
func (h *Header) putU64(off int, v uint64) { binary.LittleEndian.PutUint64(h.buf[off:], v) }
func (h *Header) id16(off int) [16]byte {
	var id [16]byte
	copy(id[:], h.buf[off:off+16])
	return id
}
func (h *Header) putID16(off int, id [16]byte) { copy(h.buf[off:off+16], id[:]) }

// ValidSignature reports whether the header begins with Signature.
func (h *Header) ValidSignature() bool {
	for i := 0; i < 8; i++ {
		if h.buf[i] != Signature[i] {
			return false
		}
	}
	return true
}

func (h *Header) CompatibleFlags() uint32     { return h.u32(offCompatibleFlags) }
func (h *Header) IncompatibleFlags() uint32   { return h.u32(offIncompatibleFlags) }
func (h *Header) State() uint8                { return h.buf[offState] }
func (h *Header) FileID() [16]byte            { return h.id16(offFileID) }
func (h *Header) MachineID() [16]byte         { return h.id16(offMachineID) }
func (h *Header) TailEntryBootID() [16]byte   { return h.id16(offTailEntryBootID) }
func (h *Header) SeqnumID() [16]byte          { return h.id16(offSeqnumID) }
func (h *Header) HeaderSize() uint64          { return h.u64(offHeaderSize) }
func (h *Header) ArenaSize() uint64           { return h.u64(offArenaSize) }
func (h *Header) DataHashTableOffset() uint64 { return h.u64(offDataHashTableOffset) }
func (h *Header) DataHashTableSize() uint64   { return h.u64(offDataHashTableSize) }
func (h *Header) FieldHashTableOffset() uint64 { return h.u64(offFieldHashTableOffset) }
func (h *Header) FieldHashTableSize() uint64   { return h.u64(offFieldHashTableSize) }
func (h *Header) TailObjectOffset() uint64    { return h.u64(offTailObjectOffset) }
func (h *Header) NObjects() uint64            { return h.u64(offNObjects) }
func (h *Header) NEntries() uint64            { return h.u64(offNEntries) }
func (h *Header) TailEntrySeqnum() uint64     { return h.u64(offTailEntrySeqnum) }
func (h *Header) HeadEntrySeqnum() uint64     { return h.u64(offHeadEntrySeqnum) }
func (h *Header) EntryArrayOffset() uint64    { return h.u64(offEntryArrayOffset) }
func (h *Header) HeadEntryRealtime() uint64   { return h.u64(offHeadEntryRealtime) }
func (h *Header) TailEntryRealtime() uint64   { return h.u64(offTailEntryRealtime) }
func (h *Header) TailEntryMonotonic() uint64  { return h.u64(offTailEntryMonotonic) }

func (h *Header) IsKeyedHash() bool { return h.IncompatibleFlags()&IncompatibleKeyedHash != 0 }
func (h *Header) IsCompact() bool   { return h.IncompatibleFlags()&IncompatibleCompact != 0 }

// Mutators. Only the writer calls these, always on an exclusively-borrowed
// header window.

func (h *Header) SetSignature()                     { copy(h.buf[0:8], Signature[:]) }
func (h *Header) SetCompatibleFlags(v uint32)        { h.putU32(offCompatibleFlags, v) }
func (h *Header) SetIncompatibleFlags(v uint32)      { h.putU32(offIncompatibleFlags, v) }
func (h *Header) SetState(v uint8)                   { h.buf[offState] = v }
func (h *Header) SetFileID(id [16]byte)              { h.putID16(offFileID, id) }
func (h *Header) SetMachineID(id [16]byte)           { h.putID16(offMachineID, id) }
func (h *Header) SetTailEntryBootID(id [16]byte)     { h.putID16(offTailEntryBootID, id) }
func (h *Header) SetSeqnumID(id [16]byte)            { h.putID16(offSeqnumID, id) }
func (h *Header) SetHeaderSize(v uint64)             { h.putU64(offHeaderSize, v) }
func (h *Header) SetArenaSize(v uint64)              { h.putU64(offArenaSize, v) }
func (h *Header) SetDataHashTableOffset(v uint64)    { h.putU64(offDataHashTableOffset, v) }
func (h *Header) SetDataHashTableSize(v uint64)      { h.putU64(offDataHashTableSize, v) }
func (h *Header) SetFieldHashTableOffset(v uint64)   { h.putU64(offFieldHashTableOffset, v) }
func (h *Header) SetFieldHashTableSize(v uint64)     { h.putU64(offFieldHashTableSize, v) }
func (h *Header) SetTailObjectOffset(v uint64)       { h.putU64(offTailObjectOffset, v) }
func (h *Header) SetNObjects(v uint64)               { h.putU64(offNObjects, v) }
func (h *Header) SetNEntries(v uint64)               { h.putU64(offNEntries, v) }
func (h *Header) SetTailEntrySeqnum(v uint64)        { h.putU64(offTailEntrySeqnum, v) }
func (h *Header) SetHeadEntrySeqnum(v uint64)        { h.putU64(offHeadEntrySeqnum, v) }
func (h *Header) SetEntryArrayOffset(v uint64)       { h.putU64(offEntryArrayOffset, v) }
func (h *Header) SetHeadEntryRealtime(v uint64)      { h.putU64(offHeadEntryRealtime, v) }
func (h *Header) SetTailEntryRealtime(v uint64)      { h.putU64(offTailEntryRealtime, v) }
func (h *Header) SetTailEntryMonotonic(v uint64)     { h.putU64(offTailEntryMonotonic, v) }
