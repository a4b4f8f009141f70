package journal

import (
	"bytes"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// Writer implements spec.md §4.6: append-only allocation of Data, Field,
// and Entry objects, hash-table insertion, and entry-array chain
// maintenance. A Writer holds exclusive access to its JournalFile; per
// spec.md §5 there is no internal lock beyond the ValueGuard borrow flag,
// so callers must serialize their own access to one Writer.
type Writer struct {
	jf      *JournalFile
	seqnum  uint64
	topTail uint64 // tail EntryArray offset of the top-level entry chain; 0 until resolved
	resolved bool
}

// NewWriter wraps jf, which must have been opened or created writable.
func NewWriter(jf *JournalFile) *Writer {
	return &Writer{jf: jf}
}

// topChainTail returns the current tail EntryArray offset of the journal's
// top-level entry chain, resolving it once per Writer lifetime by walking
// from the header's recorded head (the header only stores the chain head,
// per spec.md §3).
func (w *Writer) topChainTail(head uint64) (uint64, error) {
	if w.resolved {
		return w.topTail, nil
	}
	tail := uint64(0)
	offset := head
	for offset != 0 {
		ag, err := w.jf.EntryArrayAt(int64(offset))
		if err != nil {
			return 0, err
		}
		tail = offset
		next := ag.Value().NextOffset()
		ag.Release()
		offset = next
	}
	w.topTail = tail
	w.resolved = true
	return tail, nil
}

// initialArrayCapacity is the entry count of the first EntryArray
// allocated for any chain; subsequent arrays double this, implementing
// spec.md §4.5's "capacities grow geometrically."
const initialArrayCapacity = 4

// allocate reserves size bytes, padded up to a multiple of 8, at the
// current tail_object_offset, writes an object header of type typ there
// carrying the exact (unpadded) size, and advances the header's tail and
// object-count counters past the padded length so the next object starts
// 8-byte aligned. Returns the offset of the newly allocated object.
func (w *Writer) allocate(typ ObjectType, size uint64) (uint64, error) {
	hg, err := w.jf.HeaderMut()
	if err != nil {
		return 0, err
	}
	hdr := hg.Value()
	aligned := align8(size)
	offset := hdr.TailObjectOffset()
	hdr.SetTailObjectOffset(offset + aligned)
	hdr.SetNObjects(hdr.NObjects() + 1)
	hdr.SetArenaSize(hdr.ArenaSize() + aligned)
	hg.Release()

	buf, err := w.jf.wm.GetSliceMut(int64(offset), int(aligned))
	if err != nil {
		return 0, journalerrors.NewNoSpaceError("allocate object")
	}
	oh, err := NewObjectHeaderView(buf)
	if err != nil {
		return 0, err
	}
	oh.SetType(typ)
	oh.SetSize(size)
	return offset, nil
}

// appendToChain appends entryOffset to the chain whose current head/tail
// array offsets are (head, tail), allocating a fresh tail array (doubling
// capacity) when the existing tail is full or the chain is empty. Returns
// the possibly-unchanged (head, tail) pair for the caller to persist.
func (w *Writer) appendToChain(head, tail uint64, entryOffset uint64) (uint64, uint64, error) {
	if tail != 0 {
		ag, err := w.jf.EntryArrayAtMut(int64(tail))
		if err != nil {
			return 0, 0, err
		}
		a := ag.Value()
		cap := a.Capacity()
		for i := 0; i < cap; i++ {
			if a.Get(i) == 0 {
				a.Set(i, entryOffset)
				ag.Release()
				return head, tail, nil
			}
		}
		ag.Release()
	}

	capacity := initialArrayCapacity
	if tail != 0 {
		tg, err := w.jf.EntryArrayAt(int64(tail))
		if err != nil {
			return 0, 0, err
		}
		capacity = tg.Value().Capacity() * 2
		tg.Release()
	}

	size := EntryArraySize(capacity, w.jf.compact)
	newOffset, err := w.allocate(ObjectEntryArray, size)
	if err != nil {
		return 0, 0, err
	}

	ag, err := w.jf.EntryArrayAtMut(int64(newOffset))
	if err != nil {
		return 0, 0, err
	}
	a := ag.Value()
	a.SetNextOffset(0)
	a.Set(0, entryOffset)
	ag.Release()

	if tail != 0 {
		tg, err := w.jf.EntryArrayAtMut(int64(tail))
		if err != nil {
			return 0, 0, err
		}
		tg.Value().SetNextOffset(newOffset)
		tg.Release()
	}

	newHead := head
	if newHead == 0 {
		newHead = newOffset
	}
	return newHead, newOffset, nil
}

// internDataObject returns the offset of the Data object for payload
// (a full "FIELD=value" byte slice), allocating and hash-table-inserting
// it (and, if needed, its owning Field object) when it does not already
// exist. This is spec.md §4.6 step 1.
func (w *Writer) internDataObject(payload []byte) (offset uint64, hash uint64, err error) {
	hg, err := w.jf.Header()
	if err != nil {
		return 0, 0, err
	}
	hdr := hg.Value()
	fileID := hdr.FileID()
	keyed := hdr.IsKeyedHash()
	dataHTOff := int64(hdr.DataHashTableOffset())
	dataHTSize := int(hdr.DataHashTableSize())
	fieldHTOff := int64(hdr.FieldHashTableOffset())
	fieldHTSize := int(hdr.FieldHashTableSize())
	hg.Release()

	hash = Hash(payload, fileID, keyed)

	existing, err := LookupDataOffset(w.jf, dataHTOff, dataHTSize, hash, payload)
	if err != nil {
		return 0, 0, err
	}
	if existing != 0 {
		return existing, hash, nil
	}

	name, _, ok := splitFieldValue(payload)
	if !ok {
		return 0, 0, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeInvalidInput, "field payload missing '=' separator")
	}
	fieldHash := Hash(name, fileID, keyed)
	fieldOffset, err := LookupFieldOffset(w.jf, fieldHTOff, fieldHTSize, fieldHash, name)
	if err != nil {
		return 0, 0, err
	}
	if fieldOffset == 0 {
		fieldOffset, err = w.allocateField(name, fieldHash)
		if err != nil {
			return 0, 0, err
		}
		if err := InsertFieldBucket(w.jf, fieldHTOff, fieldHTSize, fieldHash, fieldOffset); err != nil {
			return 0, 0, err
		}
	}

	dataOffset, err := w.allocateData(payload, hash)
	if err != nil {
		return 0, 0, err
	}

	fg, err := w.jf.FieldObjectAtMut(int64(fieldOffset))
	if err != nil {
		return 0, 0, err
	}
	f := fg.Value()
	if f.HeadDataOffset() == 0 {
		f.SetHeadDataOffset(dataOffset)
	}
	tailData := f.TailDataOffset()
	f.SetTailDataOffset(dataOffset)
	fg.Release()

	if tailData != 0 {
		tdg, err := w.jf.DataObjectAtMut(int64(tailData))
		if err != nil {
			return 0, 0, err
		}
		tdg.Value().SetNextFieldOffset(dataOffset)
		tdg.Release()
	}

	if err := InsertDataBucket(w.jf, dataHTOff, dataHTSize, hash, dataOffset); err != nil {
		return 0, 0, err
	}

	return dataOffset, hash, nil
}

func (w *Writer) allocateData(payload []byte, hash uint64) (uint64, error) {
	size := DataObjectSize(len(payload), w.jf.compact)
	offset, err := w.allocate(ObjectData, size)
	if err != nil {
		return 0, err
	}
	dg, err := w.jf.DataObjectAtMut(int64(offset))
	if err != nil {
		return 0, err
	}
	d := dg.Value()
	d.SetHash(hash)
	copy(d.Payload(), payload)
	dg.Release()
	return offset, nil
}

func (w *Writer) allocateField(name []byte, hash uint64) (uint64, error) {
	size := FieldObjectSize(len(name), w.jf.compact)
	offset, err := w.allocate(ObjectField, size)
	if err != nil {
		return 0, err
	}
	fg, err := w.jf.FieldObjectAtMut(int64(offset))
	if err != nil {
		return 0, err
	}
	f := fg.Value()
	f.SetHash(hash)
	copy(f.Payload(), name)
	fg.Release()
	return offset, nil
}

// AddEntry appends one Entry object carrying fields (each "NAME=value")
// at the given timestamps, interning every field's Data/Field objects as
// needed, and returns the new entry's offset. This is spec.md §4.6 in
// full.
func (w *Writer) AddEntry(fields [][]byte, realtimeUsec, monotonicUsec uint64) (uint64, error) {
	items := make([]EntryItem, 0, len(fields))
	dataOffsets := make([]uint64, 0, len(fields))
	var xorHash uint64

	for _, field := range fields {
		dataOffset, hash, err := w.internDataObject(field)
		if err != nil {
			return 0, err
		}
		items = append(items, EntryItem{DataOffset: dataOffset, Hash: hash})
		dataOffsets = append(dataOffsets, dataOffset)
		xorHash ^= hash
	}

	hg, err := w.jf.Header()
	if err != nil {
		return 0, err
	}
	hdr := hg.Value()
	bootID := hdr.TailEntryBootID()
	w.seqnum = hdr.TailEntrySeqnum() + 1
	topHead := hdr.EntryArrayOffset()
	hg.Release()

	topTail, err := w.topChainTail(topHead)
	if err != nil {
		return 0, err
	}

	size := EntryObjectSize(len(items), w.jf.compact)
	entryOffset, err := w.allocate(ObjectEntry, size)
	if err != nil {
		return 0, err
	}

	egm, err := w.jf.EntryObjectAtMut(int64(entryOffset))
	if err != nil {
		return 0, err
	}
	e := egm.Value()
	e.SetRealtimeUsec(realtimeUsec)
	e.SetMonotonicUsec(monotonicUsec)
	e.SetSeqnum(w.seqnum)
	e.SetBootID(bootID)
	e.SetXorHash(xorHash)
	for i, item := range items {
		e.SetItem(i, item)
	}
	egm.Release()

	for _, dataOffset := range dataOffsets {
		dg, err := w.jf.DataObjectAtMut(int64(dataOffset))
		if err != nil {
			return 0, err
		}
		d := dg.Value()
		head := d.EntryArrayHead()
		tail := d.EntryArrayTail()
		dg.Release()

		newHead, newTail, err := w.appendToChain(head, tail, entryOffset)
		if err != nil {
			return 0, err
		}

		dg2, err := w.jf.DataObjectAtMut(int64(dataOffset))
		if err != nil {
			return 0, err
		}
		d2 := dg2.Value()
		d2.SetEntryArrayHead(newHead)
		d2.SetEntryArrayTail(newTail)
		d2.SetNEntries(d2.NEntries() + 1)
		dg2.Release()
	}

	newTopHead, newTopTail, err := w.appendToChain(topHead, topTail, entryOffset)
	if err != nil {
		return 0, err
	}
	w.topTail = newTopTail

	hg3, err := w.jf.HeaderMut()
	if err != nil {
		return 0, err
	}
	hdr3 := hg3.Value()
	if hdr3.EntryArrayOffset() == 0 {
		hdr3.SetEntryArrayOffset(newTopHead)
	}
	hdr3.SetNEntries(hdr3.NEntries() + 1)
	hdr3.SetTailEntrySeqnum(w.seqnum)
	if hdr3.HeadEntrySeqnum() == 0 {
		hdr3.SetHeadEntrySeqnum(w.seqnum)
	}
	if hdr3.HeadEntryRealtime() == 0 {
		hdr3.SetHeadEntryRealtime(realtimeUsec)
	}
	hdr3.SetTailEntryRealtime(realtimeUsec)
	hdr3.SetTailEntryMonotonic(monotonicUsec)
	hg3.Release()

	return entryOffset, nil
}

func splitFieldValue(payload []byte) (name, value []byte, ok bool) {
	idx := bytes.IndexByte(payload, '=')
	if idx < 0 {
		return nil, nil, false
	}
	return payload[:idx], payload[idx+1:], true
}
