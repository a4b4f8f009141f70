package journal

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
	"github.com/netdata/go-journalfile/pkg/identity"
)

// JournalFile is the top-level handle over one journal container: the
// fixed header, the windowed mmap view over its arena, and the
// single-borrow flag that guards every object view handed out (spec.md
// §3, §4.1, §4.3). A JournalFile is not safe for concurrent use from more
// than one goroutine at a time, matching spec.md §5's single-threaded
// cooperative scheduling model.
type JournalFile struct {
	path     string
	f        *os.File
	wm       *windowManager
	borrow   borrowFlag
	writable bool
	compact  bool
	keyed    bool
	fileID   [16]byte
	closed   atomic.Bool
	log      *zap.SugaredLogger
}

// CreateConfig carries the identity and encoding choices for a brand new
// journal file.
type CreateConfig struct {
	Path      string
	Compact   bool
	KeyedHash bool
	Logger    *zap.SugaredLogger
}

// Create initializes a new journal file at cfg.Path: writes the header,
// an empty data hash table, and an empty field hash table, per spec.md
// §3's "Created files write the header, initial empty hash-table objects,
// and the two hash-table maps."
func Create(cfg *CreateConfig) (*JournalFile, error) {
	f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, journalerrors.ClassifyFileOpenError(err, cfg.Path, cfg.Path)
	}

	fileID := identity.NewFileID()
	machineID, err := identity.LoadMachineID()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bootID, err := identity.LoadBootID()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	seqnumID := identity.NewSeqnumID()

	jf := &JournalFile{
		path: cfg.Path, f: f, writable: true,
		compact: cfg.Compact, keyed: cfg.KeyedHash,
		fileID: [16]byte(fileID), log: cfg.Logger,
	}
	jf.wm = newWindowManager(f, true)

	const defaultBuckets = 2048
	dataHTSize := HashTableSize(defaultBuckets, cfg.Compact)
	fieldHTSize := HashTableSize(defaultBuckets, cfg.Compact)

	dataHTOffset := uint64(HeaderSize)
	fieldHTOffset := dataHTOffset + dataHTSize
	tailObjectOffset := fieldHTOffset + fieldHTSize

	if err := jf.writeHashTableObject(int64(dataHTOffset), ObjectDataHashTable, defaultBuckets); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := jf.writeHashTableObject(int64(fieldHTOffset), ObjectFieldHashTable, defaultBuckets); err != nil {
		_ = f.Close()
		return nil, err
	}

	hdrBuf, err := jf.wm.GetSliceMut(0, HeaderSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	hdr, err := NewHeaderView(hdrBuf)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	hdr.SetSignature()
	incompat := uint32(0)
	if cfg.KeyedHash {
		incompat |= IncompatibleKeyedHash
	}
	if cfg.Compact {
		incompat |= IncompatibleCompact
	}
	hdr.SetIncompatibleFlags(incompat)
	hdr.SetState(StateOnline)
	hdr.SetFileID([16]byte(fileID))
	hdr.SetMachineID([16]byte(machineID))
	hdr.SetTailEntryBootID([16]byte(bootID))
	hdr.SetSeqnumID([16]byte(seqnumID))
	hdr.SetHeaderSize(HeaderSize)
	hdr.SetDataHashTableOffset(dataHTOffset)
	hdr.SetDataHashTableSize(dataHTSize)
	hdr.SetFieldHashTableOffset(fieldHTOffset)
	hdr.SetFieldHashTableSize(fieldHTSize)
	hdr.SetTailObjectOffset(tailObjectOffset)
	hdr.SetArenaSize(tailObjectOffset - HeaderSize)
	hdr.SetNObjects(2)

	return jf, nil
}

func (jf *JournalFile) writeHashTableObject(offset int64, typ ObjectType, buckets int) error {
	size := HashTableSize(buckets, jf.compact)
	buf, err := jf.wm.GetSliceMut(offset, int(size))
	if err != nil {
		return err
	}
	oh, err := NewObjectHeaderView(buf)
	if err != nil {
		return err
	}
	oh.SetType(typ)
	oh.SetSize(size)
	return nil
}

// OpenConfig carries the options for opening an existing journal file.
type OpenConfig struct {
	Path     string
	Writable bool
	Logger   *zap.SugaredLogger
}

// Open parses an existing journal file's header and prepares a windowed
// view over its arena. It validates the signature up front, per spec.md
// §7's "InvalidMagicNumber — file signature mismatch. Fatal at open."
func Open(cfg *OpenConfig) (*JournalFile, error) {
	flag := os.O_RDONLY
	if cfg.Writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(cfg.Path, flag, 0)
	if err != nil {
		return nil, journalerrors.ClassifyFileOpenError(err, cfg.Path, cfg.Path)
	}

	jf := &JournalFile{path: cfg.Path, f: f, writable: cfg.Writable, log: cfg.Logger}
	jf.wm = newWindowManager(f, cfg.Writable)

	hdrBuf, err := jf.wm.GetSlice(0, HeaderSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	hdr, err := NewHeaderView(hdrBuf)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !hdr.ValidSignature() {
		_ = f.Close()
		return nil, journalerrors.NewInvalidMagicNumberError(cfg.Path, hdrBuf[:8])
	}

	jf.compact = hdr.IsCompact()
	jf.keyed = hdr.IsKeyedHash()
	jf.fileID = hdr.FileID()

	return jf, nil
}

func (jf *JournalFile) Path() string     { return jf.path }
func (jf *JournalFile) Compact() bool    { return jf.compact }
func (jf *JournalFile) KeyedHash() bool  { return jf.keyed }
func (jf *JournalFile) FileID() [16]byte { return jf.fileID }

// Header returns a guarded view over the header region.
func (jf *JournalFile) Header() (*ValueGuard[*Header], error) {
	buf, err := jf.wm.GetSlice(0, HeaderSize)
	if err != nil {
		return nil, err
	}
	hdr, err := NewHeaderView(buf)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, hdr)
}

// HeaderMut returns an exclusive, mutable guarded view over the header.
func (jf *JournalFile) HeaderMut() (*ValueGuard[*Header], error) {
	buf, err := jf.wm.GetSliceMut(0, HeaderSize)
	if err != nil {
		return nil, err
	}
	hdr, err := NewHeaderView(buf)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, hdr)
}

// ObjectHeaderAt reads the 16-byte object header at offset and verifies it
// against want, returning an InvalidObjectType error on mismatch.
func (jf *JournalFile) ObjectHeaderAt(offset int64, want ObjectType) (*ObjectHeader, error) {
	buf, err := jf.wm.GetSlice(offset, ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	oh, err := NewObjectHeaderView(buf)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, want); err != nil {
		return nil, err
	}
	return oh, nil
}

// DataObjectAt returns a guarded view over the Data object at offset.
func (jf *JournalFile) DataObjectAt(offset int64) (*ValueGuard[*DataObjectView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectData); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSlice(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewDataObjectView(offset, body, jf.compact, oh.IsCompressed())
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// DataObjectAtMut is the mutable counterpart of DataObjectAt, used when
// patching an existing Data object's chain pointers in place.
func (jf *JournalFile) DataObjectAtMut(offset int64) (*ValueGuard[*DataObjectView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectData); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSliceMut(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewDataObjectView(offset, body, jf.compact, oh.IsCompressed())
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// FieldObjectAt returns a guarded view over the Field object at offset.
func (jf *JournalFile) FieldObjectAt(offset int64) (*ValueGuard[*FieldObjectView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectField); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSlice(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewFieldObjectView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// FieldObjectAtMut is the mutable counterpart of FieldObjectAt.
func (jf *JournalFile) FieldObjectAtMut(offset int64) (*ValueGuard[*FieldObjectView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectField); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSliceMut(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewFieldObjectView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// EntryArrayAtMut is the mutable counterpart of EntryArrayAt, used by the
// writer when appending to an existing chain tail's inline slot array.
func (jf *JournalFile) EntryArrayAtMut(offset int64) (*ValueGuard[*EntryArrayView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectEntryArray); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSliceMut(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewEntryArrayView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// EntryObjectAt returns a guarded view over the Entry object at offset.
func (jf *JournalFile) EntryObjectAt(offset int64) (*ValueGuard[*EntryObjectView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectEntry); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSlice(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewEntryObjectView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// EntryObjectAtMut is the mutable counterpart of EntryObjectAt, used only
// by the writer immediately after allocating a fresh Entry object.
func (jf *JournalFile) EntryObjectAtMut(offset int64) (*ValueGuard[*EntryObjectView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectEntry); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSliceMut(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewEntryObjectView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// EntryArrayAt returns a guarded view over the EntryArray object at offset.
func (jf *JournalFile) EntryArrayAt(offset int64) (*ValueGuard[*EntryArrayView], error) {
	oh, err := jf.peekHeader(offset)
	if err != nil {
		return nil, err
	}
	if err := oh.CheckType(offset, ObjectEntryArray); err != nil {
		return nil, err
	}
	body, err := jf.wm.GetSlice(offset+ObjectHeaderSize, int(oh.Size())-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewEntryArrayView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// HashTableAt returns a guarded view over the hash-table object at offset
// with byte length size (taken from the header's recorded table size,
// since hash-table objects are allocated once and never relocated).
func (jf *JournalFile) HashTableAt(offset int64, size int) (*ValueGuard[*HashTableView], error) {
	body, err := jf.wm.GetSlice(offset+ObjectHeaderSize, size-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewHashTableView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// HashTableAtMut is the mutable counterpart of HashTableAt, used by the
// writer to patch bucket head/tail pointers in place.
func (jf *JournalFile) HashTableAtMut(offset int64, size int) (*ValueGuard[*HashTableView], error) {
	body, err := jf.wm.GetSliceMut(offset+ObjectHeaderSize, size-ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	view, err := NewHashTableView(offset, body, jf.compact)
	if err != nil {
		return nil, err
	}
	return newValueGuard(&jf.borrow, view)
}

// peekHeader reads an object header without going through the borrow flag;
// it is used internally by accessors that immediately construct and guard
// the typed body view, so only one borrow is ever outstanding at a time.
func (jf *JournalFile) peekHeader(offset int64) (*ObjectHeader, error) {
	buf, err := jf.wm.GetSlice(offset, ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	return NewObjectHeaderView(buf)
}

// Sync flushes all dirty windows to disk. The writer never calls this
// automatically after AddEntry (spec.md §9 open question: "crash-safety of
// writer... implementers should make this an explicit choice"); this
// module's explicit choice is that durability is the rotation
// collaborator's responsibility via pkg/publish.Seal, not the writer's.
func (jf *JournalFile) Sync() error {
	if err := jf.wm.Sync(); err != nil {
		return err
	}
	return jf.f.Sync()
}

// Close unmaps all windows and closes the underlying file descriptor.
func (jf *JournalFile) Close() error {
	if !jf.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := jf.wm.Close(); err != nil {
		return err
	}
	return jf.f.Close()
}
