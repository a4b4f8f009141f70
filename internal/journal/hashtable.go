package journal

import "bytes"

// This file implements spec.md §4.4: chained open-hash table lookup and
// insert-time bucket patching for the data and field hash tables.

// LookupDataOffset walks the data hash table's bucket for hash, returning
// the offset of the Data object whose stored hash equals hash and whose
// payload equals payload, or 0 if none is found. A 0 return is not an
// error: it means "not present", the expected steady-state result for a
// never-before-seen field=value pair.
func LookupDataOffset(jf *JournalFile, tableOffset int64, tableSize int, hash uint64, payload []byte) (uint64, error) {
	htg, err := jf.HashTableAt(tableOffset, tableSize)
	if err != nil {
		return 0, err
	}
	ht := htg.Value()
	n := ht.N()
	bucket := int(hash % uint64(n))
	head := ht.Head(bucket)
	htg.Release()

	offset := head
	for offset != 0 {
		dg, err := jf.DataObjectAt(int64(offset))
		if err != nil {
			return 0, err
		}
		d := dg.Value()
		if d.Hash() == hash && bytes.Equal(d.Payload(), payload) {
			dg.Release()
			return offset, nil
		}
		next := d.NextHashOffset()
		dg.Release()
		offset = next
	}
	return 0, nil
}

// LookupFieldOffset is LookupDataOffset's field-table counterpart.
func LookupFieldOffset(jf *JournalFile, tableOffset int64, tableSize int, hash uint64, name []byte) (uint64, error) {
	htg, err := jf.HashTableAt(tableOffset, tableSize)
	if err != nil {
		return 0, err
	}
	ht := htg.Value()
	n := ht.N()
	bucket := int(hash % uint64(n))
	head := ht.Head(bucket)
	htg.Release()

	offset := head
	for offset != 0 {
		fg, err := jf.FieldObjectAt(int64(offset))
		if err != nil {
			return 0, err
		}
		f := fg.Value()
		if f.Hash() == hash && bytes.Equal(f.Payload(), name) {
			fg.Release()
			return offset, nil
		}
		next := f.NextHashOffset()
		fg.Release()
		offset = next
	}
	return 0, nil
}

// InsertDataBucket patches the data hash table bucket for hash so its
// chain's tail now points at newOffset, per spec.md §4.4's "Insert" rule:
// empty bucket sets both head and tail; non-empty bucket patches the old
// tail's next_hash_offset and updates the table's recorded tail.
func InsertDataBucket(jf *JournalFile, tableOffset int64, tableSize int, hash uint64, newOffset uint64) error {
	htg, err := jf.HashTableAtMut(tableOffset, tableSize)
	if err != nil {
		return err
	}
	ht := htg.Value()
	n := ht.N()
	bucket := int(hash % uint64(n))
	tail := ht.Tail(bucket)

	if tail == 0 {
		ht.SetHead(bucket, newOffset)
		ht.SetTail(bucket, newOffset)
		htg.Release()
		return nil
	}
	ht.SetTail(bucket, newOffset)
	htg.Release()

	dg, err := jf.DataObjectAtMut(int64(tail))
	if err != nil {
		return err
	}
	dg.Value().SetNextHashOffset(newOffset)
	dg.Release()
	return nil
}

// InsertFieldBucket is InsertDataBucket's field-table counterpart.
func InsertFieldBucket(jf *JournalFile, tableOffset int64, tableSize int, hash uint64, newOffset uint64) error {
	htg, err := jf.HashTableAtMut(tableOffset, tableSize)
	if err != nil {
		return err
	}
	ht := htg.Value()
	n := ht.N()
	bucket := int(hash % uint64(n))
	tail := ht.Tail(bucket)

	if tail == 0 {
		ht.SetHead(bucket, newOffset)
		ht.SetTail(bucket, newOffset)
		htg.Release()
		return nil
	}
	ht.SetTail(bucket, newOffset)
	htg.Release()

	fg, err := jf.FieldObjectAtMut(int64(tail))
	if err != nil {
		return err
	}
	fg.Value().SetNextHashOffset(newOffset)
	fg.Release()
	return nil
}
