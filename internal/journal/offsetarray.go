package journal

// This file implements spec.md §4.5: the offset-array chain, a singly
// linked list of EntryArray objects, and the directed-partition-point
// binary search that treats the whole chain as one virtual sorted array.

// CollectOffsets walks the EntryArray chain starting at head, appending
// every entry offset to out in chain order. A zero head offset is an empty
// chain, not an error.
func CollectOffsets(jf *JournalFile, head uint64) ([]uint64, error) {
	var out []uint64
	offset := head
	for offset != 0 {
		ag, err := jf.EntryArrayAt(int64(offset))
		if err != nil {
			return nil, err
		}
		a := ag.Value()
		cap := a.Capacity()
		for i := 0; i < cap; i++ {
			v := a.Get(i)
			if v == 0 {
				// Trailing unfilled slots in the tail array.
				break
			}
			out = append(out, v)
		}
		next := a.NextOffset()
		ag.Release()
		offset = next
	}
	return out, nil
}

// Predicate evaluates a condition against the entry stored at entryOffset,
// issuing whatever I/O it needs (e.g. reading the entry's timestamp).
type Predicate func(entryOffset uint64) (bool, error)

// DirectedPartitionPoint performs spec.md §4.5's directed binary search
// across the chain rooted at head, assuming predicate is false for a
// prefix of the chain and true for the remaining suffix (forward) or true
// for a prefix and false for the suffix (backward, conceptually the
// complement). forward=true finds the first element for which predicate
// holds; forward=false finds the last element for which predicate holds.
// Returns (position, found); position indexes into the logical chain
// order, matching what CollectOffsets would produce.
//
// Grounded in the "cache cumulative-length prefix sums... a linear walk
// across arrays is acceptable for small chains" guidance of spec.md §9:
// this implementation first linearizes the chain into an offset slice
// (cheap relative to the I/O predicate itself issues) and then bisects
// within it.
func DirectedPartitionPoint(jf *JournalFile, head uint64, predicate Predicate, forward bool) (int, bool, error) {
	offsets, err := CollectOffsets(jf, head)
	if err != nil {
		return 0, false, err
	}
	if len(offsets) == 0 {
		return 0, false, nil
	}

	if forward {
		lo, hi := 0, len(offsets)
		for lo < hi {
			mid := (lo + hi) / 2
			ok, err := predicate(offsets[mid])
			if err != nil {
				return 0, false, err
			}
			if ok {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		if lo == len(offsets) {
			return 0, false, nil
		}
		return lo, true, nil
	}

	lo, hi := -1, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		ok, err := predicate(offsets[mid])
		if err != nil {
			return 0, false, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo < 0 {
		return 0, false, nil
	}
	return lo, true, nil
}
