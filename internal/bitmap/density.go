package bitmap

// Bitmap is the density wrapper of spec.md §4.7: it stores either the set
// bits or, when the set is dense, the complement's (sparse) unset bits,
// and dispatches AND/OR through De Morgan's laws so an operation's
// operands and result stay small regardless of which side is inverted.
type Bitmap struct {
	tree     *Tree8
	inverted bool
}

// NewBitmap wraps a raw Tree8 as a non-inverted Bitmap.
func NewBitmap(t *Tree8) *Bitmap { return &Bitmap{tree: t} }

// BitmapFromSortedIter builds a non-inverted Bitmap, the common case where
// the field=value pair is not dense enough to warrant complementing.
func BitmapFromSortedIter(values []uint32, universe uint32) *Bitmap {
	return &Bitmap{tree: FromSortedIter(values, universe)}
}

// FromSortedIterComplemented builds the inverted form from a sorted
// iterator of the *unset* values — spec.md §4.7's "densification shortcut
// used when a field-value bitmap would set more than half of the
// entries."
func FromSortedIterComplemented(unsetValues []uint32, universe uint32) *Bitmap {
	return &Bitmap{tree: FromSortedIter(unsetValues, universe), inverted: true}
}

// Full returns a Bitmap containing every value in [0, universe) —
// supplemented: the natural identity element for AND and the dominating
// element for OR, represented cheaply as the complement of the empty set.
func Full(universe uint32) *Bitmap {
	return &Bitmap{tree: FromSortedIter(nil, universe), inverted: true}
}

// Empty returns a Bitmap containing no values.
func Empty(universe uint32) *Bitmap {
	return &Bitmap{tree: FromSortedIter(nil, universe)}
}

// BuildDensityAware picks the smaller of the regular and complemented
// encodings for values (already sorted ascending) over universe, using
// EstimateDataSize to decide without materializing both, per spec.md
// §4.7's estimator and the "densification shortcut" it exists to serve.
func BuildDensityAware(values []uint32, universe uint32) *Bitmap {
	setEstimate := EstimateDataSize(values, universe)
	unsetEstimate := EstimateDataSize(complement(values, universe), universe)
	if unsetEstimate < setEstimate {
		return FromSortedIterComplemented(complement(values, universe), universe)
	}
	return BitmapFromSortedIter(values, universe)
}

func complement(values []uint32, universe uint32) []uint32 {
	set := make(map[uint32]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]uint32, 0, int(universe)-len(values))
	for v := uint32(0); v < universe; v++ {
		if _, ok := set[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func (b *Bitmap) Universe() uint32 { return b.tree.universe }
func (b *Bitmap) Inverted() bool   { return b.inverted }

// Contains reports set membership, correcting for inversion.
func (b *Bitmap) Contains(v uint32) bool {
	raw := b.tree.Contains(v)
	if b.inverted {
		return !raw
	}
	return raw
}

// Len returns the logical cardinality, correcting for inversion.
func (b *Bitmap) Len() int {
	if b.inverted {
		return int(b.tree.universe) - b.tree.Len()
	}
	return b.tree.Len()
}

// Or/And implement spec.md §4.7's De Morgan dispatch table:
//
//	A\B  OR→        AND→
//	N,N  A∪B,N      A∩B,N
//	N,I  B∖A,I      A∖B,N
//	I,N  A∖B,I      B∖A,N
//	I,I  A∩B,I      A∪B,I

// Or combines a and b, keeping whichever representation stays small.
func Or(a, b *Bitmap) *Bitmap {
	switch {
	case !a.inverted && !b.inverted:
		return &Bitmap{tree: bitmapOr(a.tree, b.tree)}
	case !a.inverted && b.inverted:
		return &Bitmap{tree: bitmapSub(b.tree, a.tree), inverted: true}
	case a.inverted && !b.inverted:
		return &Bitmap{tree: bitmapSub(a.tree, b.tree), inverted: true}
	default:
		return &Bitmap{tree: bitmapAnd(a.tree, b.tree), inverted: true}
	}
}

// And combines a and b, keeping whichever representation stays small.
func And(a, b *Bitmap) *Bitmap {
	switch {
	case !a.inverted && !b.inverted:
		return &Bitmap{tree: bitmapAnd(a.tree, b.tree)}
	case !a.inverted && b.inverted:
		return &Bitmap{tree: bitmapSub(a.tree, b.tree)}
	case a.inverted && !b.inverted:
		return &Bitmap{tree: bitmapSub(b.tree, a.tree)}
	default:
		return &Bitmap{tree: bitmapOr(a.tree, b.tree), inverted: true}
	}
}

// Not returns the logical complement without touching the underlying
// tree: inversion is purely a flag flip.
func (b *Bitmap) Not() *Bitmap {
	return &Bitmap{tree: b.tree, inverted: !b.inverted}
}

// Positions returns every set value in ascending order, correcting for
// inversion. Callers use this the way the original's LogQuery does
// (`bitmap.iter()`) to restrict a file index's entry_offsets to the
// positions a filter resolved to.
func (b *Bitmap) Positions() []uint32 {
	if !b.inverted {
		return b.tree.Collect()
	}

	out := make([]uint32, 0, int(b.tree.universe)-b.tree.Len())
	it := b.tree.Iter()
	next, ok := it.Next()
	for v := uint32(0); v < b.tree.universe; v++ {
		if ok && v == next {
			next, ok = it.Next()
			continue
		}
		out = append(out, v)
	}
	return out
}

// IsEmpty reports whether the logical set has no members.
func (b *Bitmap) IsEmpty() bool { return b.Len() == 0 }

func bitmapOr(a, b *Tree8) *Tree8  { return TreeOr(a, b) }
func bitmapAnd(a, b *Tree8) *Tree8 { return TreeAnd(a, b) }
func bitmapSub(a, b *Tree8) *Tree8 { return TreeSub(a, b) }
