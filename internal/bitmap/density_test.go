package bitmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapFullEmpty(t *testing.T) {
	universe := uint32(64)

	full := Full(universe)
	assert.Equal(t, int(universe), full.Len())
	for v := uint32(0); v < universe; v++ {
		assert.True(t, full.Contains(v))
	}
	assert.False(t, full.IsEmpty())

	empty := Empty(universe)
	assert.Equal(t, 0, empty.Len())
	assert.True(t, empty.IsEmpty())
	for v := uint32(0); v < universe; v++ {
		assert.False(t, empty.Contains(v))
	}
}

func TestBitmapContainsAndLenAgreeAcrossInversion(t *testing.T) {
	universe := uint32(128)
	values := []uint32{1, 2, 3, 100, 127}

	plain := BitmapFromSortedIter(values, universe)
	inverted := plain.Not()

	assert.Equal(t, len(values), plain.Len())
	assert.Equal(t, int(universe)-len(values), inverted.Len())

	for v := uint32(0); v < universe; v++ {
		assert.Equal(t, !plain.Contains(v), inverted.Contains(v), "value %d", v)
	}
}

func TestFromSortedIterComplemented(t *testing.T) {
	universe := uint32(10)
	unset := []uint32{0, 1, 2}
	b := FromSortedIterComplemented(unset, universe)

	assert.True(t, b.Inverted())
	assert.Equal(t, int(universe)-len(unset), b.Len())
	for _, v := range unset {
		assert.False(t, b.Contains(v))
	}
	assert.True(t, b.Contains(5))
}

func orAndOracle(a, b map[uint32]struct{}, universe uint32) (orSet, andSet map[uint32]struct{}) {
	orSet = make(map[uint32]struct{})
	andSet = make(map[uint32]struct{})
	for v := uint32(0); v < universe; v++ {
		_, inA := a[v]
		_, inB := b[v]
		if inA || inB {
			orSet[v] = struct{}{}
		}
		if inA && inB {
			andSet[v] = struct{}{}
		}
	}
	return
}

func toSet(vals []uint32) map[uint32]struct{} {
	out := make(map[uint32]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}

func setFromPositions(b *Bitmap) map[uint32]struct{} {
	return toSet(b.Positions())
}

// TestDensityAwareOrAndAgreement exercises all four inverted/non-inverted
// combinations of Or/And against a brute-force per-value oracle, the way
// spec.md §8's S3 scenario demands the De Morgan dispatch table match a
// linear scan regardless of which operand is dense.
func TestDensityAwareOrAndAgreement(t *testing.T) {
	universe := uint32(200)
	r := rand.New(rand.NewSource(7))

	combos := []struct {
		aInverted, bInverted bool
	}{
		{false, false},
		{false, true},
		{true, false},
		{true, true},
	}

	for _, combo := range combos {
		aVals := randomSubset(r, universe, 40)
		bVals := randomSubset(r, universe, 60)

		var a, b *Bitmap
		if combo.aInverted {
			a = FromSortedIterComplemented(aVals, universe)
		} else {
			a = BitmapFromSortedIter(aVals, universe)
		}
		if combo.bInverted {
			b = FromSortedIterComplemented(bVals, universe)
		} else {
			b = BitmapFromSortedIter(bVals, universe)
		}

		aSet := setFromPositions(a)
		bSet := setFromPositions(b)
		wantOr, wantAnd := orAndOracle(aSet, bSet, universe)

		gotOr := Or(a, b)
		gotAnd := And(a, b)

		assert.Equal(t, wantOr, setFromPositions(gotOr), "OR combo a=%v b=%v", combo.aInverted, combo.bInverted)
		assert.Equal(t, wantAnd, setFromPositions(gotAnd), "AND combo a=%v b=%v", combo.aInverted, combo.bInverted)

		for v := uint32(0); v < universe; v++ {
			_, wantOrV := wantOr[v]
			_, wantAndV := wantAnd[v]
			assert.Equal(t, wantOrV, gotOr.Contains(v))
			assert.Equal(t, wantAndV, gotAnd.Contains(v))
		}
	}
}

func TestBuildDensityAwareFlipsRepresentation(t *testing.T) {
	universe := uint32(1000)

	// Sparse set: should stay non-inverted.
	sparse := []uint32{1, 2, 3, 500, 999}
	b := BuildDensityAware(sparse, universe)
	assert.False(t, b.Inverted())
	assert.Equal(t, len(sparse), b.Len())

	// Dense set (almost everything present): should flip to inverted.
	dense := make([]uint32, 0, universe-3)
	skip := map[uint32]struct{}{10: {}, 500: {}, 900: {}}
	for v := uint32(0); v < universe; v++ {
		if _, ok := skip[v]; !ok {
			dense = append(dense, v)
		}
	}
	b2 := BuildDensityAware(dense, universe)
	require.True(t, b2.Inverted())
	assert.Equal(t, len(dense), b2.Len())
	for v := range skip {
		assert.False(t, b2.Contains(v))
	}
}

func TestBitmapNotIsFlagFlip(t *testing.T) {
	universe := uint32(32)
	b := BitmapFromSortedIter([]uint32{1, 2, 3}, universe)
	notB := b.Not()

	assert.False(t, b.Inverted())
	assert.True(t, notB.Inverted())
	assert.Equal(t, int(universe)-b.Len(), notB.Len())
}
