package bitmap

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedUnique(vals []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(vals))
	out := make([]uint32, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestFromSortedIterRoundTrip(t *testing.T) {
	universe := uint32(10000)
	r := rand.New(rand.NewSource(1))

	values := make([]uint32, 0, 500)
	for i := 0; i < 500; i++ {
		values = append(values, uint32(r.Intn(int(universe))))
	}
	values = sortedUnique(values)

	tree := FromSortedIter(values, universe)
	require.Equal(t, values, tree.Collect())
	assert.Equal(t, len(values), tree.Len())

	for _, v := range values {
		assert.True(t, tree.Contains(v))
	}
}

func TestTree8ContainsAgreesWithSet(t *testing.T) {
	universe := uint32(512)
	values := []uint32{0, 1, 7, 8, 63, 64, 65, 511}
	tree := FromSortedIter(values, universe)

	set := make(map[uint32]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	for v := uint32(0); v < universe; v++ {
		_, want := set[v]
		assert.Equal(t, want, tree.Contains(v), "value %d", v)
	}
}

func TestTree8EmptyUniverse(t *testing.T) {
	tree := FromSortedIter(nil, 0)
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Collect())
	_, ok := tree.Min()
	assert.False(t, ok)
	_, ok = tree.Max()
	assert.False(t, ok)
}

func TestFromRange(t *testing.T) {
	tree := FromRange(10, 20, 100)
	assert.Equal(t, 10, tree.Len())
	for v := uint32(10); v < 20; v++ {
		assert.True(t, tree.Contains(v))
	}
	assert.False(t, tree.Contains(9))
	assert.False(t, tree.Contains(20))
}

func TestTree8MinMax(t *testing.T) {
	tree := FromSortedIter([]uint32{5, 42, 9999}, 10000)
	min, ok := tree.Min()
	require.True(t, ok)
	assert.Equal(t, uint32(5), min)

	max, ok := tree.Max()
	require.True(t, ok)
	assert.Equal(t, uint32(9999), max)
}

func TestTree8RangeCardinality(t *testing.T) {
	values := []uint32{1, 2, 3, 10, 20, 30, 99}
	tree := FromSortedIter(values, 100)

	assert.Equal(t, len(values), tree.RangeCardinality(0, 100))
	assert.Equal(t, 3, tree.RangeCardinality(0, 10))
	assert.Equal(t, 1, tree.RangeCardinality(10, 11))
	assert.Equal(t, 0, tree.RangeCardinality(50, 90))
}

func TestTree8InsertRemove(t *testing.T) {
	tree := FromSortedIter([]uint32{1, 5, 9}, 100)

	tree = tree.Insert(3)
	assert.True(t, tree.Contains(3))
	assert.Equal(t, []uint32{1, 3, 5, 9}, tree.Collect())

	// Inserting an existing value is a no-op on the value set.
	tree = tree.Insert(3)
	assert.Equal(t, []uint32{1, 3, 5, 9}, tree.Collect())

	tree = tree.Remove(5)
	assert.False(t, tree.Contains(5))
	assert.Equal(t, []uint32{1, 3, 9}, tree.Collect())
}

func TestTree8RemoveRange(t *testing.T) {
	tree := FromSortedIter([]uint32{1, 2, 3, 4, 5, 6, 7}, 10)
	tree = tree.RemoveRange(3, 6)
	assert.Equal(t, []uint32{1, 2, 6, 7}, tree.Collect())
}

func TestTree8IteratorMatchesCollect(t *testing.T) {
	values := []uint32{0, 3, 8, 64, 511, 4095}
	tree := FromSortedIter(values, 4096)

	var got []uint32
	it := tree.Iter()
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, values, got)
	assert.Equal(t, values, tree.Collect())
}
