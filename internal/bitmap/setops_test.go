package bitmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setOracle(a, b []uint32, op Op) []uint32 {
	as := make(map[uint32]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[uint32]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}

	var out []uint32
	seen := make(map[uint32]struct{})
	add := func(v uint32) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	switch op {
	case OpOr:
		for v := range as {
			add(v)
		}
		for v := range bs {
			add(v)
		}
	case OpAnd:
		for v := range as {
			if _, ok := bs[v]; ok {
				add(v)
			}
		}
	case OpSub:
		for v := range as {
			if _, ok := bs[v]; !ok {
				add(v)
			}
		}
	case OpXor:
		for v := range as {
			if _, ok := bs[v]; !ok {
				add(v)
			}
		}
		for v := range bs {
			if _, ok := as[v]; !ok {
				add(v)
			}
		}
	}
	if len(out) == 0 {
		return nil // Collect reports an empty set as nil
	}
	return sortedUnique(out)
}

func randomSubset(r *rand.Rand, universe uint32, n int) []uint32 {
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = uint32(r.Intn(int(universe)))
	}
	return sortedUnique(vals)
}

func TestSetOpsAgainstOracle(t *testing.T) {
	universe := uint32(2048)
	r := rand.New(rand.NewSource(42))

	ops := []Op{OpOr, OpAnd, OpSub, OpXor}
	names := map[Op]string{OpOr: "or", OpAnd: "and", OpSub: "sub", OpXor: "xor"}

	for trial := 0; trial < 20; trial++ {
		a := randomSubset(r, universe, 50)
		b := randomSubset(r, universe, 50)

		ta := FromSortedIter(a, universe)
		tb := FromSortedIter(b, universe)

		for _, op := range ops {
			want := setOracle(a, b, op)
			got := Combine(ta, tb, op).Collect()
			assert.Equal(t, want, got, "op=%s trial=%d", names[op], trial)
		}
	}
}

func TestSetOpsOneSidedEmpty(t *testing.T) {
	universe := uint32(256)
	empty := FromSortedIter(nil, universe)
	full := FromSortedIter([]uint32{1, 2, 3, 200}, universe)

	assert.Equal(t, full.Collect(), TreeOr(empty, full).Collect())
	assert.Equal(t, full.Collect(), TreeOr(full, empty).Collect())
	assert.Empty(t, TreeAnd(empty, full).Collect())
	assert.Empty(t, TreeAnd(full, empty).Collect())
	assert.Empty(t, TreeSub(empty, full).Collect())
	assert.Equal(t, full.Collect(), TreeSub(full, empty).Collect())
	assert.Equal(t, full.Collect(), TreeXor(empty, full).Collect())
}

func TestSetOpsBothEmpty(t *testing.T) {
	universe := uint32(256)
	empty := FromSortedIter(nil, universe)
	assert.Empty(t, TreeOr(empty, empty).Collect())
	assert.Empty(t, TreeAnd(empty, empty).Collect())
}

func TestCombinePanicsOnUniverseMismatch(t *testing.T) {
	a := FromSortedIter([]uint32{1}, 100)
	b := FromSortedIter([]uint32{1}, 200)
	assert.Panics(t, func() { Combine(a, b, OpOr) })
}
