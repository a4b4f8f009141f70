// Package bitmap implements tree8, the 8-way bit-tree compressed bitmap of
// spec.md §4.7: an integer set over [0, U) serialized as a depth-first
// pre-order byte stream where the representation on disk is the
// representation in memory — no separate decode step is needed before a
// query can run directly over the bytes.
//
// The per-node byte is, at bottom, exactly the 8-bit presence mask that
// rpcpool-yellowstone-faithful's gsfa/linkedlog.Bitmap models for a single
// byte of up to 8 flags; tree8 generalizes that single byte into a tree of
// them, one layer per base-8 digit of the addressed value.
package bitmap

import "fmt"

// maxLevels bounds the tree depth at a 32-bit universe: ceil(log8(2^32)) = 11,
// matching spec.md §4.7's iterator frame bound.
const maxLevels = 11

// Tree8 is an immutable compressed bitmap over [0, Universe).
type Tree8 struct {
	data     []byte
	universe uint32
	levels   int
}

// levelsFor returns the number of base-8 digit levels (including the leaf
// level) needed to address any value in [0, universe).
func levelsFor(universe uint32) int {
	if universe == 0 {
		return 1
	}
	levels := 1
	cap := uint64(8)
	for cap < uint64(universe) {
		cap *= 8
		levels++
	}
	return levels
}

// Universe returns the exclusive upper bound of the addressable range.
func (t *Tree8) Universe() uint32 { return t.universe }

// Bytes returns the serialized payload (not including the wire-format
// universe/length prefix; see wire.go for that).
func (t *Tree8) Bytes() []byte { return t.data }

// FromSortedIter builds a Tree8 from values, which must be strictly
// ascending and within [0, universe). Grounded in spec.md §4.7's
// "from_sorted_iter": this implementation groups values by shared digit
// prefixes and recurses rather than tracking per-level "last group" state
// in a single linear pass, a simplification that produces byte-identical
// output (the tree shape is a pure function of the value set) while being
// far easier to verify correct without running it.
func FromSortedIter(values []uint32, universe uint32) *Tree8 {
	levels := levelsFor(universe)
	var out []byte
	out = encodeNode(values, levels, out)
	return &Tree8{data: out, universe: universe, levels: levels}
}

// FromRange is a supplemented constructor (not named in spec.md, but a
// natural convenience given from_sorted_iter's contract) building a dense
// contiguous run [lo, hi).
func FromRange(lo, hi, universe uint32) *Tree8 {
	if hi < lo {
		hi = lo
	}
	values := make([]uint32, 0, hi-lo)
	for v := lo; v < hi; v++ {
		values = append(values, v)
	}
	return FromSortedIter(values, universe)
}

func encodeNode(values []uint32, levelsRemaining int, out []byte) []byte {
	if levelsRemaining <= 1 {
		var leaf byte
		for _, v := range values {
			leaf |= 1 << (v & 7)
		}
		return append(out, leaf)
	}

	var groups [8][]uint32
	shift := uint(3 * (levelsRemaining - 1))
	for _, v := range values {
		d := (v >> shift) & 7
		groups[d] = append(groups[d], v)
	}

	var mask byte
	for d := 0; d < 8; d++ {
		if len(groups[d]) > 0 {
			mask |= 1 << uint(d)
		}
	}
	out = append(out, mask)
	for d := 0; d < 8; d++ {
		if len(groups[d]) > 0 {
			out = encodeNode(groups[d], levelsRemaining-1, out)
		}
	}
	return out
}

// Contains reports whether v is a member of the set.
func (t *Tree8) Contains(v uint32) bool {
	if v >= t.universe || len(t.data) == 0 {
		return false
	}
	pos := 0
	for level := t.levels; level > 1; level-- {
		mask := t.data[pos]
		shift := uint(3 * (level - 1))
		d := (v >> shift) & 7
		bit := byte(1) << d
		if mask&bit == 0 {
			return false
		}
		// Advance past the mask byte and every present sibling subtree
		// that precedes child d in bit order.
		pos++
		for s := uint32(0); s < d; s++ {
			if mask&(1<<s) != 0 {
				pos = skipSubtree(t.data, pos, level-1)
			}
		}
	}
	leaf := t.data[pos]
	return leaf&(1<<(v&7)) != 0
}

// skipSubtree advances past one fully-serialized subtree rooted at pos
// whose root is levelsRemaining levels above the leaf (levelsRemaining==1
// means pos itself is a leaf byte), returning the position immediately
// after it.
func skipSubtree(data []byte, pos int, levelsRemaining int) int {
	if levelsRemaining <= 1 {
		return pos + 1
	}
	mask := data[pos]
	pos++
	for s := 0; s < 8; s++ {
		if mask&(1<<uint(s)) != 0 {
			pos = skipSubtree(data, pos, levelsRemaining-1)
		}
	}
	return pos
}

// Len returns the total number of set values.
func (t *Tree8) Len() int {
	if len(t.data) == 0 {
		return 0
	}
	return countSubtree(t.data, 0, t.levels)
}

func countSubtree(data []byte, pos int, levelsRemaining int) int {
	count, _ := countSubtreeCursor(data, pos, levelsRemaining)
	return count
}

// countSubtreeCursor walks one subtree, returning both its total set-bit
// count and the position immediately after it, so callers can advance a
// single shared cursor across sibling subtrees without a second
// skipSubtree pass.
func countSubtreeCursor(data []byte, pos int, levelsRemaining int) (int, int) {
	if levelsRemaining <= 1 {
		return popcount8(data[pos]), pos + 1
	}
	mask := data[pos]
	pos++
	total := 0
	for s := 0; s < 8; s++ {
		if mask&(1<<uint(s)) != 0 {
			var c int
			c, pos = countSubtreeCursor(data, pos, levelsRemaining-1)
			total += c
		}
	}
	return total, pos
}

func popcount8(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// Iterator yields set values in ascending order via a bounded DFS stack
// (spec.md §4.7: "holds at most levels ≤ 11 frames").
type Iterator struct {
	t     *Tree8
	stack []iterFrame
	done  bool
}

type iterFrame struct {
	pos    int
	level  int // levelsRemaining at this frame
	mask   byte
	bit    int // next child bit to examine, 0..7
	prefix uint32
}

// Iter returns a fresh Iterator positioned before the first value.
func (t *Tree8) Iter() *Iterator {
	it := &Iterator{t: t}
	if len(t.data) == 0 {
		it.done = true
		return it
	}
	it.stack = append(it.stack, iterFrame{pos: 0, level: t.levels, mask: t.data[0], bit: 0, prefix: 0})
	return it
}

// Next returns the next set value in ascending order, or ok=false when
// exhausted.
func (it *Iterator) Next() (uint32, bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.level <= 1 {
			for top.bit < 8 {
				b := top.bit
				top.bit++
				if top.mask&(1<<uint(b)) != 0 {
					return top.prefix | uint32(b), true
				}
			}
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		if top.bit >= 8 {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		b := top.bit
		if top.mask&(1<<uint(b)) == 0 {
			top.bit++
			continue
		}

		childPos := top.pos + 1
		for s := 0; s < b; s++ {
			if top.mask&(1<<uint(s)) != 0 {
				childPos = skipSubtree(it.t.data, childPos, top.level-1)
			}
		}
		top.bit++

		childLevel := top.level - 1
		childPrefix := top.prefix | (uint32(b) << uint(3*childLevel))
		var childMask byte
		if childLevel >= 1 {
			childMask = it.t.data[childPos]
		}
		it.stack = append(it.stack, iterFrame{pos: childPos, level: childLevel, mask: childMask, bit: 0, prefix: childPrefix})
	}
	return 0, false
}

// Collect drains the iterator into a slice, primarily for tests and the
// tree8 round-trip property.
func (t *Tree8) Collect() []uint32 {
	var out []uint32
	it := t.Iter()
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// RangeCardinality counts set values in [lo, hi).
func (t *Tree8) RangeCardinality(lo, hi uint32) int {
	if hi <= lo || len(t.data) == 0 {
		return 0
	}
	return rangeCount(t.data, 0, t.levels, 0, lo, hi)
}

func rangeCount(data []byte, pos int, levelsRemaining int, prefix uint32, lo, hi uint32) int {
	span := uint32(1) << uint(3*levelsRemaining)
	nodeLo := prefix
	nodeHi := prefix + span
	if nodeHi <= lo || nodeLo >= hi {
		return 0
	}
	if nodeLo >= lo && nodeHi <= hi {
		if levelsRemaining <= 1 {
			return popcount8(data[pos])
		}
		return countSubtree(data, pos, levelsRemaining)
	}

	if levelsRemaining <= 1 {
		leaf := data[pos]
		total := 0
		for b := 0; b < 8; b++ {
			v := prefix | uint32(b)
			if v >= lo && v < hi && leaf&(1<<uint(b)) != 0 {
				total++
			}
		}
		return total
	}

	mask := data[pos]
	childPos := pos + 1
	total := 0
	for b := 0; b < 8; b++ {
		if mask&(1<<uint(b)) == 0 {
			continue
		}
		childPrefix := prefix | (uint32(b) << uint(3*(levelsRemaining-1)))
		total += rangeCount(data, childPos, levelsRemaining-1, childPrefix, lo, hi)
		childPos = skipSubtree(data, childPos, levelsRemaining-1)
	}
	return total
}

// Min returns the smallest set value.
func (t *Tree8) Min() (uint32, bool) {
	it := t.Iter()
	return it.Next()
}

// Max returns the largest set value.
func (t *Tree8) Max() (uint32, bool) {
	if len(t.data) == 0 {
		return 0, false
	}
	return descendMax(t.data, 0, t.levels, 0)
}

func descendMax(data []byte, pos int, levelsRemaining int, prefix uint32) (uint32, bool) {
	if levelsRemaining <= 1 {
		leaf := data[pos]
		for b := 7; b >= 0; b-- {
			if leaf&(1<<uint(b)) != 0 {
				return prefix | uint32(b), true
			}
		}
		return 0, false
	}
	mask := data[pos]
	if mask == 0 {
		return 0, false
	}
	highest := 7
	for mask&(1<<uint(highest)) == 0 {
		highest--
	}
	childPos := pos + 1
	for s := 0; s < highest; s++ {
		if mask&(1<<uint(s)) != 0 {
			childPos = skipSubtree(data, childPos, levelsRemaining-1)
		}
	}
	childPrefix := prefix | (uint32(highest) << uint(3*(levelsRemaining-1)))
	return descendMax(data, childPos, levelsRemaining-1, childPrefix)
}

// Insert returns a new Tree8 with v added. Implemented by decode-modify-
// re-encode rather than spec.md §4.7's in-place ancestor splice: tree8
// trees are small relative to a journal file and immutable by convention
// in this codebase (FileIndex snapshots are rebuilt, not patched), so the
// simpler, obviously-correct path was chosen over the in-place splice.
func (t *Tree8) Insert(v uint32) *Tree8 {
	if v >= t.universe {
		panic(fmt.Sprintf("tree8: Insert(%d) out of universe [0,%d)", v, t.universe))
	}
	values := t.Collect()
	idx := 0
	for idx < len(values) && values[idx] < v {
		idx++
	}
	if idx < len(values) && values[idx] == v {
		return t
	}
	out := make([]uint32, 0, len(values)+1)
	out = append(out, values[:idx]...)
	out = append(out, v)
	out = append(out, values[idx:]...)
	return FromSortedIter(out, t.universe)
}

// Remove returns a new Tree8 with v removed.
func (t *Tree8) Remove(v uint32) *Tree8 {
	values := t.Collect()
	out := values[:0:0]
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return FromSortedIter(out, t.universe)
}

// RemoveRange returns a new Tree8 with every value in [lo, hi) removed.
func (t *Tree8) RemoveRange(lo, hi uint32) *Tree8 {
	values := t.Collect()
	out := values[:0:0]
	for _, x := range values {
		if x < lo || x >= hi {
			out = append(out, x)
		}
	}
	return FromSortedIter(out, t.universe)
}
