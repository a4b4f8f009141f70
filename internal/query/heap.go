package query

import "container/heap"

// heapItem is one pending candidate entry in the k-way merge, tagged with
// the fileIdx (position in the input Source slice) used to break
// same-timestamp ties deterministically (spec.md §4.11: "across files,
// the input-order of file indexes breaks ties deterministically").
type heapItem struct {
	entry   LogEntryID
	fileIdx int
}

// entryHeap is a container/heap.Interface whose ordering flips with
// Direction: Forward pops the smallest timestamp first, Backward pops the
// largest. Within equal timestamps both directions prefer the lower
// fileIdx, matching input order.
type entryHeap struct {
	items     []heapItem
	direction Direction
}

func (h *entryHeap) Len() int { return len(h.items) }

func (h *entryHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.entry.Timestamp != b.entry.Timestamp {
		if h.direction == Forward {
			return a.entry.Timestamp < b.entry.Timestamp
		}
		return a.entry.Timestamp > b.entry.Timestamp
	}
	return a.fileIdx < b.fileIdx
}

func (h *entryHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *entryHeap) Push(x any) { h.items = append(h.items, x.(heapItem)) }

func (h *entryHeap) Pop() any {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]
	return item
}

var _ heap.Interface = (*entryHeap)(nil)
