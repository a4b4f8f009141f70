package query

// PaginationState records, per file, the last position emitted from that
// file's entry-offset vector (spec.md §3, §4.11). Positions are indices
// into a FileIndex's EntryOffsets, not timestamps — resuming by position
// rather than by timestamp is what makes same-timestamp pages dedup
// correctly (spec.md §9's "implementers must avoid 'resume after
// timestamp T' shortcuts that lose entries on ties").
type PaginationState struct {
	positions map[[16]byte]int
}

// NewPaginationState returns an empty pagination state, suitable for the
// first page of a query.
func NewPaginationState() *PaginationState {
	return &PaginationState{positions: make(map[[16]byte]int)}
}

// Position returns the last position emitted for fileID, if any.
func (p *PaginationState) Position(fileID [16]byte) (int, bool) {
	if p == nil {
		return 0, false
	}
	pos, ok := p.positions[fileID]
	return pos, ok
}

// clone returns a deep copy, used as the basis for the next page's state
// so a caller holding the previous PaginationState is unaffected.
func (p *PaginationState) clone() *PaginationState {
	out := NewPaginationState()
	if p != nil {
		for k, v := range p.positions {
			out.positions[k] = v
		}
	}
	return out
}

func (p *PaginationState) set(fileID [16]byte, pos int) {
	p.positions[fileID] = pos
}
