package query

import (
	"sort"

	"github.com/netdata/go-journalfile/internal/indexer"
	"github.com/netdata/go-journalfile/internal/journal"
)

// Source pairs one journal file with the FileIndex built over it, the
// unit the log query merges across (spec.md §4.11's `file_indexes`).
type Source struct {
	File  *journal.JournalFile
	Index *indexer.FileIndex
}

// fileCursor walks one file's filter-restricted, direction-ordered
// candidate positions, resolving each to a concrete LogEntryID and
// enforcing the after/before time window as it goes.
type fileCursor struct {
	fileID      [16]byte
	jf          *journal.JournalFile
	idx         *indexer.FileIndex
	direction   Direction
	sourceField string
	after       *int64
	before      *int64

	positions []uint32 // indices into idx.EntryOffsets, ascending, filter-restricted.
	cursor    int       // next slot in positions to consider.
	exhausted bool
}

func newFileCursor(src Source, params Params, anchorUsec int64) (*fileCursor, error) {
	var positions []uint32
	if params.Filter != nil {
		positions = params.Filter.Evaluate(src.Index).Positions()
	} else {
		n := src.Index.Universe()
		positions = make([]uint32, n)
		for i := uint32(0); i < n; i++ {
			positions[i] = i
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	fc := &fileCursor{
		fileID:      src.Index.FileID,
		jf:          src.File,
		idx:         src.Index,
		direction:   params.Direction,
		sourceField: params.SourceTimestampField,
		after:       params.After,
		before:      params.Before,
		positions:   positions,
	}

	if len(positions) == 0 {
		fc.exhausted = true
		return fc, nil
	}

	startCursor, err := fc.startCursor(params, anchorUsec)
	if err != nil {
		return nil, err
	}
	fc.cursor = startCursor
	if fc.direction == Forward && fc.cursor >= len(positions) {
		fc.exhausted = true
	}
	if fc.direction == Backward && fc.cursor < 0 {
		fc.exhausted = true
	}
	return fc, nil
}

// startCursor resolves where this file's cursor begins: resumed from a
// prior page's recorded position, or freshly binary-searched from the
// anchor (spec.md §4.11's "per-file positioning").
func (fc *fileCursor) startCursor(params Params, anchorUsec int64) (int, error) {
	if params.Resume != nil {
		if pos, ok := params.Resume.Position(fc.fileID); ok {
			found := sort.Search(len(fc.positions), func(i int) bool { return fc.positions[i] >= uint32(pos) })
			if fc.direction == Forward {
				return found + 1, nil
			}
			return found - 1, nil
		}
	}

	if fc.direction == Forward {
		// First position whose effective timestamp is >= anchor.
		idx, err := partitionPoint(fc.positions, func(pos uint32) (bool, error) {
			ts, err := indexer.EffectiveTimestamp(fc.jf, uint64(fc.idx.EntryOffsets[pos]), fc.sourceField)
			if err != nil {
				return false, err
			}
			return ts < anchorUsec, nil
		})
		return idx, err
	}

	// Backward: last position whose effective timestamp is <= anchor.
	idx, err := partitionPoint(fc.positions, func(pos uint32) (bool, error) {
		ts, err := indexer.EffectiveTimestamp(fc.jf, uint64(fc.idx.EntryOffsets[pos]), fc.sourceField)
		if err != nil {
			return false, err
		}
		return ts <= anchorUsec, nil
	})
	if err != nil {
		return 0, err
	}
	return idx - 1, nil
}

// partitionPoint finds the first index in positions for which predicate
// returns false, predicate being monotonically true-then-false
// (spec.md §4.6's "directed binary search" applied over the filtered
// candidate vector rather than an entry-array chain directly).
func partitionPoint(positions []uint32, predicate func(uint32) (bool, error)) (int, error) {
	lo, hi := 0, len(positions)
	for lo < hi {
		mid := lo + (hi-lo)/2
		ok, err := predicate(positions[mid])
		if err != nil {
			return 0, err
		}
		if ok {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// next pulls the next candidate entry from this cursor in direction
// order, applying the after/before boundary rules of spec.md §4.11.
func (fc *fileCursor) next() (LogEntryID, bool, error) {
	for {
		if fc.exhausted {
			return LogEntryID{}, false, nil
		}
		if fc.direction == Forward && fc.cursor >= len(fc.positions) {
			fc.exhausted = true
			return LogEntryID{}, false, nil
		}
		if fc.direction == Backward && fc.cursor < 0 {
			fc.exhausted = true
			return LogEntryID{}, false, nil
		}

		pos := fc.positions[fc.cursor]
		offset := fc.idx.EntryOffsets[pos]
		ts, err := indexer.EffectiveTimestamp(fc.jf, uint64(offset), fc.sourceField)
		if err != nil {
			return LogEntryID{}, false, err
		}

		if fc.direction == Forward {
			fc.cursor++
		} else {
			fc.cursor--
		}

		if fc.direction == Forward {
			if fc.before != nil && ts >= *fc.before {
				fc.exhausted = true
				return LogEntryID{}, false, nil
			}
			if fc.after != nil && ts < *fc.after {
				continue
			}
		} else {
			if fc.after != nil && ts < *fc.after {
				fc.exhausted = true
				return LogEntryID{}, false, nil
			}
			if fc.before != nil && ts >= *fc.before {
				continue
			}
		}

		return LogEntryID{FileID: fc.fileID, Offset: uint64(offset), Timestamp: ts, Position: int(pos)}, true, nil
	}
}
