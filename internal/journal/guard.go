package journal

import (
	"sync/atomic"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// borrowFlag implements the single-borrow discipline of spec.md §4.3: every
// object view borrowed out of a window manager must be released before a
// second view can be acquired, because acquiring a new window may evict and
// unmap the one backing an already-issued slice.
type borrowFlag struct {
	inUse atomic.Bool
}

// acquire sets the flag, failing with ValueGuardInUse if it was already
// held.
func (b *borrowFlag) acquire() error {
	if !b.inUse.CompareAndSwap(false, true) {
		return journalerrors.NewValueGuardInUseError()
	}
	return nil
}

// release clears the flag. Safe to call even if acquire was never called,
// matching a guard's destructor semantics in the source language.
func (b *borrowFlag) release() {
	b.inUse.Store(false)
}

// ValueGuard is a scoped borrow of a single object view. Release must be
// called exactly once, typically via defer, to clear the owning file's
// object_in_use flag so a subsequent view can be acquired.
type ValueGuard[T any] struct {
	value   T
	flag    *borrowFlag
	released bool
}

// newValueGuard acquires flag and wraps value. Returns ValueGuardInUse if
// the flag is already held.
func newValueGuard[T any](flag *borrowFlag, value T) (*ValueGuard[T], error) {
	if err := flag.acquire(); err != nil {
		return nil, err
	}
	return &ValueGuard[T]{value: value, flag: flag}, nil
}

// Value returns the borrowed view.
func (g *ValueGuard[T]) Value() T { return g.value }

// Release clears the borrow, permitting a subsequent Acquire call on the
// owning file. Calling Release more than once is a no-op.
func (g *ValueGuard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.flag.release()
}
