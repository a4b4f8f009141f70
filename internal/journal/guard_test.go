package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowFlagSingleBorrow(t *testing.T) {
	var flag borrowFlag

	g1, err := newValueGuard(&flag, 1)
	require.NoError(t, err)

	_, err = newValueGuard(&flag, 2)
	assert.Error(t, err)

	g1.Release()

	g2, err := newValueGuard(&flag, 3)
	require.NoError(t, err)
	g2.Release()
}

func TestValueGuardReleaseIsIdempotent(t *testing.T) {
	var flag borrowFlag

	g, err := newValueGuard(&flag, "value")
	require.NoError(t, err)

	g.Release()
	g.Release()

	_, err = newValueGuard(&flag, "next")
	require.NoError(t, err)
}

func TestJournalFileHeaderBorrowConflicts(t *testing.T) {
	jf := newTestFile(t, false, true)

	hg, err := jf.Header()
	require.NoError(t, err)

	_, err = jf.HeaderMut()
	assert.Error(t, err)

	hg.Release()

	hgm, err := jf.HeaderMut()
	require.NoError(t, err)
	hgm.Release()
}
