package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/go-journalfile/internal/indexer"
	"github.com/netdata/go-journalfile/internal/journal"
	"github.com/netdata/go-journalfile/pkg/logger"
)

func buildSource(t *testing.T, name string, startUsec uint64, count int, stepUsec uint64) Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".journal")
	jf, err := journal.Create(&journal.CreateConfig{Path: path, Compact: false, KeyedHash: true, Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = jf.Close() })

	w := journal.NewWriter(jf)
	for i := 0; i < count; i++ {
		_, err := w.AddEntry([][]byte{[]byte("MESSAGE=m")}, startUsec+uint64(i)*stepUsec, 0)
		require.NoError(t, err)
	}

	idx, err := indexer.BuildFileIndex(jf, indexer.Config{BucketDuration: time.Second})
	require.NoError(t, err)

	return Source{File: jf, Index: idx}
}

// TestRunTwoFilesNonOverlappingForward grounds spec.md §8's S1 scenario:
// two files whose timestamp ranges do not overlap must merge into one
// strictly ascending sequence, in file order for any ties.
func TestRunTwoFilesNonOverlappingForward(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	early := buildSource(t, "early", base, 3, 1_000_000)
	late := buildSource(t, "late", base+10_000_000, 3, 1_000_000)

	sources := []Source{early, late}
	results, state, err := Run(context.Background(), sources, Params{
		Anchor:    Head(),
		Direction: Forward,
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Timestamp, results[i].Timestamp)
	}
	assert.Equal(t, early.Index.FileID, results[0].FileID)
	assert.Equal(t, late.Index.FileID, results[5].FileID)

	_, ok := state.Position(early.Index.FileID)
	assert.True(t, ok)
	_, ok = state.Position(late.Index.FileID)
	assert.True(t, ok)
}

// TestRunSameTimestampTiesBreakByFileOrder grounds spec.md §4.11's
// deterministic cross-file tie-break: two files with one entry each at the
// same timestamp come back in input file order.
func TestRunSameTimestampTiesBreakByFileOrder(t *testing.T) {
	ts := uint64(1_700_000_000) * 1_000_000
	a := buildSource(t, "a", ts, 1, 0)
	b := buildSource(t, "b", ts, 1, 0)

	results, _, err := Run(context.Background(), []Source{a, b}, Params{
		Anchor:    Head(),
		Direction: Forward,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, a.Index.FileID, results[0].FileID)
	assert.Equal(t, b.Index.FileID, results[1].FileID)
}

func TestRunPaginationResumesWithoutDuplicates(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	src := buildSource(t, "paged", base, 10, 1_000_000)

	page1, state1, err := Run(context.Background(), []Source{src}, Params{
		Anchor:    Head(),
		Direction: Forward,
		Limit:     4,
	})
	require.NoError(t, err)
	require.Len(t, page1, 4)

	page2, state2, err := Run(context.Background(), []Source{src}, Params{
		Anchor:    Head(),
		Direction: Forward,
		Limit:     4,
		Resume:    state1,
	})
	require.NoError(t, err)
	require.Len(t, page2, 4)

	seen := make(map[uint64]struct{})
	for _, e := range append(page1, page2...) {
		_, dup := seen[e.Offset]
		assert.False(t, dup, "offset %d seen twice", e.Offset)
		seen[e.Offset] = struct{}{}
	}
	assert.NotEqual(t, state1, state2)
}

func TestRunAnchorAtTimestampSeeksViaPartitionPoint(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	src := buildSource(t, "seek", base, 10, 1_000_000)

	anchor := base + 5_000_000
	results, _, err := Run(context.Background(), []Source{src}, Params{
		Anchor:    AtTimestamp(int64(anchor)),
		Direction: Forward,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(anchor), results[0].Timestamp)
	assert.Len(t, results, 5)
}

func TestRunBackwardDirection(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	src := buildSource(t, "backward", base, 5, 1_000_000)

	results, _, err := Run(context.Background(), []Source{src}, Params{
		Anchor:    Tail(),
		Direction: Backward,
	})
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Timestamp, results[i].Timestamp)
	}
}

func TestRunRespectsAfterBeforeBounds(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	src := buildSource(t, "bounded", base, 10, 1_000_000)

	after := int64(base + 2_000_000)
	before := int64(base + 6_000_000)
	results, _, err := Run(context.Background(), []Source{src}, Params{
		Anchor:    Head(),
		Direction: Forward,
		After:     &after,
		Before:    &before,
	})
	require.NoError(t, err)
	for _, e := range results {
		assert.GreaterOrEqual(t, e.Timestamp, after)
		assert.Less(t, e.Timestamp, before)
	}
	assert.Len(t, results, 4)
}

func TestRunInvalidTimeRangeRejected(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	src := buildSource(t, "invalid", base, 3, 1_000_000)

	after := int64(base + 5_000_000)
	before := int64(base)
	_, _, err := Run(context.Background(), []Source{src}, Params{
		Anchor: Head(),
		After:  &after,
		Before: &before,
	})
	assert.Error(t, err)
}

func TestRunCancellationReturnsNoPartialResult(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	src := buildSource(t, "cancelled", base, 5, 1_000_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, state, err := Run(ctx, []Source{src}, Params{
		Anchor:    Head(),
		Direction: Forward,
	})
	assert.Error(t, err)
	assert.Nil(t, results)
	assert.Nil(t, state)
}

func TestRunEmptySourcesReturnsResumeState(t *testing.T) {
	resume := NewPaginationState()
	results, state, err := Run(context.Background(), nil, Params{Resume: resume})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, state)
}

func TestSortSourcesIsDeterministic(t *testing.T) {
	base := uint64(1_700_000_000) * 1_000_000
	a := buildSource(t, "sort-a", base, 1, 0)
	b := buildSource(t, "sort-b", base, 1, 0)

	sorted1, err := SortSources([]Source{a, b})
	require.NoError(t, err)
	sorted2, err := SortSources([]Source{b, a})
	require.NoError(t, err)

	require.Len(t, sorted1, 2)
	require.Len(t, sorted2, 2)
	assert.Equal(t, sorted1[0].Index.FileID, sorted2[0].Index.FileID)
	assert.Equal(t, sorted1[1].Index.FileID, sorted2[1].Index.FileID)
}
