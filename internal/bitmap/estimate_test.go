package bitmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateDataSizeMatchesActualOutput(t *testing.T) {
	universe := uint32(5000)
	r := rand.New(rand.NewSource(3))

	for trial := 0; trial < 10; trial++ {
		values := randomSubset(r, universe, 30+trial*5)
		got := EstimateDataSize(values, universe)
		want := len(FromSortedIter(values, universe).Bytes())
		assert.Equal(t, want, got, "trial %d, n=%d", trial, len(values))
	}
}

func TestEstimateDataSizeEmpty(t *testing.T) {
	got := EstimateDataSize(nil, 1000)
	want := len(FromSortedIter(nil, 1000).Bytes())
	assert.Equal(t, want, got)
}
