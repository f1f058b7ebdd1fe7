package train_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/mambatrain/internal/train"
)

func TestCumulativeSumTargets(t *testing.T) {
	samples := train.CumulativeSum(rand.New(rand.NewPCG(1, 1)), 3, 5)
	assert.Len(t, samples, 3)
	for _, s := range samples {
		var sum float32
		for i := 0; i < 5; i++ {
			x := s.Input.At(i, 0)
			assert.True(t, x >= -1 && x < 1)
			sum += x
			assert.InDelta(t, sum, s.Target.At(i, 0), 1e-6)
		}
	}
}

func TestBatches(t *testing.T) {
	samples := train.CumulativeSum(rand.New(rand.NewPCG(1, 1)), 7, 2)
	var sizes []int
	for b := range train.Batches(samples, 3) {
		sizes = append(sizes, len(b))
	}
	assert.Equal(t, []int{3, 3, 1}, sizes)

	// Early exit.
	for range train.Batches(samples, 3) {
		break
	}
}

func TestShuffledKeepsSamples(t *testing.T) {
	samples := train.CumulativeSum(rand.New(rand.NewPCG(1, 1)), 10, 2)
	shuffled := train.Shuffled(rand.New(rand.NewPCG(2, 2)), samples)
	assert.ElementsMatch(t, samples, shuffled)
}
