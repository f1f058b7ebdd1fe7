package train

import (
	"iter"
	"math/rand/v2"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// CumulativeSum generates n sequences of length seqLen with inputs drawn
// from U(-1, 1) and targets y_t = Σ_{i≤t} x_i, both shaped [seqLen, 1].
func CumulativeSum(rng *rand.Rand, n, seqLen int) []Sample {
	samples := make([]Sample, n)
	for s := range samples {
		x := tensor.NewMatrix(seqLen, 1)
		y := tensor.NewMatrix(seqLen, 1)
		var sum float32
		for t := 0; t < seqLen; t++ {
			v := float32(rng.Float64()*2 - 1)
			sum += v
			x.Set(t, 0, v)
			y.Set(t, 0, sum)
		}
		samples[s] = Sample{Input: x, Target: y}
	}
	return samples
}

// Batches yields consecutive batches of batchSize samples. The last batch
// may be shorter.
func Batches(samples []Sample, batchSize int) iter.Seq[[]Sample] {
	return func(yield func([]Sample) bool) {
		for start := 0; start < len(samples); start += batchSize {
			if !yield(samples[start:min(start+batchSize, len(samples))]) {
				return
			}
		}
	}
}

// Shuffled returns a copy of samples in an order drawn from rng.
func Shuffled(rng *rand.Rand, samples []Sample) []Sample {
	out := append([]Sample(nil), samples...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
