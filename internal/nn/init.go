package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Xavier fills v from the Glorot uniform distribution
// U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
func Xavier(v tensor.View, fanIn, fanOut int, rng *rand.Rand) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	Uniform(v, -bound, bound, rng)
}

// Uniform fills v with values drawn from U(lo, hi).
func Uniform(v tensor.View, lo, hi float64, rng *rand.Rand) {
	data := v.Data()
	for i := range data {
		data[i] = float32(lo + rng.Float64()*(hi-lo))
	}
}

// Fill sets every element of v to x.
func Fill(v tensor.View, x float32) {
	data := v.Data()
	for i := range data {
		data[i] = x
	}
}
