package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/mambatrain/internal/tensor"
)

func TestRMSNormForward(t *testing.T) {
	x := tensor.VectorOf(1, 2, 3)
	gamma := tensor.VectorOf(1, 1, 1)

	y, inv := RMSNorm(x, gamma, 0)
	assert.InDelta(t, 0.46291, inv, 1e-4)
	assert.InDelta(t, 0.46291, y.At(0), 1e-4)
	assert.InDelta(t, 0.92582, y.At(1), 1e-4)
	assert.InDelta(t, 1.38873, y.At(2), 1e-4)
	assert.InDelta(t, 1.0, float64(SumSquares(y))/3, 1e-5)
}

func TestRMSNormInPlace(t *testing.T) {
	x := tensor.VectorOf(2, 2, 2, 2)
	gamma := tensor.VectorOf(1, 2, 3, 4)
	RMSNormTo(x, x, gamma, 0)
	assert.InDeltaSlice(t, []float32{1, 2, 3, 4}, x.Data(), 1e-6)
}

// rmsLoss is Σ r ⊙ RMSNorm(x, gamma), computed in float64 through the
// float32 kernel.
func rmsLoss(x, gamma, r []float32, eps float32) float64 {
	y, _ := RMSNorm(tensor.VectorOf(x...), tensor.VectorOf(gamma...), eps)
	var s float64
	for i, v := range y.Data() {
		s += float64(v) * float64(r[i])
	}
	return s
}

func TestRMSNormBackwardMatchesFiniteDifference(t *testing.T) {
	const n = 7
	const eps = 1e-5
	rng := rand.New(rand.NewPCG(21, 22))
	x := randVector(rng, n)
	gamma := randVector(rng, n)
	r := randVector(rng, n)

	_, inv := RMSNorm(x, gamma, eps)
	dx := tensor.NewVector(n)
	dGamma := tensor.NewVector(n)
	RMSNormBackward(dx, dGamma, r, x, gamma, inv)

	settings := &fd.Settings{Formula: fd.Central, Step: 1e-3}

	wantDx := fd.Gradient(nil, func(p []float64) float64 {
		return rmsLoss(to32(p), gamma.Data(), r.Data(), eps)
	}, to64(x.Data()), settings)
	for i := range wantDx {
		assert.InDelta(t, wantDx[i], float64(dx.At(i)), 2e-2, "dx[%d]", i)
	}

	wantDg := fd.Gradient(nil, func(p []float64) float64 {
		return rmsLoss(x.Data(), to32(p), r.Data(), eps)
	}, to64(gamma.Data()), settings)
	for i := range wantDg {
		assert.InDelta(t, wantDg[i], float64(dGamma.At(i)), 2e-2, "dGamma[%d]", i)
	}
}

func TestRMSNormBackwardAccumulatesGamma(t *testing.T) {
	x := tensor.VectorOf(1, -2, 3)
	gamma := tensor.VectorOf(0.5, 1, 2)
	dy := tensor.VectorOf(1, 1, 1)
	_, inv := RMSNorm(x, gamma, 1e-6)

	dx := tensor.NewVector(3)
	once := tensor.NewVector(3)
	RMSNormBackward(dx, once, dy, x, gamma, inv)

	twice := tensor.NewVector(3)
	RMSNormBackward(dx, twice, dy, x, gamma, inv)
	RMSNormBackward(dx, twice, dy, x, gamma, inv)

	for i := 0; i < 3; i++ {
		require.InDelta(t, 2*once.At(i), twice.At(i), 1e-6)
	}
}
