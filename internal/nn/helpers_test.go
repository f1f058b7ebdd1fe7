package nn_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func randMatrix(rng *rand.Rand, rows, cols int) *tensor.Matrix {
	m := tensor.NewMatrix(rows, cols)
	for i := range m.Data() {
		m.Data()[i] = float32(rng.Float64()*2 - 1)
	}
	return m
}

// probeLoss is Σ out ⊙ probe; its gradient with respect to out is probe.
func probeLoss(l nn.Layer, input, probe *tensor.Matrix) float64 {
	out := l.Forward(input, l.NewSnapshot())
	var s float64
	for i, v := range out.Data() {
		s += float64(v) * float64(probe.Data()[i])
	}
	return s
}

// numericGrad differentiates probeLoss with respect to data, restoring data
// afterwards.
func numericGrad(l nn.Layer, data []float32, input, probe *tensor.Matrix) []float64 {
	orig := append([]float32(nil), data...)
	x0 := make([]float64, len(data))
	for i, v := range data {
		x0[i] = float64(v)
	}
	grad := fd.Gradient(nil, func(p []float64) float64 {
		for i, v := range p {
			data[i] = float32(v)
		}
		return probeLoss(l, input, probe)
	}, x0, &fd.Settings{Formula: fd.Central, Step: 5e-3})
	copy(data, orig)
	return grad
}

func assertGradClose(t *testing.T, name string, want []float64, got []float32) {
	t.Helper()
	require.Len(t, got, len(want), name)
	for i := range want {
		tol := 2e-2 * math.Max(1, math.Abs(want[i]))
		assert.InDelta(t, want[i], float64(got[i]), tol, "%s[%d]", name, i)
	}
}

// gradCheck compares Backward with central finite differences for every
// weight and for the input.
func gradCheck(t *testing.T, l nn.Layer, input, probe *tensor.Matrix) {
	t.Helper()

	grads := nn.NewGradients(l)
	snap := l.NewSnapshot()
	l.Forward(input, snap)
	dx := l.Backward(probe, snap, grads)

	for i, w := range l.Weights() {
		want := numericGrad(l, w.Value.Data(), input, probe)
		assertGradClose(t, w.Name, want, grads.At(i).Data())
	}

	in := input.Clone()
	want := numericGrad(l, in.Data(), in, probe)
	assertGradClose(t, "input", want, dx.Data())
}

// requirePanicIs runs f and checks that it panics with an error matching target.
func requirePanicIs(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, target), "got %v, want %v", err, target)
	}()
	f()
}
