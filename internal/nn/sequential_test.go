package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

func newMLP() (*nn.Model, []nn.Layer) {
	rng := newRNG()
	layers := []nn.Layer{
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 2, Out: 4, MaxSeqLen: 3}, rng)),
		nn.Erase[*nn.SiLUSnapshot](nn.NewSiLU(nn.SiLUConfig{Dim: 4, MaxSeqLen: 3})),
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 4, Out: 1, MaxSeqLen: 3}, rng)),
	}
	return nn.NewModel(layers...), layers
}

func TestModelPredictMatchesLayers(t *testing.T) {
	model, layers := newMLP()
	input := randMatrix(newRNG(), 3, 2)

	x := input
	for _, l := range layers {
		x = l.Forward(x, l.NewSnapshot())
	}

	got := model.Predict(input)
	assert.Equal(t, x.Data(), got.Data())
	assert.True(t, got.Owned())
}

func TestModelNumWeights(t *testing.T) {
	model, _ := newMLP()
	assert.Equal(t, 3, model.Len())
	assert.Len(t, model.Weights(), 4)
	assert.Equal(t, 2*4+4+4*1+1, model.NumWeights())
}

func TestPassBackwardMatchesFiniteDifference(t *testing.T) {
	model, _ := newMLP()
	rng := newRNG()
	input := randMatrix(rng, 3, 2)
	probe := randMatrix(rng, 3, 1)

	grads := model.RentGradientSet()
	pass := model.Begin()
	pass.Forward(input)
	dx := pass.Backward(probe, grads).Clone()
	pass.Release()

	loss := func() float64 {
		out := model.Predict(input)
		var s float64
		for i, v := range out.Data() {
			s += float64(v) * float64(probe.Data()[i])
		}
		return s
	}

	// First layer weight gradient through the whole chain.
	w := model.Layers()[0].Weights()[0].Value.Data()
	for i := range w {
		orig := w[i]
		w[i] = orig + 1e-2
		up := loss()
		w[i] = orig - 1e-2
		down := loss()
		w[i] = orig
		assert.InDelta(t, (up-down)/2e-2, float64(grads[0].At(0).Data()[i]), 1e-2)
	}
	require.Equal(t, tensor.Shape{3, 2}, dx.Shape())

	model.ReturnGradientSet(grads)
	for _, g := range model.RentGradientSet() {
		assert.True(t, g.IsZero())
	}
}

func TestPassReleaseReturnsSnapshots(t *testing.T) {
	model, layers := newMLP()
	pass := model.Begin()
	pass.Forward(tensor.NewMatrix(2, 2))
	pass.Release()

	first := model.Pool().RentSnapshot(layers[0])
	assert.IsType(t, &nn.DenseSnapshot{}, first)

	// Releasing twice is harmless.
	pass.Release()
}
