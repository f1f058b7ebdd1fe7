package optim_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/optim"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

// scalarLayer returns a 1→1 dense layer (weight [1,1], bias [1]) and a
// matching gradient accumulator.
func scalarLayer(w, b float32) ([]nn.Layer, []*nn.Gradients) {
	d := nn.NewDense(nn.DenseConfig{In: 1, Out: 1, MaxSeqLen: 1}, rand.New(rand.NewPCG(1, 1)))
	d.Weight().Set(0, 0, w)
	d.Bias().Set(0, b)
	l := nn.Erase[*nn.DenseSnapshot](d)
	return []nn.Layer{l}, []*nn.Gradients{nn.NewGradients(l)}
}

func weightOf(layers []nn.Layer) float32 {
	return layers[0].Weights()[0].Value.Data()[0]
}

func setGrad(grads []*nn.Gradients, g float32) {
	grads[0].At(0).Data()[0] = g
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	layers, grads := scalarLayer(2, 0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})

	setGrad(grads, 1)
	opt.Apply(layers, grads, 1)

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if got := weightOf(layers); !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want %f", got, 1.9)
	}
	assert.Equal(t, 1, opt.Iteration())
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	layers, grads := scalarLayer(1, 0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	setGrad(grads, 1)
	opt.Apply(layers, grads, 1) // v = 1, x = 0.9
	opt.Apply(layers, grads, 1) // v = 1.9, x = 0.71

	if got := weightOf(layers); !floatEqual(got, 0.71, 1e-6) {
		t.Errorf("SGD momentum: got %f, want %f", got, 0.71)
	}
}

func TestSGD_AveragesOverBatch(t *testing.T) {
	layers, grads := scalarLayer(1, 0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})

	setGrad(grads, 4) // sum over 4 samples of gradient 1
	opt.Apply(layers, grads, 4)
	assert.InDelta(t, 0.9, weightOf(layers), 1e-6)
	assert.Equal(t, float32(4), grads[0].At(0).Data()[0], "Apply must not modify gradients")
}

func TestSGD_StateDict(t *testing.T) {
	layers, grads := scalarLayer(1, 0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	setGrad(grads, 1)
	opt.Apply(layers, grads, 1)

	weights := layers[0].Weights()
	st := opt.StateDict(weights)
	assert.Equal(t, 1, st.Iteration)
	assert.Equal(t, []float32{1}, st.Buffers["velocity.0"])

	fresh := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	require.NoError(t, fresh.LoadStateDict(weights, st))
	assert.Equal(t, st, fresh.StateDict(weights))

	err := fresh.LoadStateDict(weights, optim.State{Buffers: map[string][]float32{"velocity.7": {1}}})
	assert.ErrorIs(t, err, optim.ErrStateMismatch)
}

func TestAdam_Defaults(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{})
	assert.Equal(t, float32(0.001), opt.LR())
	assert.Equal(t, 0, opt.Iteration())

	opt.SetLR(0.5)
	assert.Equal(t, float32(0.5), opt.LR())
}

// With a constant gradient, m̂ = g and v̂ = g², so every step has size lr.
func TestAdam_StepBoundedByLR(t *testing.T) {
	const lr = 0.01
	for _, g := range []float32{1e-4, 0.3, -2, 5000} {
		layers, grads := scalarLayer(0, 0)
		opt := optim.NewAdam(optim.AdamConfig{LR: lr})
		setGrad(grads, g)

		prev := weightOf(layers)
		for step := 0; step < 20; step++ {
			opt.Apply(layers, grads, 1)
			cur := weightOf(layers)
			delta := cur - prev
			assert.LessOrEqual(t, delta*delta, float32(lr*lr)*1.0001, "g=%v step=%d", g, step)
			assert.Greater(t, -delta*g, float32(0), "step must oppose the gradient")
			prev = cur
		}
		assert.Equal(t, 20, opt.Iteration())
	}
}

func TestAdam_FirstStepIsLR(t *testing.T) {
	layers, grads := scalarLayer(1, 0)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.05})
	setGrad(grads, 0.25)
	opt.Apply(layers, grads, 1)
	assert.InDelta(t, 0.95, weightOf(layers), 1e-5)
}

// Weights large enough to be updated by several goroutines follow the same
// per-element rule as small ones.
func TestAdam_LargeWeightUpdatesEveryElement(t *testing.T) {
	d := nn.NewDense(nn.DenseConfig{In: 256, Out: 256, MaxSeqLen: 1}, rand.New(rand.NewPCG(1, 1)))
	l := nn.Erase[*nn.DenseSnapshot](d)
	grads := nn.NewGradients(l)

	before := append([]float32(nil), d.Weight().Data()...)
	g := grads.At(0).Data()
	for i := range g {
		g[i] = float32(i%7) - 3
	}

	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	opt.Apply([]nn.Layer{l}, []*nn.Gradients{grads}, 1)

	for i, w := range d.Weight().Data() {
		var want float32
		switch {
		case g[i] > 0:
			want = before[i] - 0.01
		case g[i] < 0:
			want = before[i] + 0.01
		default:
			want = before[i]
		}
		require.InDelta(t, want, w, 1e-5, "element %d", i)
	}
}

func TestAdam_IterationPerApply(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	layers := []nn.Layer{
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 2, Out: 2, MaxSeqLen: 1}, rng)),
		nn.Erase[*nn.ScalarSSMSnapshot](nn.NewScalarSSM(nn.ScalarSSMConfig{StateSize: 3, MaxSeqLen: 1}, rng)),
	}
	grads := []*nn.Gradients{nn.NewGradients(layers[0]), nn.NewGradients(layers[1])}

	opt := optim.NewAdam(optim.AdamConfig{})
	for i := 0; i < 3; i++ {
		opt.Apply(layers, grads, 8)
	}
	assert.Equal(t, 3, opt.Iteration(), "one timestep per batch, not per weight")
}

func TestAdam_ClipsLargeGradients(t *testing.T) {
	layers, grads := scalarLayer(0, 0)
	grads[0].At(0).Data()[0] = 1e6
	grads[0].At(1).Data()[0] = 5e5

	opt := optim.NewAdam(optim.AdamConfig{ClipThreshold: 100})
	opt.Apply(layers, grads, 1)

	st := opt.StateDict(layers[0].Weights())
	// m = (1 - β1) · g · 100/max|g|; each tensor is clipped on its own.
	assert.InDelta(t, 10, st.Buffers["m.0"][0], 1e-3)
	assert.InDelta(t, 10, st.Buffers["m.1"][0], 1e-3)

	layers, grads = scalarLayer(0, 0)
	grads[0].At(0).Data()[0] = 50
	unclipped := optim.NewAdam(optim.AdamConfig{ClipThreshold: 100})
	unclipped.Apply(layers, grads, 1)
	assert.InDelta(t, 5, unclipped.StateDict(layers[0].Weights()).Buffers["m.0"][0], 1e-4)
}

func TestAdam_MinimizesQuadratic(t *testing.T) {
	layers, grads := scalarLayer(-2, 0)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.05})

	for i := 0; i < 2000; i++ {
		x := weightOf(layers)
		setGrad(grads, 2*(x-3))
		opt.Apply(layers, grads, 1)
	}
	assert.InDelta(t, 3, weightOf(layers), 2e-2)
}

func TestAdam_StateDictRoundTrip(t *testing.T) {
	layers, grads := scalarLayer(1, 1)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	setGrad(grads, 0.5)
	opt.Apply(layers, grads, 1)
	opt.Apply(layers, grads, 1)

	weights := layers[0].Weights()
	st := opt.StateDict(weights)
	require.Len(t, st.Buffers, 4)

	restored := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	require.NoError(t, restored.LoadStateDict(weights, st))
	assert.Equal(t, 2, restored.Iteration())
	assert.Equal(t, st, restored.StateDict(weights))

	bad := optim.State{Buffers: map[string][]float32{"m.0": {1, 2}, "v.0": {1}}}
	assert.ErrorIs(t, restored.LoadStateDict(weights, bad), optim.ErrStateMismatch)

	bad = optim.State{Buffers: map[string][]float32{"q.0": {1}}}
	assert.ErrorIs(t, restored.LoadStateDict(weights, bad), optim.ErrStateMismatch)
}

func TestOptimizersImplementInterface(t *testing.T) {
	var _ optim.Optimizer = optim.NewAdam(optim.AdamConfig{})
	var _ optim.Optimizer = optim.NewSGD(optim.SGDConfig{})
}
