package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// TestWeight tests Weight creation and typed access.
func TestWeight(t *testing.T) {
	w := nn.NewWeight("bias", tensor.Shape{3})
	assert.Equal(t, "bias", w.Name)
	assert.Equal(t, tensor.Shape{3}, w.Value.Shape())
	assert.Equal(t, 3, w.Vector().Len())

	m := nn.NewWeight("weight", tensor.Shape{2, 4})
	assert.Equal(t, 4, m.Matrix().Cols())

	assert.Panics(t, func() { nn.NewWeight("bad", tensor.Shape{0}) })
}

func TestDenseForward(t *testing.T) {
	d := nn.NewDense(nn.DenseConfig{In: 2, Out: 2, MaxSeqLen: 4}, newRNG())
	copy(d.Weight().Data(), []float32{1, 2, 3, 4})
	copy(d.Bias().Data(), []float32{0.5, -0.5})

	out := d.Forward(tensor.MatrixOf(2, 2, 1, 1, 0, 1), d.NewSnapshot())
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{3.5, 6.5, 2.5, 3.5}, out.Data())
}

func TestDenseGradients(t *testing.T) {
	rng := newRNG()
	d := nn.NewDense(nn.DenseConfig{In: 3, Out: 2, MaxSeqLen: 5}, rng)
	gradCheck(t, nn.Erase[*nn.DenseSnapshot](d), randMatrix(rng, 4, 3), randMatrix(rng, 4, 2))
}

func TestRMSNormLayerGradients(t *testing.T) {
	rng := newRNG()
	n := nn.NewRMSNorm(nn.RMSNormConfig{Dim: 5, MaxSeqLen: 3})
	nn.Uniform(n.Gamma(), 0.5, 1.5, rng)
	gradCheck(t, nn.Erase[*nn.RMSNormSnapshot](n), randMatrix(rng, 3, 5), randMatrix(rng, 3, 5))
}

func TestSiLULayerGradients(t *testing.T) {
	rng := newRNG()
	s := nn.NewSiLU(nn.SiLUConfig{Dim: 4, MaxSeqLen: 2})
	assert.Empty(t, s.Weights())
	gradCheck(t, nn.Erase[*nn.SiLUSnapshot](s), randMatrix(rng, 2, 4), randMatrix(rng, 2, 4))
}

func TestErasedLayerDelegates(t *testing.T) {
	d := nn.NewDense(nn.DenseConfig{In: 1, Out: 1, MaxSeqLen: 1}, newRNG())
	l := nn.Erase[*nn.DenseSnapshot](d)

	assert.Equal(t, nn.KindDense, l.Kind())
	assert.Equal(t, 1, l.Version())
	assert.Same(t, d, l.Block())
	assert.Len(t, l.Weights(), 2)
	assert.IsType(t, &nn.DenseSnapshot{}, l.NewSnapshot())
}

func TestForeignSnapshotPanics(t *testing.T) {
	rng := newRNG()
	dense := nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 1, Out: 1, MaxSeqLen: 1}, rng))
	silu := nn.Erase[*nn.SiLUSnapshot](nn.NewSiLU(nn.SiLUConfig{Dim: 1, MaxSeqLen: 1}))

	requirePanicIs(t, nn.ErrForeignSnapshot, func() {
		dense.Forward(tensor.NewMatrix(1, 1), silu.NewSnapshot())
	})
}

func TestSequenceLengthChecked(t *testing.T) {
	s := nn.NewSiLU(nn.SiLUConfig{Dim: 2, MaxSeqLen: 3})
	snap := s.NewSnapshot()

	requirePanicIs(t, nn.ErrSequenceLength, func() {
		s.Forward(tensor.NewMatrix(4, 2), snap)
	})
	requirePanicIs(t, nn.ErrSequenceLength, func() {
		s.Forward(tensor.NewMatrix(0, 2), snap)
	})
}

func TestShorterSequenceUsesHead(t *testing.T) {
	s := nn.NewSiLU(nn.SiLUConfig{Dim: 2, MaxSeqLen: 8})
	out := s.Forward(tensor.MatrixOf(1, 2, 0, 0), s.NewSnapshot())
	assert.Equal(t, tensor.Shape{1, 2}, out.Shape())
	assert.Equal(t, []float32{0, 0}, out.Data())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"dense", nn.DenseConfig{In: 1, Out: 0, MaxSeqLen: 1}.Validate()},
		{"rmsnorm", nn.RMSNormConfig{Dim: 0, MaxSeqLen: 1}.Validate()},
		{"silu", nn.SiLUConfig{Dim: 1}.Validate()},
		{"scalar ssm", nn.ScalarSSMConfig{MaxSeqLen: 1}.Validate()},
		{"selective ssm", nn.SelectiveSSMConfig{ModelDim: 1, StateSize: 1}.Validate()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, nn.ErrInvalidHyperparameter)
		})
	}

	require.NoError(t, nn.DenseConfig{In: 1, Out: 1, MaxSeqLen: 1}.Validate())
}
