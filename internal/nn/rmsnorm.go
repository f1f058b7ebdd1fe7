package nn

import (
	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// KindRMSNorm is the registry key of RMSNorm.
const KindRMSNorm = "rmsnorm"

// DefaultRMSNormEpsilon is used when RMSNormConfig.Epsilon is zero.
const DefaultRMSNormEpsilon = 1e-5

// RMSNormConfig configures an RMSNorm layer.
type RMSNormConfig struct {
	Dim       int
	MaxSeqLen int
	Epsilon   float32 // default: 1e-5
}

// Validate checks that every dimension is positive and that the weights fit
// in MaxLayerWeights.
func (c RMSNormConfig) Validate() error {
	if err := checkDims(KindRMSNorm, []string{"dim", "max_seq_len"}, c.Dim, c.MaxSeqLen); err != nil {
		return err
	}
	return checkWeightBudget(KindRMSNorm, []int{c.Dim})
}

// RMSNorm applies Root Mean Square Normalization to every row.
//
// Formula: y = x / sqrt(mean(x²) + eps) * gamma
//
// The gamma parameter is initialized to ones.
type RMSNorm struct {
	cfg   RMSNormConfig
	gamma *Weight // [Dim]
}

// RMSNormSnapshot holds the inputs and per-row inverse RMS values.
type RMSNormSnapshot struct {
	input  *tensor.Matrix
	output *tensor.Matrix
	inGrad *tensor.Matrix
	invRMS []float32
}

// NewRMSNorm creates an RMSNorm layer. Panics if cfg is invalid.
func NewRMSNorm(cfg RMSNormConfig) *RMSNorm {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = DefaultRMSNormEpsilon
	}
	n := &RMSNorm{cfg: cfg, gamma: NewWeight("gamma", tensor.Shape{cfg.Dim})}
	Fill(n.gamma.Value, 1)
	return n
}

// Gamma returns the learnable scale.
func (n *RMSNorm) Gamma() *tensor.Vector { return n.gamma.Vector() }

// Kind returns "rmsnorm".
func (n *RMSNorm) Kind() string { return KindRMSNorm }

// Version returns 1.
func (n *RMSNorm) Version() int { return 1 }

// Hyperparameters returns dim, max_seq_len and epsilon.
func (n *RMSNorm) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "dim", Value: float64(n.cfg.Dim)},
		{Name: "max_seq_len", Value: float64(n.cfg.MaxSeqLen)},
		{Name: "epsilon", Value: float64(n.cfg.Epsilon)},
	}
}

// Weights returns gamma.
func (n *RMSNorm) Weights() []*Weight { return []*Weight{n.gamma} }

// NewSnapshot allocates per-row buffers for MaxSeqLen rows.
func (n *RMSNorm) NewSnapshot() *RMSNormSnapshot {
	return &RMSNormSnapshot{
		input:  tensor.NewMatrix(n.cfg.MaxSeqLen, n.cfg.Dim),
		output: tensor.NewMatrix(n.cfg.MaxSeqLen, n.cfg.Dim),
		inGrad: tensor.NewMatrix(n.cfg.MaxSeqLen, n.cfg.Dim),
		invRMS: make([]float32, n.cfg.MaxSeqLen),
	}
}

// Forward normalizes each row by its root mean square and scales by gamma.
func (n *RMSNorm) Forward(input *tensor.Matrix, snap *RMSNormSnapshot) *tensor.Matrix {
	T := input.Rows()
	checkSeqLen(KindRMSNorm, T, n.cfg.MaxSeqLen)
	tensor.CheckShape("rmsnorm forward", input, tensor.Shape{T, n.cfg.Dim})

	x := snap.input.Head(T)
	x.CopyFrom(input)
	y := snap.output.Head(T)
	gamma := n.gamma.Vector()
	for t := 0; t < T; t++ {
		snap.invRMS[t] = cpu.RMSNormTo(y.Row(t), x.Row(t), gamma, n.cfg.Epsilon)
	}
	return y
}

// Backward accumulates the gamma gradient and returns the input gradient.
func (n *RMSNorm) Backward(outGrad *tensor.Matrix, snap *RMSNormSnapshot, grads *Gradients) *tensor.Matrix {
	T := outGrad.Rows()
	checkSeqLen(KindRMSNorm, T, n.cfg.MaxSeqLen)

	x := snap.input.Head(T)
	dx := snap.inGrad.Head(T)
	gamma := n.gamma.Vector()
	dGamma := grads.Vector(0)
	for t := 0; t < T; t++ {
		cpu.RMSNormBackward(dx.Row(t), dGamma, outGrad.Row(t), x.Row(t), gamma, snap.invRMS[t])
	}
	return dx
}
