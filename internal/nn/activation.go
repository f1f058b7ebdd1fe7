package nn

import (
	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// KindSiLU is the registry key of SiLU.
const KindSiLU = "silu"

// SiLUConfig configures a SiLU layer.
type SiLUConfig struct {
	Dim       int
	MaxSeqLen int
}

// Validate checks that every dimension is positive.
func (c SiLUConfig) Validate() error {
	return checkDims(KindSiLU, []string{"dim", "max_seq_len"}, c.Dim, c.MaxSeqLen)
}

// SiLU applies the element-wise function f(x) = x·σ(x). It has no weights.
type SiLU struct {
	cfg SiLUConfig
}

// SiLUSnapshot holds the pre-activation input.
type SiLUSnapshot struct {
	input  *tensor.Matrix
	output *tensor.Matrix
	inGrad *tensor.Matrix
}

// NewSiLU creates a SiLU layer. Panics if cfg is invalid.
func NewSiLU(cfg SiLUConfig) *SiLU {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &SiLU{cfg: cfg}
}

// Kind returns "silu".
func (s *SiLU) Kind() string { return KindSiLU }

// Version returns 1.
func (s *SiLU) Version() int { return 1 }

// Hyperparameters returns dim and max_seq_len.
func (s *SiLU) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "dim", Value: float64(s.cfg.Dim)},
		{Name: "max_seq_len", Value: float64(s.cfg.MaxSeqLen)},
	}
}

// Weights returns nil (SiLU has no trainable parameters).
func (s *SiLU) Weights() []*Weight { return nil }

// NewSnapshot allocates input and output buffers for MaxSeqLen rows.
func (s *SiLU) NewSnapshot() *SiLUSnapshot {
	return &SiLUSnapshot{
		input:  tensor.NewMatrix(s.cfg.MaxSeqLen, s.cfg.Dim),
		output: tensor.NewMatrix(s.cfg.MaxSeqLen, s.cfg.Dim),
		inGrad: tensor.NewMatrix(s.cfg.MaxSeqLen, s.cfg.Dim),
	}
}

// Forward applies x·σ(x) elementwise.
func (s *SiLU) Forward(input *tensor.Matrix, snap *SiLUSnapshot) *tensor.Matrix {
	T := input.Rows()
	checkSeqLen(KindSiLU, T, s.cfg.MaxSeqLen)
	tensor.CheckShape("silu forward", input, tensor.Shape{T, s.cfg.Dim})

	x := snap.input.Head(T)
	x.CopyFrom(input)
	y := snap.output.Head(T)
	cpu.MapTo(y, x, cpu.SiLU)
	return y
}

// Backward returns the input gradient; SiLU has no weights.
func (s *SiLU) Backward(outGrad *tensor.Matrix, snap *SiLUSnapshot, _ *Gradients) *tensor.Matrix {
	T := outGrad.Rows()
	checkSeqLen(KindSiLU, T, s.cfg.MaxSeqLen)

	dx := snap.inGrad.Head(T)
	cpu.Map2To(dx, outGrad, snap.input.Head(T), func(dy, x float32) float32 {
		return dy * cpu.SiLUGrad(x)
	})
	return dx
}
