package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// KindScalarSSM is the registry key of ScalarSSM.
const KindScalarSSM = "ssm.scalar"

// ScalarSSMConfig configures a ScalarSSM layer.
type ScalarSSMConfig struct {
	StateSize int // N, hidden state channels
	MaxSeqLen int
}

// Validate checks that every dimension is positive and that the weights fit
// in MaxLayerWeights.
func (c ScalarSSMConfig) Validate() error {
	if err := checkDims(KindScalarSSM, []string{"state_size", "max_seq_len"}, c.StateSize, c.MaxSeqLen); err != nil {
		return err
	}
	n := []int{c.StateSize}
	return checkWeightBudget(KindScalarSSM, n, n, n, n, n, n)
}

// ScalarSSM is a selective state-space layer over a scalar sequence.
//
// Input and output are [T, 1]. Every projection is input dependent:
//
//	α_t = σ(decay_w·x_t + decay_b)
//	B_t = input_w·x_t + input_b
//	C_t = output_w·x_t + output_b
//	h_t = α_t ⊙ h_{t-1} + B_t·x_t      (h_{-1} = 0)
//	y_t = Σ C_t ⊙ h_t
//
// All weights are [N].
type ScalarSSM struct {
	cfg ScalarSSMConfig

	decayW, decayB   *Weight
	inputW, inputB   *Weight
	outputW, outputB *Weight
}

// ScalarSSMSnapshot records the per-step gates and states.
type ScalarSSMSnapshot struct {
	input  *tensor.Matrix // [MaxSeqLen, 1]
	alpha  *tensor.Matrix // [MaxSeqLen, N]
	b      *tensor.Matrix // [MaxSeqLen, N]
	c      *tensor.Matrix // [MaxSeqLen, N]
	h      *tensor.Matrix // [MaxSeqLen, N]
	output *tensor.Matrix // [MaxSeqLen, 1]
	inGrad *tensor.Matrix // [MaxSeqLen, 1]

	carry *tensor.Vector // dL/dh from the following step
	dh    *tensor.Vector
	dpa   *tensor.Vector
}

// NewScalarSSM creates a ScalarSSM layer. Panics if cfg is invalid.
//
// The decay bias starts at 2 (α ≈ 0.88) so the state remembers from the
// first step; the B and C biases start at 1/√N and the slopes are drawn
// from U(-0.1, 0.1).
func NewScalarSSM(cfg ScalarSSMConfig, rng *rand.Rand) *ScalarSSM {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	n := tensor.Shape{cfg.StateSize}
	s := &ScalarSSM{
		cfg:     cfg,
		decayW:  NewWeight("decay_w", n),
		decayB:  NewWeight("decay_b", n),
		inputW:  NewWeight("input_w", n),
		inputB:  NewWeight("input_b", n),
		outputW: NewWeight("output_w", n),
		outputB: NewWeight("output_b", n),
	}
	bias := float32(1 / math.Sqrt(float64(cfg.StateSize)))
	Uniform(s.decayW.Value, -0.1, 0.1, rng)
	Fill(s.decayB.Value, 2)
	Uniform(s.inputW.Value, -0.1, 0.1, rng)
	Fill(s.inputB.Value, bias)
	Uniform(s.outputW.Value, -0.1, 0.1, rng)
	Fill(s.outputB.Value, bias)
	return s
}

// Config returns the layer configuration.
func (s *ScalarSSM) Config() ScalarSSMConfig { return s.cfg }

// Kind returns "ssm.scalar".
func (s *ScalarSSM) Kind() string { return KindScalarSSM }

// Version returns the serialization version of the layer record.
func (s *ScalarSSM) Version() int { return 1 }

// Hyperparameters returns state_size and max_seq_len.
func (s *ScalarSSM) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "state_size", Value: float64(s.cfg.StateSize)},
		{Name: "max_seq_len", Value: float64(s.cfg.MaxSeqLen)},
	}
}

// Weights returns decay_w, decay_b, input_w, input_b, output_w, output_b.
func (s *ScalarSSM) Weights() []*Weight {
	return []*Weight{s.decayW, s.decayB, s.inputW, s.inputB, s.outputW, s.outputB}
}

// NewSnapshot allocates scan state for MaxSeqLen steps.
func (s *ScalarSSM) NewSnapshot() *ScalarSSMSnapshot {
	T, N := s.cfg.MaxSeqLen, s.cfg.StateSize
	return &ScalarSSMSnapshot{
		input:  tensor.NewMatrix(T, 1),
		alpha:  tensor.NewMatrix(T, N),
		b:      tensor.NewMatrix(T, N),
		c:      tensor.NewMatrix(T, N),
		h:      tensor.NewMatrix(T, N),
		output: tensor.NewMatrix(T, 1),
		inGrad: tensor.NewMatrix(T, 1),
		carry:  tensor.NewVector(N),
		dh:     tensor.NewVector(N),
		dpa:    tensor.NewVector(N),
	}
}

// Forward runs the selective scan over the rows of input, one row per step.
func (s *ScalarSSM) Forward(input *tensor.Matrix, snap *ScalarSSMSnapshot) *tensor.Matrix {
	T := input.Rows()
	checkSeqLen(KindScalarSSM, T, s.cfg.MaxSeqLen)
	tensor.CheckShape("scalar ssm forward", input, tensor.Shape{T, 1})

	snap.input.Head(T).CopyFrom(input)
	y := snap.output.Head(T)

	wa, ba := s.decayW.Vector(), s.decayB.Vector()
	wb, bb := s.inputW.Vector(), s.inputB.Vector()
	wc, bc := s.outputW.Vector(), s.outputB.Vector()

	for t := 0; t < T; t++ {
		x := input.At(t, 0)
		alpha, b, c, h := snap.alpha.Row(t), snap.b.Row(t), snap.c.Row(t), snap.h.Row(t)

		cpu.ScaleTo(alpha, wa, x)
		cpu.AddInPlace(alpha, ba)
		cpu.MapTo(alpha, alpha, cpu.Sigmoid)

		cpu.ScaleTo(b, wb, x)
		cpu.AddInPlace(b, bb)

		cpu.ScaleTo(c, wc, x)
		cpu.AddInPlace(c, bc)

		if t == 0 {
			cpu.ScaleTo(h, b, x)
		} else {
			cpu.MulTo(h, alpha, snap.h.Row(t-1))
			cpu.AddScaledInPlace(h, b, x)
		}
		y.Set(t, 0, cpu.Dot(c, h))
	}
	return y
}

// Backward walks time in reverse, carrying dL/dh_t into step t-1 through α_t.
func (s *ScalarSSM) Backward(outGrad *tensor.Matrix, snap *ScalarSSMSnapshot, grads *Gradients) *tensor.Matrix {
	T := outGrad.Rows()
	checkSeqLen(KindScalarSSM, T, s.cfg.MaxSeqLen)

	wa := s.decayW.Vector()
	wb := s.inputW.Vector()
	wc := s.outputW.Vector()
	dwa, dba := grads.Vector(0), grads.Vector(1)
	dwb, dbb := grads.Vector(2), grads.Vector(3)
	dwc, dbc := grads.Vector(4), grads.Vector(5)

	g, dh, dpa := snap.carry, snap.dh, snap.dpa
	g.Zero()
	dx := snap.inGrad.Head(T)

	for t := T - 1; t >= 0; t-- {
		dy := outGrad.At(t, 0)
		x := snap.input.At(t, 0)
		alpha, b, c, h := snap.alpha.Row(t), snap.b.Row(t), snap.c.Row(t), snap.h.Row(t)

		// dC = dy·h
		cpu.AddScaledInPlace(dwc, h, dy*x)
		cpu.AddScaledInPlace(dbc, h, dy)
		grad := dy * cpu.Dot(h, wc)

		// dh = dy·C + g
		cpu.ScaleTo(dh, c, dy)
		cpu.AddInPlace(dh, g)

		// dB = dh·x; B·x also depends on x directly.
		cpu.AddScaledInPlace(dwb, dh, x*x)
		cpu.AddScaledInPlace(dbb, dh, x)
		grad += x*cpu.Dot(dh, wb) + cpu.Dot(dh, b)

		if t > 0 {
			cpu.Map3To(dpa, dh, snap.h.Row(t-1), alpha, func(d, prev, a float32) float32 {
				return d * prev * a * (1 - a)
			})
			cpu.AddScaledInPlace(dwa, dpa, x)
			cpu.AddInPlace(dba, dpa)
			grad += cpu.Dot(dpa, wa)
		}

		cpu.MulTo(g, dh, alpha)
		dx.Set(t, 0, grad)
	}
	return dx
}
