package nn

import (
	"math/rand/v2"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// KindSelectiveSSM is the registry key of SelectiveSSM.
const KindSelectiveSSM = "ssm.selective"

// SelectiveSSMConfig configures a SelectiveSSM layer.
type SelectiveSSMConfig struct {
	ModelDim  int // D, features per input row
	StateSize int // N, hidden state channels
	MaxSeqLen int
}

// Validate checks that every dimension is positive and that the weights fit
// in MaxLayerWeights.
func (c SelectiveSSMConfig) Validate() error {
	err := checkDims(KindSelectiveSSM, []string{"model_dim", "state_size", "max_seq_len"},
		c.ModelDim, c.StateSize, c.MaxSeqLen)
	if err != nil {
		return err
	}
	nd := []int{c.StateSize, c.ModelDim}
	return checkWeightBudget(KindSelectiveSSM, nd, nd, nd, nd, []int{c.StateSize}, nd)
}

// SelectiveSSM is the embedded selective state-space layer.
//
// For each row x_t ∈ R^D:
//
//	a_t = σ(W_A x_t + decay_bias)
//	b_t = SiLU(W_B x_t)
//	c_t = SiLU(W_C x_t)
//	u_t = W_X x_t
//	h_t = a_t ⊙ h_{t-1} + b_t ⊙ u_t
//	y_t = W_O (c_t ⊙ h_t)
//
// W_A, W_B, W_C, W_X are [N, D], decay_bias is [N] and W_O is [D, N].
type SelectiveSSM struct {
	cfg SelectiveSSMConfig

	wa, wb, wc, wx *Weight
	decayBias      *Weight
	wo             *Weight
}

// SelectiveSSMSnapshot records gates, pre-activations and states per step.
type SelectiveSSMSnapshot struct {
	input  *tensor.Matrix // [MaxSeqLen, D]
	a      *tensor.Matrix // [MaxSeqLen, N]
	pb, b  *tensor.Matrix // [MaxSeqLen, N]
	pc, c  *tensor.Matrix // [MaxSeqLen, N]
	u      *tensor.Matrix // [MaxSeqLen, N]
	h      *tensor.Matrix // [MaxSeqLen, N]
	z      *tensor.Matrix // [MaxSeqLen, N]
	output *tensor.Matrix // [MaxSeqLen, D]
	inGrad *tensor.Matrix // [MaxSeqLen, D]

	carry, dz, dh     *tensor.Vector
	dpa, dpb, dpc, du *tensor.Vector
}

// NewSelectiveSSM creates a SelectiveSSM layer. Panics if cfg is invalid.
//
// Projections use Xavier initialization and the decay bias starts at 2.
func NewSelectiveSSM(cfg SelectiveSSMConfig, rng *rand.Rand) *SelectiveSSM {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	D, N := cfg.ModelDim, cfg.StateSize
	s := &SelectiveSSM{
		cfg:       cfg,
		wa:        NewWeight("w_a", tensor.Shape{N, D}),
		wb:        NewWeight("w_b", tensor.Shape{N, D}),
		wc:        NewWeight("w_c", tensor.Shape{N, D}),
		wx:        NewWeight("w_x", tensor.Shape{N, D}),
		decayBias: NewWeight("decay_bias", tensor.Shape{N}),
		wo:        NewWeight("w_o", tensor.Shape{D, N}),
	}
	for _, w := range []*Weight{s.wa, s.wb, s.wc, s.wx} {
		Xavier(w.Value, D, N, rng)
	}
	Fill(s.decayBias.Value, 2)
	Xavier(s.wo.Value, N, D, rng)
	return s
}

// Config returns the layer configuration.
func (s *SelectiveSSM) Config() SelectiveSSMConfig { return s.cfg }

// Kind returns "ssm.selective".
func (s *SelectiveSSM) Kind() string { return KindSelectiveSSM }

// Version returns the serialization version of the layer record.
func (s *SelectiveSSM) Version() int { return 1 }

// Hyperparameters returns model_dim, state_size and max_seq_len.
func (s *SelectiveSSM) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "model_dim", Value: float64(s.cfg.ModelDim)},
		{Name: "state_size", Value: float64(s.cfg.StateSize)},
		{Name: "max_seq_len", Value: float64(s.cfg.MaxSeqLen)},
	}
}

// Weights returns w_a, w_b, w_c, w_x, decay_bias, w_o.
func (s *SelectiveSSM) Weights() []*Weight {
	return []*Weight{s.wa, s.wb, s.wc, s.wx, s.decayBias, s.wo}
}

// NewSnapshot allocates per-step gates and states for MaxSeqLen steps.
func (s *SelectiveSSM) NewSnapshot() *SelectiveSSMSnapshot {
	T, D, N := s.cfg.MaxSeqLen, s.cfg.ModelDim, s.cfg.StateSize
	return &SelectiveSSMSnapshot{
		input:  tensor.NewMatrix(T, D),
		a:      tensor.NewMatrix(T, N),
		pb:     tensor.NewMatrix(T, N),
		b:      tensor.NewMatrix(T, N),
		pc:     tensor.NewMatrix(T, N),
		c:      tensor.NewMatrix(T, N),
		u:      tensor.NewMatrix(T, N),
		h:      tensor.NewMatrix(T, N),
		z:      tensor.NewMatrix(T, N),
		output: tensor.NewMatrix(T, D),
		inGrad: tensor.NewMatrix(T, D),
		carry:  tensor.NewVector(N),
		dz:     tensor.NewVector(N),
		dh:     tensor.NewVector(N),
		dpa:    tensor.NewVector(N),
		dpb:    tensor.NewVector(N),
		dpc:    tensor.NewVector(N),
		du:     tensor.NewVector(N),
	}
}

// Forward runs the embedded selective scan, one input row per time step.
func (s *SelectiveSSM) Forward(input *tensor.Matrix, snap *SelectiveSSMSnapshot) *tensor.Matrix {
	T := input.Rows()
	checkSeqLen(KindSelectiveSSM, T, s.cfg.MaxSeqLen)
	tensor.CheckShape("selective ssm forward", input, tensor.Shape{T, s.cfg.ModelDim})

	in := snap.input.Head(T)
	in.CopyFrom(input)
	y := snap.output.Head(T)

	wa, wb, wc, wx := s.wa.Matrix(), s.wb.Matrix(), s.wc.Matrix(), s.wx.Matrix()
	bias := s.decayBias.Vector()
	wo := s.wo.Matrix()

	for t := 0; t < T; t++ {
		x := in.Row(t)
		a, h, u := snap.a.Row(t), snap.h.Row(t), snap.u.Row(t)
		b, c := snap.b.Row(t), snap.c.Row(t)
		pb, pc := snap.pb.Row(t), snap.pc.Row(t)

		cpu.MatVecTo(a, wa, x)
		cpu.AddInPlace(a, bias)
		cpu.MapTo(a, a, cpu.Sigmoid)

		cpu.MatVecTo(pb, wb, x)
		cpu.MapTo(b, pb, cpu.SiLU)
		cpu.MatVecTo(pc, wc, x)
		cpu.MapTo(c, pc, cpu.SiLU)
		cpu.MatVecTo(u, wx, x)

		cpu.MulTo(h, b, u)
		if t > 0 {
			cpu.MulAddTo(h, a, snap.h.Row(t-1))
		}

		z := snap.z.Row(t)
		cpu.MulTo(z, c, h)
		cpu.MatVecTo(y.Row(t), wo, z)
	}
	return y
}

// Backward walks time in reverse, carrying dL/dh_t into step t-1 through a_t.
// For a single step the decay parameters receive exactly zero gradient.
func (s *SelectiveSSM) Backward(outGrad *tensor.Matrix, snap *SelectiveSSMSnapshot, grads *Gradients) *tensor.Matrix {
	T := outGrad.Rows()
	checkSeqLen(KindSelectiveSSM, T, s.cfg.MaxSeqLen)

	wa, wb, wc, wx := s.wa.Matrix(), s.wb.Matrix(), s.wc.Matrix(), s.wx.Matrix()
	wo := s.wo.Matrix()
	dWA, dWB, dWC, dWX := grads.Matrix(0), grads.Matrix(1), grads.Matrix(2), grads.Matrix(3)
	dBias, dWO := grads.Vector(4), grads.Matrix(5)

	g, dz, dh := snap.carry, snap.dz, snap.dh
	dpa, dpb, dpc, du := snap.dpa, snap.dpb, snap.dpc, snap.du
	g.Zero()
	dx := snap.inGrad.Head(T)

	for t := T - 1; t >= 0; t-- {
		dy := outGrad.Row(t)
		x := snap.input.Row(t)
		a, h, u := snap.a.Row(t), snap.h.Row(t), snap.u.Row(t)
		b, c := snap.b.Row(t), snap.c.Row(t)

		cpu.OuterAddTo(dWO, dy, snap.z.Row(t))
		cpu.VecMatTo(dz, dy, wo)

		// dc = dz ⊙ h, through SiLU
		cpu.Map3To(dpc, dz, h, snap.pc.Row(t), func(d, hv, p float32) float32 {
			return d * hv * cpu.SiLUGrad(p)
		})

		// dh = dz ⊙ c + g
		cpu.MulTo(dh, dz, c)
		cpu.AddInPlace(dh, g)

		if t > 0 {
			cpu.Map3To(dpa, dh, snap.h.Row(t-1), a, func(d, prev, av float32) float32 {
				return d * prev * av * (1 - av)
			})
			cpu.OuterAddTo(dWA, dpa, x)
			cpu.AddInPlace(dBias, dpa)
		}
		cpu.MulTo(g, dh, a)

		// db = dh ⊙ u through SiLU, du = dh ⊙ b
		cpu.Map3To(dpb, dh, u, snap.pb.Row(t), func(d, uv, p float32) float32 {
			return d * uv * cpu.SiLUGrad(p)
		})
		cpu.MulTo(du, dh, b)

		cpu.OuterAddTo(dWB, dpb, x)
		cpu.OuterAddTo(dWC, dpc, x)
		cpu.OuterAddTo(dWX, du, x)

		row := dx.Row(t)
		cpu.VecMatTo(row, dpb, wb)
		cpu.VecMatAddTo(row, dpc, wc)
		cpu.VecMatAddTo(row, du, wx)
		if t > 0 {
			cpu.VecMatAddTo(row, dpa, wa)
		}
	}
	return dx
}
