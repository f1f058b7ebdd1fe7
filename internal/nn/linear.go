package nn

import (
	"math/rand/v2"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// KindDense is the registry key of Dense.
const KindDense = "dense"

// DenseConfig configures a Dense layer.
type DenseConfig struct {
	In        int // input features per row
	Out       int // output features per row
	MaxSeqLen int // rows per input
}

// Validate checks that every dimension is positive and that the weights fit
// in MaxLayerWeights.
func (c DenseConfig) Validate() error {
	if err := checkDims(KindDense, []string{"in", "out", "max_seq_len"}, c.In, c.Out, c.MaxSeqLen); err != nil {
		return err
	}
	return checkWeightBudget(KindDense, []int{c.Out, c.In}, []int{c.Out})
}

// Dense implements a fully connected layer applied to every row.
//
// Performs y_t = W x_t + b where W is [Out, In] and b is [Out]. Weights are
// initialized with Xavier/Glorot uniform, biases with zeros.
type Dense struct {
	cfg    DenseConfig
	weight *Weight // [Out, In]
	bias   *Weight // [Out]
}

// DenseSnapshot holds the activations Dense records for Backward.
type DenseSnapshot struct {
	input  *tensor.Matrix // [MaxSeqLen, In]
	output *tensor.Matrix // [MaxSeqLen, Out]
	inGrad *tensor.Matrix // [MaxSeqLen, In]
}

// NewDense creates a Dense layer. Panics if cfg is invalid.
func NewDense(cfg DenseConfig, rng *rand.Rand) *Dense {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	d := &Dense{
		cfg:    cfg,
		weight: NewWeight("weight", tensor.Shape{cfg.Out, cfg.In}),
		bias:   NewWeight("bias", tensor.Shape{cfg.Out}),
	}
	Xavier(d.weight.Value, cfg.In, cfg.Out, rng)
	return d
}

// Config returns the layer configuration.
func (d *Dense) Config() DenseConfig { return d.cfg }

// Weight returns the [Out, In] weight matrix.
func (d *Dense) Weight() *tensor.Matrix { return d.weight.Matrix() }

// Bias returns the [Out] bias vector.
func (d *Dense) Bias() *tensor.Vector { return d.bias.Vector() }

// Kind returns "dense".
func (d *Dense) Kind() string { return KindDense }

// Version returns 1.
func (d *Dense) Version() int { return 1 }

// Hyperparameters returns in, out and max_seq_len.
func (d *Dense) Hyperparameters() []Hyperparameter {
	return []Hyperparameter{
		{Name: "in", Value: float64(d.cfg.In)},
		{Name: "out", Value: float64(d.cfg.Out)},
		{Name: "max_seq_len", Value: float64(d.cfg.MaxSeqLen)},
	}
}

// Weights returns the weight matrix then the bias.
func (d *Dense) Weights() []*Weight {
	return []*Weight{d.weight, d.bias}
}

// NewSnapshot allocates buffers for MaxSeqLen rows.
func (d *Dense) NewSnapshot() *DenseSnapshot {
	return &DenseSnapshot{
		input:  tensor.NewMatrix(d.cfg.MaxSeqLen, d.cfg.In),
		output: tensor.NewMatrix(d.cfg.MaxSeqLen, d.cfg.Out),
		inGrad: tensor.NewMatrix(d.cfg.MaxSeqLen, d.cfg.In),
	}
}

// Forward computes input·Wᵀ + b row by row.
func (d *Dense) Forward(input *tensor.Matrix, snap *DenseSnapshot) *tensor.Matrix {
	T := input.Rows()
	checkSeqLen(KindDense, T, d.cfg.MaxSeqLen)
	tensor.CheckShape("dense forward", input, tensor.Shape{T, d.cfg.In})

	x := snap.input.Head(T)
	x.CopyFrom(input)
	y := snap.output.Head(T)

	w := d.weight.Matrix()
	b := d.bias.Vector()
	for t := 0; t < T; t++ {
		row := y.Row(t)
		cpu.MatVecTo(row, w, x.Row(t))
		cpu.AddInPlace(row, b)
	}
	return y
}

// Backward adds dW += dy ⊗ x and db += dy, and returns dx = Wᵀ dy.
func (d *Dense) Backward(outGrad *tensor.Matrix, snap *DenseSnapshot, grads *Gradients) *tensor.Matrix {
	T := outGrad.Rows()
	checkSeqLen(KindDense, T, d.cfg.MaxSeqLen)
	tensor.CheckShape("dense backward", outGrad, tensor.Shape{T, d.cfg.Out})

	x := snap.input.Head(T)
	dx := snap.inGrad.Head(T)
	w := d.weight.Matrix()
	dW := grads.Matrix(0)
	db := grads.Vector(1)

	for t := 0; t < T; t++ {
		dy := outGrad.Row(t)
		cpu.OuterAddTo(dW, dy, x.Row(t))
		cpu.AddInPlace(db, dy)
		cpu.VecMatTo(dx.Row(t), dy, w)
	}
	return dx
}
