package nn

import (
	"github.com/born-ml/mambatrain/internal/tensor"
)

// Model chains layers: each layer's output is the next layer's input.
//
// The model owns the pool its passes rent from. Layers are read-only while
// passes are running; the optimizer updates weights between batches.
//
// Example:
//
//	model := nn.NewModel(
//	    nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 4, Out: 16, MaxSeqLen: 32}, rng)),
//	    nn.Erase[*nn.SiLUSnapshot](nn.NewSiLU(nn.SiLUConfig{Dim: 16, MaxSeqLen: 32})),
//	    nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 16, Out: 1, MaxSeqLen: 32}, rng)),
//	)
//	out := model.Predict(input)
type Model struct {
	layers []Layer
	pool   *Pool
}

// NewModel creates a model from an ordered list of layers.
func NewModel(layers ...Layer) *Model {
	return &Model{layers: layers, pool: NewPool()}
}

// Layers returns the layers in forward order.
func (m *Model) Layers() []Layer {
	return m.layers
}

// Len returns the number of layers.
func (m *Model) Len() int {
	return len(m.layers)
}

// Pool returns the model's snapshot and gradient pool.
func (m *Model) Pool() *Pool {
	return m.pool
}

// Weights returns every weight of every layer in forward order.
func (m *Model) Weights() []*Weight {
	var weights []*Weight
	for _, l := range m.layers {
		weights = append(weights, l.Weights()...)
	}
	return weights
}

// NumWeights returns the total number of learned scalars.
func (m *Model) NumWeights() int {
	n := 0
	for _, w := range m.Weights() {
		n += w.Value.Len()
	}
	return n
}

// NewGradientSet allocates one zeroed accumulator per layer, outside the pool.
func (m *Model) NewGradientSet() []*Gradients {
	set := make([]*Gradients, len(m.layers))
	for i, l := range m.layers {
		set[i] = NewGradients(l)
	}
	return set
}

// RentGradientSet rents one zeroed accumulator per layer from the pool.
func (m *Model) RentGradientSet() []*Gradients {
	set := make([]*Gradients, len(m.layers))
	for i, l := range m.layers {
		set[i] = m.pool.RentGradients(l)
	}
	return set
}

// ReturnGradientSet zeroes and returns a set obtained from RentGradientSet.
func (m *Model) ReturnGradientSet(set []*Gradients) {
	for i, l := range m.layers {
		m.pool.ReturnGradients(l, set[i])
	}
}

// Begin starts a pass. A pass holds one snapshot per layer and may run any
// number of forward/backward pairs before Release. A pass is not safe for
// concurrent use; each worker begins its own.
func (m *Model) Begin() *Pass {
	return &Pass{model: m, snaps: make([]Snapshot, len(m.layers))}
}

// Predict runs a forward pass and returns an owned copy of the output.
func (m *Model) Predict(input *tensor.Matrix) *tensor.Matrix {
	p := m.Begin()
	defer p.Release()
	return p.Forward(input).Clone()
}

// Pass is one worker's forward/backward session over a model.
type Pass struct {
	model *Model
	snaps []Snapshot
}

// Forward runs every layer in order and returns the last layer's output.
// The result is a view into the last snapshot, valid until the next Forward.
func (p *Pass) Forward(input *tensor.Matrix) *tensor.Matrix {
	x := input
	for i, l := range p.model.layers {
		if p.snaps[i] == nil {
			p.snaps[i] = p.model.pool.RentSnapshot(l)
		}
		x = l.Forward(x, p.snaps[i])
	}
	return x
}

// Backward runs every layer in reverse, adding parameter gradients into
// grads (one accumulator per layer), and returns the input gradient.
// It must follow a Forward on the same pass.
func (p *Pass) Backward(outGrad *tensor.Matrix, grads []*Gradients) *tensor.Matrix {
	dy := outGrad
	for i := len(p.model.layers) - 1; i >= 0; i-- {
		dy = p.model.layers[i].Backward(dy, p.snaps[i], grads[i])
	}
	return dy
}

// Release returns the pass's snapshots to the pool.
func (p *Pass) Release() {
	for i, s := range p.snaps {
		if s != nil {
			p.model.pool.ReturnSnapshot(p.model.layers[i], s)
			p.snaps[i] = nil
		}
	}
}
