package nn

import (
	"fmt"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// Gradients accumulates parameter gradients for one layer.
//
// It holds one tensor per weight, shaped like Weights() and in the same
// order. Backward adds into it; the optimizer reads it once per batch.
type Gradients struct {
	owner  Spec
	values []tensor.View
}

// NewGradients allocates a zeroed accumulator for owner.
func NewGradients(owner Spec) *Gradients {
	weights := owner.Weights()
	g := &Gradients{owner: owner, values: make([]tensor.View, len(weights))}
	for i, w := range weights {
		g.values[i] = tensor.Like(w.Value)
	}
	return g
}

// Owner returns the layer the accumulator was created for.
func (g *Gradients) Owner() Spec { return g.owner }

// Len returns the number of gradient tensors.
func (g *Gradients) Len() int { return len(g.values) }

// At returns the gradient of the i-th weight.
func (g *Gradients) At(i int) tensor.View { return g.values[i] }

// Vector returns the gradient of the i-th weight as a vector.
func (g *Gradients) Vector(i int) *tensor.Vector { return g.values[i].(*tensor.Vector) }

// Matrix returns the gradient of the i-th weight as a matrix.
func (g *Gradients) Matrix(i int) *tensor.Matrix { return g.values[i].(*tensor.Matrix) }

// Zero clears every gradient tensor.
func (g *Gradients) Zero() {
	for _, v := range g.values {
		tensor.Zero(v)
	}
}

// IsZero reports whether every element is zero.
func (g *Gradients) IsZero() bool {
	for _, v := range g.values {
		if cpu.MaxAbs(v) != 0 {
			return false
		}
	}
	return true
}

// Merge adds other into g. Both must have the same layout.
func (g *Gradients) Merge(other *Gradients) {
	if len(other.values) != len(g.values) {
		panic(fmt.Errorf("%w: merging %d gradients into %d", tensor.ErrShapeMismatch, len(other.values), len(g.values)))
	}
	for i, v := range g.values {
		if !v.Shape().Equal(other.values[i].Shape()) {
			panic(&tensor.ShapeError{Op: "gradient merge", Want: v.Shape(), Got: other.values[i].Shape()})
		}
		cpu.AddInPlace(v, other.values[i])
	}
}

// CheckFinite reports the first NaN or infinity in the accumulator.
func (g *Gradients) CheckFinite() error {
	for i, v := range g.values {
		if err := tensor.CheckFinite(g.owner.Weights()[i].Name, v.Data()); err != nil {
			return fmt.Errorf("%s gradient: %w", g.owner.Kind(), err)
		}
	}
	return nil
}
