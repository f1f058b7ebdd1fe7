package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Weight is a named learned tensor owned by a layer.
//
// Weights are mutated only by the optimizer, between batches.
type Weight struct {
	Name  string
	Value tensor.View
}

// NewWeight creates a weight backed by a zeroed tensor of the given shape.
func NewWeight(name string, shape tensor.Shape) *Weight {
	v, err := tensor.FromShape(shape)
	if err != nil {
		panic(fmt.Sprintf("nn: weight %q: %v", name, err))
	}
	return &Weight{Name: name, Value: v}
}

// Vector returns the value as a vector. Panics if the weight is not rank 1.
func (w *Weight) Vector() *tensor.Vector {
	return w.Value.(*tensor.Vector)
}

// Matrix returns the value as a matrix. Panics if the weight is not rank 2.
func (w *Weight) Matrix() *tensor.Matrix {
	return w.Value.(*tensor.Matrix)
}

// hyper looks up a hyperparameter by name.
func hyper(h map[string]float64, name string) (float64, error) {
	v, ok := h[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidHyperparameter, name)
	}
	return v, nil
}

// intHyper looks up a positive integer hyperparameter.
func intHyper(h map[string]float64, name string) (int, error) {
	v, err := hyper(h, name)
	if err != nil {
		return 0, err
	}
	if v < 1 || v > math.MaxInt32 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %q must be a positive integer, got %v", ErrInvalidHyperparameter, name, v)
	}
	return int(v), nil
}

// checkDims reports the first non-positive dimension.
// MaxLayerWeights bounds the number of weight values a single layer may
// allocate.
const MaxLayerWeights = 1 << 28

// checkWeightBudget rejects a layer whose weights, given as factor lists,
// hold more than MaxLayerWeights values. Factors must already be positive.
func checkWeightBudget(kind string, weights ...[]int) error {
	total := 0
	for _, factors := range weights {
		n := 1
		for _, f := range factors {
			if n > MaxLayerWeights/f {
				return fmt.Errorf("%w: %s weights exceed %d values", ErrInvalidHyperparameter, kind, MaxLayerWeights)
			}
			n *= f
		}
		if n > MaxLayerWeights-total {
			return fmt.Errorf("%w: %s weights exceed %d values", ErrInvalidHyperparameter, kind, MaxLayerWeights)
		}
		total += n
	}
	return nil
}

func checkDims(kind string, names []string, dims ...int) error {
	for i, n := range dims {
		if n < 1 {
			return fmt.Errorf("%w: %s %s must be positive, got %d", ErrInvalidHyperparameter, kind, names[i], n)
		}
	}
	return nil
}
