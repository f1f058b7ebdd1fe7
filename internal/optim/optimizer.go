// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: applies one batch of accumulated gradients
//   - Adam: Adaptive Moment Estimation with gradient clipping
//   - SGD: Stochastic Gradient Descent with momentum
//
// Optimizers run once per batch, after every worker has merged its
// gradients, and are the only code that mutates weights.
//
// Example usage:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
//
//	for batch := range batches {
//	    grads := model.NewGradientSet()
//	    // forward/backward each sample into grads ...
//	    opt.Apply(model.Layers(), grads, len(batch))
//	}
package optim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// ErrStateMismatch is returned when a state dict does not fit the weights.
var ErrStateMismatch = errors.New("optim: state does not match weights")

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Apply updates every weight of layers from the matching accumulator in
	// grads. Gradients hold sums over batchSize samples and are averaged
	// before use. Apply does not modify grads.
	Apply(layers []nn.Layer, grads []*nn.Gradients, batchSize int)

	// Iteration returns the number of Apply calls so far.
	Iteration() int

	// LR returns the current learning rate.
	LR() float32

	// SetLR updates the learning rate, e.g. from a schedule.
	SetLR(lr float32)
}

// State is a serializable snapshot of optimizer buffers.
//
// Buffers are keyed "<buffer>.<weight index>", where the index counts
// weights across all layers in forward order.
type State struct {
	Iteration int
	Buffers   map[string][]float32
}

// gradScale returns the factor that averages a summed gradient over the
// batch and, when clip > 0, limits its largest element to clip.
func gradScale(g tensor.View, batchSize int, clip float32) float32 {
	if batchSize < 1 {
		batchSize = 1
	}
	scale := 1 / float32(batchSize)
	if clip > 0 {
		if m := cpu.MaxAbs(g) * scale; m > clip {
			scale *= clip / m
		}
	}
	return scale
}

// forEachWeight visits every (weight, gradient) pair with a running index.
func forEachWeight(layers []nn.Layer, grads []*nn.Gradients, fn func(idx int, w *nn.Weight, g tensor.View)) {
	if len(layers) != len(grads) {
		panic(fmt.Sprintf("optim: %d layers but %d gradient sets", len(layers), len(grads)))
	}
	idx := 0
	for i, l := range layers {
		for j, w := range l.Weights() {
			fn(idx, w, grads[i].At(j))
			idx++
		}
	}
}

func bufferKey(name string, idx int) string {
	return fmt.Sprintf("%s.%d", name, idx)
}

func parseKey(key string) (name string, idx int, ok bool) {
	name, num, found := strings.Cut(key, ".")
	if !found {
		return "", 0, false
	}
	idx, err := strconv.Atoi(num)
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return name, idx, true
}
