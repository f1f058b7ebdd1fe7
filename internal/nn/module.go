// Package nn implements the layer contract of the training engine.
//
// A layer is split into three pieces with separate lifetimes:
//   - the layer itself: hyperparameters and weights, read-only during a batch
//   - a Snapshot: everything Forward records for Backward, rented per worker
//   - a Gradients accumulator: per-layer parameter gradients, rented per worker
//
// Concrete layers implement Block[S] for their own snapshot type S and are
// stored in models through the type-erased Layer returned by Erase.
//
// Example:
//
//	rng := rand.New(rand.NewPCG(1, 2))
//	ssm := nn.NewScalarSSM(nn.ScalarSSMConfig{StateSize: 8, MaxSeqLen: 16}, rng)
//	model := nn.NewModel(nn.Erase[*nn.ScalarSSMSnapshot](ssm))
//
//	pass := model.Begin()
//	defer pass.Release()
//	out := pass.Forward(input)
package nn

import (
	"fmt"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Hyperparameter is a named scalar fixed at construction.
type Hyperparameter struct {
	Name  string
	Value float64
}

// Spec describes a layer: its kind, format version, hyperparameters and
// learned weights.
type Spec interface {
	// Kind is the registry key, e.g. "ssm.scalar".
	Kind() string
	// Version is the layer's serialization version.
	Version() int
	Hyperparameters() []Hyperparameter
	// Weights returns the learned tensors in a fixed order. Gradients and
	// optimizer state follow the same order.
	Weights() []*Weight
}

// Block is a layer with its associated snapshot type S.
//
// Forward reads weights only. It fully overwrites every snapshot field it
// uses for the current sequence length and returns a view into snapshot
// storage, valid until the next Forward with the same snapshot.
//
// Backward consumes the snapshot recorded by the matching Forward. It adds
// parameter gradients into grads and returns the input gradient as a view
// into snapshot storage.
type Block[S any] interface {
	Spec
	NewSnapshot() S
	Forward(input *tensor.Matrix, snap S) *tensor.Matrix
	Backward(outGrad *tensor.Matrix, snap S, grads *Gradients) *tensor.Matrix
}

// Snapshot is the type-erased form of a layer's snapshot.
type Snapshot any

// Layer is the type-erased form of a Block held by models and pools.
type Layer interface {
	Spec
	NewSnapshot() Snapshot
	Forward(input *tensor.Matrix, snap Snapshot) *tensor.Matrix
	Backward(outGrad *tensor.Matrix, snap Snapshot, grads *Gradients) *tensor.Matrix

	// Block returns the underlying concrete layer.
	Block() any

	owns(snap Snapshot) bool
}

// Erase wraps a typed block as a Layer.
func Erase[S any](b Block[S]) Layer {
	return &erased[S]{block: b}
}

type erased[S any] struct {
	block Block[S]
}

func (e *erased[S]) Kind() string                      { return e.block.Kind() }
func (e *erased[S]) Version() int                      { return e.block.Version() }
func (e *erased[S]) Hyperparameters() []Hyperparameter { return e.block.Hyperparameters() }
func (e *erased[S]) Weights() []*Weight                { return e.block.Weights() }
func (e *erased[S]) NewSnapshot() Snapshot             { return e.block.NewSnapshot() }
func (e *erased[S]) Block() any                        { return e.block }

func (e *erased[S]) Forward(input *tensor.Matrix, snap Snapshot) *tensor.Matrix {
	return e.block.Forward(input, e.snapshot(snap))
}

func (e *erased[S]) Backward(outGrad *tensor.Matrix, snap Snapshot, grads *Gradients) *tensor.Matrix {
	return e.block.Backward(outGrad, e.snapshot(snap), grads)
}

func (e *erased[S]) owns(snap Snapshot) bool {
	_, ok := snap.(S)
	return ok
}

func (e *erased[S]) snapshot(snap Snapshot) S {
	s, ok := snap.(S)
	if !ok {
		panic(fmt.Errorf("%w: %s layer got %T", ErrForeignSnapshot, e.block.Kind(), snap))
	}
	return s
}

// checkSeqLen panics when a sequence does not fit the snapshot.
func checkSeqLen(kind string, t, maxSeqLen int) {
	if t < 1 || t > maxSeqLen {
		panic(fmt.Errorf("%w: %s got %d rows, want 1..%d", ErrSequenceLength, kind, t, maxSeqLen))
	}
}
