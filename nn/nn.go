// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/serialization"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// Layer contract

// Hyperparameter is a named scalar fixed at construction.
type Hyperparameter = nn.Hyperparameter

// Spec describes a layer: kind, version, hyperparameters and weights.
type Spec = nn.Spec

// Block is a layer with its concrete snapshot type S.
type Block[S any] = nn.Block[S]

// Snapshot is the type-erased form of a layer's snapshot.
type Snapshot = nn.Snapshot

// Layer is the type-erased form of a Block held by models.
type Layer = nn.Layer

// Weight is a named learned tensor owned by a layer.
type Weight = nn.Weight

// Gradients accumulates parameter gradients for one layer.
type Gradients = nn.Gradients

// Pool recycles snapshots and gradient accumulators per layer.
type Pool = nn.Pool

// Erase wraps a typed block as a Layer.
//
// Example:
//
//	layer := nn.Erase[*nn.ScalarSSMSnapshot](nn.NewScalarSSM(cfg, rng))
func Erase[S any](b Block[S]) Layer {
	return nn.Erase(b)
}

// NewWeight allocates a zeroed weight. Panics on an invalid shape.
func NewWeight(name string, shape tensor.Shape) *Weight {
	return nn.NewWeight(name, shape)
}

// NewGradients allocates zeroed accumulators shaped like owner's weights.
func NewGradients(owner Spec) *Gradients {
	return nn.NewGradients(owner)
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return nn.NewPool()
}

// Models

// Model is an ordered stack of layers with its own pool.
type Model = nn.Model

// Pass is one forward/backward traversal of a model.
type Pass = nn.Pass

// NewModel creates a model from layers applied in order.
func NewModel(layers ...Layer) *Model {
	return nn.NewModel(layers...)
}

// Layers

// Layer kinds.
const (
	KindDense        = nn.KindDense
	KindRMSNorm      = nn.KindRMSNorm
	KindSiLU         = nn.KindSiLU
	KindScalarSSM    = nn.KindScalarSSM
	KindSelectiveSSM = nn.KindSelectiveSSM
)

// Dense is a fully connected layer applied to every row.
type (
	Dense         = nn.Dense
	DenseConfig   = nn.DenseConfig
	DenseSnapshot = nn.DenseSnapshot
)

// NewDense creates a dense layer with Xavier initialization.
func NewDense(cfg DenseConfig, rng *rand.Rand) *Dense {
	return nn.NewDense(cfg, rng)
}

// RMSNorm normalizes every row by its root mean square.
type (
	RMSNorm         = nn.RMSNorm
	RMSNormConfig   = nn.RMSNormConfig
	RMSNormSnapshot = nn.RMSNormSnapshot
)

// DefaultRMSNormEpsilon is used when RMSNormConfig.Epsilon is zero.
const DefaultRMSNormEpsilon = nn.DefaultRMSNormEpsilon

// MaxLayerWeights bounds the weight values a single layer may allocate.
const MaxLayerWeights = nn.MaxLayerWeights

// NewRMSNorm creates an RMSNorm layer with unit gain.
func NewRMSNorm(cfg RMSNormConfig) *RMSNorm {
	return nn.NewRMSNorm(cfg)
}

// SiLU applies x·sigmoid(x) elementwise.
type (
	SiLU         = nn.SiLU
	SiLUConfig   = nn.SiLUConfig
	SiLUSnapshot = nn.SiLUSnapshot
)

// NewSiLU creates a SiLU activation layer.
func NewSiLU(cfg SiLUConfig) *SiLU {
	return nn.NewSiLU(cfg)
}

// ScalarSSM is the selective state-space recurrence over a 1-D signal.
type (
	ScalarSSM         = nn.ScalarSSM
	ScalarSSMConfig   = nn.ScalarSSMConfig
	ScalarSSMSnapshot = nn.ScalarSSMSnapshot
)

// NewScalarSSM creates a scalar selective SSM.
func NewScalarSSM(cfg ScalarSSMConfig, rng *rand.Rand) *ScalarSSM {
	return nn.NewScalarSSM(cfg, rng)
}

// SelectiveSSM is the selective state-space layer over D-dimensional rows.
type (
	SelectiveSSM         = nn.SelectiveSSM
	SelectiveSSMConfig   = nn.SelectiveSSMConfig
	SelectiveSSMSnapshot = nn.SelectiveSSMSnapshot
)

// NewSelectiveSSM creates an embedded selective SSM.
func NewSelectiveSSM(cfg SelectiveSSMConfig, rng *rand.Rand) *SelectiveSSM {
	return nn.NewSelectiveSSM(cfg, rng)
}

// Initialization

// Xavier fills v from U(±sqrt(6/(fanIn+fanOut))).
func Xavier(v tensor.View, fanIn, fanOut int, rng *rand.Rand) {
	nn.Xavier(v, fanIn, fanOut, rng)
}

// Uniform fills v from U(lo, hi).
func Uniform(v tensor.View, lo, hi float64, rng *rand.Rand) {
	nn.Uniform(v, lo, hi, rng)
}

// Fill sets every element of v to x.
func Fill(v tensor.View, x float32) {
	nn.Fill(v, x)
}

// Losses

// Loss writes dLoss/dPred into grad and returns the loss and the number of
// correct rows.
type Loss = nn.Loss

// MSE is mean squared error.
type MSE = nn.MSE

// SoftmaxCrossEntropy is cross-entropy over row-wise softmax.
type SoftmaxCrossEntropy = nn.SoftmaxCrossEntropy

// Registry

// Factory builds a layer from its serialized version and hyperparameters.
type Factory = nn.Factory

// Registry maps layer kinds to factories.
type Registry = nn.Registry

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return nn.NewRegistry()
}

// StandardRegistry returns a registry with every built-in layer kind.
func StandardRegistry(rng *rand.Rand) *Registry {
	return nn.StandardRegistry(rng)
}

// Model files

// FileHeader describes a .born file without its weight values.
type FileHeader = serialization.Header

// Save writes model to path under a fresh model ID and returns that ID.
//
// Example:
//
//	id, err := nn.Save("model.born", model)
func Save(path string, model *Model) (uuid.UUID, error) {
	return serialization.Save(path, model)
}

// Load reads a model file, rebuilding layers through reg.
//
// Example:
//
//	model, header, err := nn.Load("model.born", nn.StandardRegistry(rng))
func Load(path string, reg *Registry) (*Model, FileHeader, error) {
	return serialization.Load(path, reg)
}

// Errors.
var (
	ErrForeignSnapshot       = nn.ErrForeignSnapshot
	ErrForeignObject         = nn.ErrForeignObject
	ErrSequenceLength        = nn.ErrSequenceLength
	ErrUnknownLayerKind      = nn.ErrUnknownLayerKind
	ErrUnsupportedVersion    = nn.ErrUnsupportedVersion
	ErrDuplicateKind         = nn.ErrDuplicateKind
	ErrInvalidHyperparameter = nn.ErrInvalidHyperparameter
	ErrChecksumMismatch      = serialization.ErrChecksumMismatch
	ErrInvalidMagic          = serialization.ErrInvalidMagic
)
