// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides layers, models and model files for sequence training.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, RMSNorm, SiLU, ScalarSSM, SelectiveSSM
//   - Losses: MSE, SoftmaxCrossEntropy
//   - Models: Model, Pass, Pool
//   - Registry: rebuild layers by kind and version
//   - Files: Save, Load (.born format)
//
// # Basic Usage
//
//	import (
//	    "math/rand/v2"
//
//	    "github.com/born-ml/mambatrain/nn"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewPCG(1, 2))
//
//	    model := nn.NewModel(
//	        nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 1, Out: 8, MaxSeqLen: 32}, rng)),
//	        nn.Erase[*nn.SelectiveSSMSnapshot](nn.NewSelectiveSSM(nn.SelectiveSSMConfig{ModelDim: 8, StateSize: 16, MaxSeqLen: 32}, rng)),
//	        nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 8, Out: 1, MaxSeqLen: 32}, rng)),
//	    )
//
//	    // Forward pass
//	    output := model.Predict(input)
//	}
//
// # Layers
//
// Every layer keeps what Forward records for Backward in a Snapshot, and
// writes parameter gradients into a Gradients accumulator. Both are rented
// from the model's Pool, so one layer can serve many workers at once.
//
// SelectiveSSM: input-dependent decay, input and output gates over an
// N-dimensional hidden state (Mamba-style selective scan)
//
// ScalarSSM: the same recurrence on a one-dimensional signal
//
// # Model Files
//
// Save and Load use the binary .born format. Layers are rebuilt through a
// Registry, so custom layers can be registered next to the standard ones.
package nn
