// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers applied once per training batch.
//
// Optimizers read the merged gradients of a batch, average them over the
// batch size and update every weight in place:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
//	opt.Apply(model.Layers(), grads, len(batch))
package optim

import (
	"github.com/born-ml/mambatrain/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// State is a serializable snapshot of optimizer buffers.
type State = optim.State

// ErrStateMismatch is returned when a State does not fit the weights.
var ErrStateMismatch = optim.ErrStateMismatch

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// DefaultClipThreshold is the Adam gradient clip used when none is set.
const DefaultClipThreshold = optim.DefaultClipThreshold

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}
