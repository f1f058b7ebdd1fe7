// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train runs batched, multi-worker training.
//
// Example:
//
//	trainer := train.New(model, nn.MSE{Tolerance: 0.1}, optim.NewAdam(optim.AdamConfig{LR: 0.01}), train.Config{})
//	samples := train.CumulativeSum(rng, 1024, 16)
//	err := trainer.Train(ctx, 10, func(int) iter.Seq[[]train.Sample] {
//	    return train.Batches(train.Shuffled(rng, samples), 16)
//	}, nil)
package train

import (
	"iter"
	"math/rand/v2"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/optim"
	"github.com/born-ml/mambatrain/internal/train"
)

// Trainer owns the shared gradient accumulators of one model.
type Trainer = train.Trainer

// Config holds trainer options.
type Config = train.Config

// Sample is one input sequence and its target.
type Sample = train.Sample

// BatchResult summarizes one batch.
type BatchResult = train.BatchResult

// Progress is reported after every applied batch.
type Progress = train.Progress

// Errors.
var (
	ErrEmptyBatch  = train.ErrEmptyBatch
	ErrTargetShape = train.ErrTargetShape
)

// New creates a trainer for model.
func New(model *nn.Model, loss nn.Loss, opt optim.Optimizer, cfg Config) *Trainer {
	return train.New(model, loss, opt, cfg)
}

// CumulativeSum generates n running-sum sequences of length seqLen.
func CumulativeSum(rng *rand.Rand, n, seqLen int) []Sample {
	return train.CumulativeSum(rng, n, seqLen)
}

// Batches yields consecutive batches of batchSize samples.
func Batches(samples []Sample, batchSize int) iter.Seq[[]Sample] {
	return train.Batches(samples, batchSize)
}

// Shuffled returns a copy of samples in an order drawn from rng.
func Shuffled(rng *rand.Rand, samples []Sample) []Sample {
	return train.Shuffled(rng, samples)
}
