// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train_test

import (
	"context"
	"iter"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mambatrain/nn"
	"github.com/born-ml/mambatrain/optim"
	"github.com/born-ml/mambatrain/tensor"
	"github.com/born-ml/mambatrain/train"
)

func TestPublicAPITrainSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	model := nn.NewModel(
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 1, Out: 4, MaxSeqLen: 8}, rng)),
		nn.Erase[*nn.SelectiveSSMSnapshot](nn.NewSelectiveSSM(nn.SelectiveSSMConfig{ModelDim: 4, StateSize: 4, MaxSeqLen: 8}, rng)),
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 4, Out: 1, MaxSeqLen: 8}, rng)),
	)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	trainer := train.New(model, nn.MSE{Tolerance: 0.1}, opt, train.Config{Workers: 2})

	samples := train.CumulativeSum(rng, 32, 8)
	var seen int
	err := trainer.Train(context.Background(), 2, func(int) iter.Seq[[]train.Sample] {
		return train.Batches(train.Shuffled(rng, samples), 8)
	}, func(train.Progress) { seen++ })
	require.NoError(t, err)
	assert.Equal(t, 8, seen)
	assert.Equal(t, 8, opt.Iteration())

	path := filepath.Join(t.TempDir(), "model.born")
	id, err := nn.Save(path, model)
	require.NoError(t, err)

	loaded, header, err := nn.Load(path, nn.StandardRegistry(rng))
	require.NoError(t, err)
	assert.Equal(t, id, header.ModelID)

	input := tensor.MatrixOf(3, 1, 0.1, 0.2, 0.3)
	assert.Equal(t, model.Predict(input).Data(), loaded.Predict(input).Data())
}
