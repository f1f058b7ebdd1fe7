package config_test

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mambatrain/internal/config"
	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/optim"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseOverridesFields(t *testing.T) {
	cfg, err := config.Parse([]byte(`
model:
  kind: selective
  model_dim: 4
optimizer:
  name: sgd
  lr: 0.05
  momentum: 0.9
training:
  epochs: 3
  workers: 2
  check_finite: true
`))
	require.NoError(t, err)

	assert.Equal(t, config.ModelSelective, cfg.Model.Kind)
	assert.Equal(t, 4, cfg.Model.ModelDim)
	assert.Equal(t, config.Default().Model.StateSize, cfg.Model.StateSize)
	assert.Equal(t, config.OptimizerSGD, cfg.Optimizer.Name)
	assert.InDelta(t, 0.05, cfg.Optimizer.LR, 1e-7)
	assert.InDelta(t, 0.9, cfg.Optimizer.Momentum, 1e-7)
	assert.Equal(t, 3, cfg.Training.Epochs)
	assert.Equal(t, 2, cfg.Training.Workers)
	assert.True(t, cfg.Training.CheckFinite)
	assert.Equal(t, config.Default().Training.BatchSize, cfg.Training.BatchSize)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := config.Parse([]byte("model:\n  layers: 3\n"))
	assert.ErrorContains(t, err, "layers")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := config.Parse([]byte("model: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"model kind", func(c *config.Config) { c.Model.Kind = "transformer" }, "model.kind"},
		{"state size", func(c *config.Config) { c.Model.StateSize = 0 }, "model.state_size"},
		{"model dim", func(c *config.Config) { c.Model.Kind = config.ModelSelective; c.Model.ModelDim = 0 }, "model.model_dim"},
		{"model too large", func(c *config.Config) {
			c.Model.Kind = config.ModelSelective
			c.Model.ModelDim = 1 << 14
			c.Model.StateSize = 1 << 14
		}, "ssm.selective weights exceed"},
		{"optimizer name", func(c *config.Config) { c.Optimizer.Name = "rmsprop" }, "optimizer.name"},
		{"negative lr", func(c *config.Config) { c.Optimizer.LR = -1 }, "optimizer.lr"},
		{"beta", func(c *config.Config) { c.Optimizer.Beta2 = 1 }, "optimizer.beta2"},
		{"momentum", func(c *config.Config) { c.Optimizer.Momentum = 1.5 }, "optimizer.momentum"},
		{"epochs", func(c *config.Config) { c.Training.Epochs = 0 }, "training.epochs"},
		{"seq len over max", func(c *config.Config) { c.Training.SeqLen = c.Model.MaxSeqLen + 1 }, "training.seq_len"},
		{"batch size", func(c *config.Config) { c.Training.BatchSize = -1 }, "training.batch_size"},
		{"workers", func(c *config.Config) { c.Training.Workers = -2 }, "training.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrInvalid)
			assert.ErrorContains(t, err, tt.field)
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := config.Default()
	cfg.Model.StateSize = 0
	cfg.Training.Epochs = 0
	err := cfg.Validate()
	assert.ErrorContains(t, err, "model.state_size")
	assert.ErrorContains(t, err, "training.epochs")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  epochs: 7\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Training.Epochs)

	require.NoError(t, os.WriteFile(path, []byte("training:\n  epochs: 0\n"), 0o600))
	_, err = config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.ErrorContains(t, err, path)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewModel(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	scalar := config.Default().Model
	m := scalar.NewModel(rng)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, nn.KindScalarSSM, m.Layers()[0].Kind())

	selective := scalar
	selective.Kind = config.ModelSelective
	m = selective.NewModel(rng)
	kinds := make([]string, 0, m.Len())
	for _, l := range m.Layers() {
		kinds = append(kinds, l.Kind())
	}
	assert.Equal(t, []string{nn.KindDense, nn.KindSelectiveSSM, nn.KindDense}, kinds)
}

func TestNewOptimizer(t *testing.T) {
	o := config.Default().Optimizer
	adam := o.NewOptimizer()
	assert.IsType(t, &optim.Adam{}, adam)
	assert.InDelta(t, 0.01, adam.LR(), 1e-7)

	o.Name = config.OptimizerSGD
	o.LR = 0
	sgd := o.NewOptimizer()
	assert.IsType(t, &optim.SGD{}, sgd)
	assert.InDelta(t, 0.01, sgd.LR(), 1e-7)
}
