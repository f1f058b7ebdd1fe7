// Package config loads run configuration for the mambatrain command.
//
// A configuration file is YAML with three sections. Fields left out keep
// their Default values; unknown fields are an error.
//
//	model:
//	  kind: selective
//	  model_dim: 8
//	  state_size: 16
//	  max_seq_len: 32
//	optimizer:
//	  name: adam
//	  lr: 0.01
//	training:
//	  epochs: 10
//	  batch_size: 16
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/optim"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Model kinds.
const (
	ModelScalar    = "scalar"
	ModelSelective = "selective"
)

// Optimizer names.
const (
	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"
)

// Config is a complete run configuration.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Training  TrainingConfig  `yaml:"training"`
}

// ModelConfig selects and sizes the model.
type ModelConfig struct {
	Kind      string `yaml:"kind"`        // scalar or selective
	ModelDim  int    `yaml:"model_dim"`   // selective only
	StateSize int    `yaml:"state_size"`  // N
	MaxSeqLen int    `yaml:"max_seq_len"` // Longest sequence a snapshot holds
}

// OptimizerConfig selects the optimizer. Zero values take the optimizer's
// own defaults.
type OptimizerConfig struct {
	Name          string  `yaml:"name"` // adam or sgd
	LR            float32 `yaml:"lr"`
	Beta1         float32 `yaml:"beta1"`
	Beta2         float32 `yaml:"beta2"`
	Eps           float32 `yaml:"eps"`
	ClipThreshold float32 `yaml:"clip_threshold"`
	Momentum      float32 `yaml:"momentum"`
}

// TrainingConfig controls the training loop and the synthetic dataset.
type TrainingConfig struct {
	Epochs      int    `yaml:"epochs"`
	Samples     int    `yaml:"samples"` // Training sequences per epoch
	SeqLen      int    `yaml:"seq_len"`
	BatchSize   int    `yaml:"batch_size"`
	Workers     int    `yaml:"workers"` // 0 means one per CPU
	Seed        uint64 `yaml:"seed"`
	CheckFinite bool   `yaml:"check_finite"`
	Output      string `yaml:"output"` // Model file written after training
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Kind:      ModelScalar,
			ModelDim:  8,
			StateSize: 16,
			MaxSeqLen: 32,
		},
		Optimizer: OptimizerConfig{
			Name: OptimizerAdam,
			LR:   0.01,
		},
		Training: TrainingConfig{
			Epochs:    10,
			Samples:   1024,
			SeqLen:    16,
			BatchSize: 16,
			Seed:      42,
			Output:    "model.born",
		},
	}
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document leaves the defaults in place.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (Config, error) {
	//nolint:gosec // G304: File path comes from user input
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	m := c.Model
	check(m.Kind == ModelScalar || m.Kind == ModelSelective, "model.kind %q (want %s or %s)", m.Kind, ModelScalar, ModelSelective)
	check(m.StateSize > 0, "model.state_size must be positive, got %d", m.StateSize)
	check(m.MaxSeqLen > 0, "model.max_seq_len must be positive, got %d", m.MaxSeqLen)
	if m.Kind == ModelSelective {
		check(m.ModelDim > 0, "model.model_dim must be positive, got %d", m.ModelDim)
	}
	if m.StateSize > 0 && m.MaxSeqLen > 0 {
		var err error
		switch {
		case m.Kind == ModelScalar:
			err = nn.ScalarSSMConfig{StateSize: m.StateSize, MaxSeqLen: m.MaxSeqLen}.Validate()
		case m.Kind == ModelSelective && m.ModelDim > 0:
			err = nn.SelectiveSSMConfig{ModelDim: m.ModelDim, StateSize: m.StateSize, MaxSeqLen: m.MaxSeqLen}.Validate()
		}
		check(err == nil, "model: %v", err)
	}

	o := c.Optimizer
	check(o.Name == OptimizerAdam || o.Name == OptimizerSGD, "optimizer.name %q (want %s or %s)", o.Name, OptimizerAdam, OptimizerSGD)
	check(o.LR >= 0, "optimizer.lr must not be negative, got %v", o.LR)
	check(o.Beta1 >= 0 && o.Beta1 < 1, "optimizer.beta1 must be in [0, 1), got %v", o.Beta1)
	check(o.Beta2 >= 0 && o.Beta2 < 1, "optimizer.beta2 must be in [0, 1), got %v", o.Beta2)
	check(o.Eps >= 0, "optimizer.eps must not be negative, got %v", o.Eps)
	check(o.Momentum >= 0 && o.Momentum < 1, "optimizer.momentum must be in [0, 1), got %v", o.Momentum)

	t := c.Training
	check(t.Epochs > 0, "training.epochs must be positive, got %d", t.Epochs)
	check(t.Samples > 0, "training.samples must be positive, got %d", t.Samples)
	check(t.SeqLen > 0 && t.SeqLen <= m.MaxSeqLen, "training.seq_len must be in 1..%d, got %d", m.MaxSeqLen, t.SeqLen)
	check(t.BatchSize > 0, "training.batch_size must be positive, got %d", t.BatchSize)
	check(t.Workers >= 0, "training.workers must not be negative, got %d", t.Workers)

	return errors.Join(errs...)
}

// NewModel builds the configured model for one input and one output channel.
//
// The scalar model is a single ScalarSSM. The selective model embeds the
// input with a Dense layer, runs a SelectiveSSM and projects back.
func (m ModelConfig) NewModel(rng *rand.Rand) *nn.Model {
	if m.Kind == ModelScalar {
		ssm := nn.NewScalarSSM(nn.ScalarSSMConfig{StateSize: m.StateSize, MaxSeqLen: m.MaxSeqLen}, rng)
		return nn.NewModel(nn.Erase[*nn.ScalarSSMSnapshot](ssm))
	}
	return nn.NewModel(
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: 1, Out: m.ModelDim, MaxSeqLen: m.MaxSeqLen}, rng)),
		nn.Erase[*nn.SelectiveSSMSnapshot](nn.NewSelectiveSSM(nn.SelectiveSSMConfig{
			ModelDim:  m.ModelDim,
			StateSize: m.StateSize,
			MaxSeqLen: m.MaxSeqLen,
		}, rng)),
		nn.Erase[*nn.DenseSnapshot](nn.NewDense(nn.DenseConfig{In: m.ModelDim, Out: 1, MaxSeqLen: m.MaxSeqLen}, rng)),
	)
}

// NewOptimizer builds the configured optimizer.
func (o OptimizerConfig) NewOptimizer() optim.Optimizer {
	if o.Name == OptimizerSGD {
		return optim.NewSGD(optim.SGDConfig{LR: o.LR, Momentum: o.Momentum})
	}
	return optim.NewAdam(optim.AdamConfig{
		LR:            o.LR,
		Betas:         [2]float32{o.Beta1, o.Beta2},
		Eps:           o.Eps,
		ClipThreshold: o.ClipThreshold,
	})
}
