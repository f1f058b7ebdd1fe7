// Package train runs batched, multi-worker training over an nn.Model.
//
// Each batch is split across workers. A worker rents its own gradient
// accumulators and snapshots, runs forward, loss and backward for every
// sample in its chunk, then merges into the trainer's shared accumulators
// exactly once. The optimizer applies once per batch, after every worker
// has finished, so a failed batch leaves the weights untouched.
package train

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/optim"
	"github.com/born-ml/mambatrain/internal/parallel"
	"github.com/born-ml/mambatrain/internal/tensor"
)

var (
	// ErrEmptyBatch is returned when TrainBatch or Evaluate get no samples.
	ErrEmptyBatch = errors.New("train: empty batch")

	// ErrTargetShape is returned when a target does not match the model output.
	ErrTargetShape = errors.New("train: target shape does not match output")
)

// Sample is one input sequence and its target.
type Sample struct {
	Input  *tensor.Matrix
	Target *tensor.Matrix
}

// BatchResult summarizes one batch.
type BatchResult struct {
	AverageLoss float32
	Correct     int
	Samples     int
	Elapsed     time.Duration
}

// Progress is reported after every applied batch.
type Progress struct {
	Epoch int
	Batch int
	BatchResult
}

// Config holds trainer options.
type Config struct {
	Workers     int          // Worker goroutines per batch (default: NumCPU)
	Logger      *slog.Logger // default: slog.Default()
	CheckFinite bool         // Reject batches whose loss or gradients are not finite
	RunID       uuid.UUID    // default: random
}

// Trainer owns the shared gradient accumulators of one model.
//
// A Trainer is not safe for concurrent TrainBatch calls; the parallelism
// lives inside each batch.
type Trainer struct {
	model  *nn.Model
	loss   nn.Loss
	opt    optim.Optimizer
	cfg    Config
	par    parallel.Config
	logger *slog.Logger

	mu     sync.Mutex
	shared []*nn.Gradients
}

// New creates a trainer, filling zero config fields with defaults.
func New(model *nn.Model, loss nn.Loss, opt optim.Optimizer, cfg Config) *Trainer {
	if cfg.Workers <= 0 {
		cfg.Workers = parallel.DefaultConfig().NumWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}
	return &Trainer{
		model:  model,
		loss:   loss,
		opt:    opt,
		cfg:    cfg,
		par:    parallel.Config{Enabled: cfg.Workers > 1, NumWorkers: cfg.Workers, MinChunkSize: 1},
		logger: cfg.Logger.With("run", cfg.RunID.String()),
		shared: model.NewGradientSet(),
	}
}

// RunID identifies this trainer in logs.
func (t *Trainer) RunID() uuid.UUID { return t.cfg.RunID }

// Model returns the model being trained.
func (t *Trainer) Model() *nn.Model { return t.model }

// Optimizer returns the optimizer applied after each batch.
func (t *Trainer) Optimizer() optim.Optimizer { return t.opt }

// TrainBatch runs forward and backward for every sample, then applies the
// optimizer once with the batch size.
//
// A batch always runs to completion: cancelling ctx does not interrupt it.
// On error no update is applied.
func (t *Trainer) TrainBatch(ctx context.Context, samples []Sample) (BatchResult, error) {
	start := time.Now()
	defer func() {
		for _, g := range t.shared {
			g.Zero()
		}
	}()

	res, err := t.run(context.WithoutCancel(ctx), samples, true)
	if err != nil {
		return BatchResult{}, err
	}
	if t.cfg.CheckFinite {
		for _, g := range t.shared {
			if err := g.CheckFinite(); err != nil {
				return BatchResult{}, err
			}
		}
	}

	t.opt.Apply(t.model.Layers(), t.shared, len(samples))
	res.Elapsed = time.Since(start)
	return res, nil
}

// Evaluate computes loss and accuracy without touching the weights.
func (t *Trainer) Evaluate(ctx context.Context, samples []Sample) (BatchResult, error) {
	start := time.Now()
	res, err := t.run(ctx, samples, false)
	if err != nil {
		return BatchResult{}, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// Train runs epochs over the batches yielded by batches(epoch), calling
// onBatch (if non-nil) after each applied batch.
//
// Cancellation is observed between batches: the current batch is applied
// and ctx.Err() is returned.
func (t *Trainer) Train(ctx context.Context, epochs int, batches func(epoch int) iter.Seq[[]Sample], onBatch func(Progress)) error {
	t.logger.Info("training started",
		"epochs", epochs,
		"workers", t.cfg.Workers,
		"layers", t.model.Len(),
		"weights", t.model.NumWeights())

	for epoch := 0; epoch < epochs; epoch++ {
		epochStart := time.Now()
		var lossSum float32
		var correct, samples, n int

		for batch := range batches(epoch) {
			res, err := t.TrainBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("epoch %d batch %d: %w", epoch, n, err)
			}
			lossSum += res.AverageLoss * float32(res.Samples)
			correct += res.Correct
			samples += res.Samples

			t.logger.Debug("batch",
				"epoch", epoch,
				"batch", n,
				"loss", res.AverageLoss,
				"elapsed", res.Elapsed)
			if onBatch != nil {
				onBatch(Progress{Epoch: epoch, Batch: n, BatchResult: res})
			}
			n++

			if err := ctx.Err(); err != nil {
				t.logger.Info("training cancelled", "epoch", epoch, "batch", n, "iteration", t.opt.Iteration())
				return err
			}
		}

		if samples > 0 {
			t.logger.Info("epoch complete",
				"epoch", epoch,
				"batches", n,
				"loss", lossSum/float32(samples),
				"correct", correct,
				"samples", samples,
				"elapsed", time.Since(epochStart))
		}
	}
	return nil
}

// run fans samples out over workers. With backward set, every worker
// merges its gradients into t.shared once before returning.
func (t *Trainer) run(ctx context.Context, samples []Sample, backward bool) (BatchResult, error) {
	if len(samples) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}

	var (
		resMu   sync.Mutex
		lossSum float32
		correct int
	)
	err := parallel.Chunks(ctx, len(samples), t.par, func(ctx context.Context, _, start, end int) error {
		pass := t.model.Begin()
		defer pass.Release()

		var local []*nn.Gradients
		if backward {
			local = t.model.RentGradientSet()
			defer t.model.ReturnGradientSet(local)
		}

		var grad *tensor.Matrix
		var chunkLoss float32
		chunkCorrect := 0
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := samples[i]
			out := pass.Forward(s.Input)
			if !out.Shape().Equal(s.Target.Shape()) {
				return fmt.Errorf("%w: sample %d: output %v, target %v", ErrTargetShape, i, out.Shape(), s.Target.Shape())
			}
			if grad == nil || !grad.Shape().Equal(out.Shape()) {
				grad = tensor.NewMatrix(out.Rows(), out.Cols())
			}

			l, c := t.loss.Evaluate(out, s.Target, grad)
			if t.cfg.CheckFinite && (math32.IsNaN(l) || math32.IsInf(l, 0)) {
				return fmt.Errorf("sample %d: %w", i, &tensor.NonFiniteError{Name: "loss", Value: l})
			}
			chunkLoss += l
			chunkCorrect += c

			if backward {
				pass.Backward(grad, local)
			}
		}

		if backward {
			t.mu.Lock()
			for i, g := range local {
				t.shared[i].Merge(g)
			}
			t.mu.Unlock()
		}
		resMu.Lock()
		lossSum += chunkLoss
		correct += chunkCorrect
		resMu.Unlock()
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}

	return BatchResult{
		AverageLoss: lossSum / float32(len(samples)),
		Correct:     correct,
		Samples:     len(samples),
	}, nil
}
