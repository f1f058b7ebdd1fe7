// Package main provides the mambatrain CLI.
//
// Usage:
//
//	mambatrain version
//	mambatrain cumsum [-config run.yaml] [-epochs N] [-lr X] [-workers N] [-out model.born] [-v]
//	mambatrain inspect model.born
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/born-ml/mambatrain/internal/config"
	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/serialization"
	"github.com/born-ml/mambatrain/internal/train"
)

const version = "v0.1.0-dev"

// holdoutFraction sizes the evaluation set relative to the training set.
const holdoutFraction = 8

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "mambatrain %s\n", version)
	case "cumsum":
		err = cumsum(ctx, args[1:], stderr)
	case "inspect":
		err = inspect(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "mambatrain - selective state-space model training")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  cumsum     Train on the cumulative-sum task and save the model")
	fmt.Fprintln(w, "  inspect    Print the layers of a saved model")
}

func cumsum(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("cumsum", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML run configuration (defaults apply when empty)")
	epochs := fs.Int("epochs", 0, "Number of training epochs")
	lr := fs.Float64("lr", 0, "Learning rate")
	workers := fs.Int("workers", 0, "Worker goroutines per batch (0 = one per CPU)")
	out := fs.String("out", "", "Output model file")
	seed := fs.Uint64("seed", 0, "Random seed for weights and data")
	verbose := fs.Bool("v", false, "Log every batch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	// Flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "epochs":
			cfg.Training.Epochs = *epochs
		case "lr":
			cfg.Optimizer.LR = float32(*lr)
		case "workers":
			cfg.Training.Workers = *workers
		case "out":
			cfg.Training.Output = *out
		case "seed":
			cfg.Training.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	rng := rand.New(rand.NewPCG(cfg.Training.Seed, 0x5eed))
	model := cfg.Model.NewModel(rng)
	samples := train.CumulativeSum(rng, cfg.Training.Samples, cfg.Training.SeqLen)
	holdout := train.CumulativeSum(rng, max(cfg.Training.Samples/holdoutFraction, 1), cfg.Training.SeqLen)

	trainer := train.New(model, nn.MSE{Tolerance: 0.1}, cfg.Optimizer.NewOptimizer(), train.Config{
		Workers:     cfg.Training.Workers,
		Logger:      logger,
		CheckFinite: cfg.Training.CheckFinite,
	})
	logger.Info("cumulative-sum task",
		"model", cfg.Model.Kind,
		"optimizer", cfg.Optimizer.Name,
		"samples", len(samples),
		"seq_len", cfg.Training.SeqLen,
		"batch_size", cfg.Training.BatchSize)

	batches := func(int) iter.Seq[[]train.Sample] {
		return train.Batches(train.Shuffled(rng, samples), cfg.Training.BatchSize)
	}
	err := trainer.Train(ctx, cfg.Training.Epochs, batches, nil)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted, saving current weights")
	case err != nil:
		return err
	}

	res, err := trainer.Evaluate(context.WithoutCancel(ctx), holdout)
	if err != nil {
		return err
	}
	logger.Info("holdout",
		"loss", res.AverageLoss,
		"correct", res.Correct,
		"samples", res.Samples)

	id, err := serialization.Save(cfg.Training.Output, model)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	logger.Info("model saved", "path", cfg.Training.Output, "model_id", id.String())
	return nil
}

func inspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect: want exactly one model file")
	}

	// Weights are overwritten by the file, so the seed does not matter.
	reg := nn.StandardRegistry(rand.New(rand.NewPCG(0, 0)))
	_, header, err := serialization.Load(fs.Arg(0), reg)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "model %s (format v%d, %d values)\n\n", header.ModelID, header.FormatVersion, header.NumElements())
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tVERSION\tHYPERPARAMETERS\tWEIGHTS")
	for i, l := range header.Layers {
		hyper := make([]string, len(l.Hyperparameters))
		for j, h := range l.Hyperparameters {
			hyper[j] = fmt.Sprintf("%s=%g", h.Name, h.Value)
		}
		weights := make([]string, len(l.Weights))
		for j, w := range l.Weights {
			weights[j] = w.Name + w.Shape.String()
		}
		fmt.Fprintf(tw, "%d\t%s\tv%d\t%s\t%s\n", i, l.Kind, l.Version, strings.Join(hyper, " "), strings.Join(weights, " "))
	}
	return tw.Flush()
}
