// Package parallel splits index ranges across worker goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// Range is a half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.End - r.Start }

// Split partitions [0, n) into contiguous chunks of at least MinChunkSize,
// at most one per worker. It returns a single chunk when parallelism is
// disabled or n is too small, and nothing when n is zero.
func Split(n int, cfg Config) []Range {
	if n <= 0 {
		return nil
	}
	workers := max(cfg.NumWorkers, 1)
	if !cfg.Enabled || workers == 1 || n < cfg.MinChunkSize {
		return []Range{{0, n}}
	}

	chunkSize := max((n+workers-1)/workers, cfg.MinChunkSize, 1)
	ranges := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		ranges = append(ranges, Range{start, min(start+chunkSize, n)})
	}
	return ranges
}

// Chunks runs fn once per chunk of [0, n), each in its own goroutine.
//
// worker is the chunk's index in Split order. The context passed to fn is
// cancelled when any call fails or ctx is done; the first error is
// returned after every call has finished.
func Chunks(ctx context.Context, n int, cfg Config, fn func(ctx context.Context, worker, start, end int) error) error {
	ranges := Split(n, cfg)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(len(ranges), 1))
	for w, r := range ranges {
		g.Go(func() error {
			return fn(ctx, w, r.Start, r.End)
		})
	}
	return g.Wait()
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ranges := Split(n, cfg)
	if len(ranges) <= 1 {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := r.Start; i < r.End; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}
