package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestFor_SmallChunk(t *testing.T) {
	// Test that small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
		want []Range
	}{
		{"empty", 0, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}, nil},
		{"disabled", 10, Config{NumWorkers: 4, MinChunkSize: 1}, []Range{{0, 10}}},
		{"too small", 10, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16}, []Range{{0, 10}}},
		{"even", 8, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"uneven", 10, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}, []Range{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{"min chunk", 10, Config{Enabled: true, NumWorkers: 8, MinChunkSize: 4}, []Range{{0, 4}, {4, 8}, {8, 10}}},
		{"more workers than items", 3, Config{Enabled: true, NumWorkers: 8, MinChunkSize: 1}, []Range{{0, 1}, {1, 2}, {2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.n, tt.cfg))
		})
	}
}

func TestChunksCoversRangeOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	seen := make([]int32, 37)

	err := Chunks(context.Background(), len(seen), cfg, func(_ context.Context, _, start, end int) error {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
		return nil
	})
	require.NoError(t, err)
	for i, c := range seen {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestChunksReturnsFirstError(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	boom := errors.New("boom")

	var cancelled atomic.Int32
	err := Chunks(context.Background(), 4, cfg, func(ctx context.Context, worker, _, _ int) error {
		if worker == 0 {
			return boom
		}
		<-ctx.Done()
		cancelled.Add(1)
		return ctx.Err()
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), cancelled.Load())
}

func TestChunksHonorsParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Chunks(ctx, 2, Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1},
		func(ctx context.Context, _, _, _ int) error {
			return ctx.Err()
		})
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(j int) {
				atomic.AddInt64(&sum, int64(j))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		seq := Config{Enabled: false}
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(j int) {
				atomic.AddInt64(&sum, int64(j))
			}, seq)
		}
	})
}
