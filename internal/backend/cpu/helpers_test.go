package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/born-ml/mambatrain/internal/tensor"
)

var laneWidths = []int{1, 4, 8, 16}

func forEachLaneWidth(t *testing.T, fn func(t *testing.T)) {
	t.Helper()
	for _, w := range laneWidths {
		t.Run(laneName(w), func(t *testing.T) {
			restore := setLanes(w)
			defer restore()
			fn(t)
		})
	}
}

func laneName(w int) string {
	switch w {
	case 1:
		return "scalar"
	case 4:
		return "lanes4"
	case 8:
		return "lanes8"
	default:
		return "lanes16"
	}
}

func randVector(rng *rand.Rand, n int) *tensor.Vector {
	v := tensor.NewVector(n)
	for i := range v.Data() {
		v.Data()[i] = float32(rng.Float64()*2 - 1)
	}
	return v
}

func randMatrix(rng *rand.Rand, rows, cols int) *tensor.Matrix {
	m := tensor.NewMatrix(rows, cols)
	for i := range m.Data() {
		m.Data()[i] = float32(rng.Float64()*2 - 1)
	}
	return m
}

func to64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

func to32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}
