package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Sum returns the sum of all elements of x.
func Sum(x tensor.View) float32 {
	return sumF32(x.Data())
}

// Mean returns the arithmetic mean of x, or 0 when x is empty.
func Mean(x tensor.View) float32 {
	if x.Len() == 0 {
		return 0
	}
	return sumF32(x.Data()) / float32(x.Len())
}

// SumSquares returns Σ x².
func SumSquares(x tensor.View) float32 {
	d := x.Data()
	return dotF32(d, d)
}

// Max returns the largest element of x, or -Inf when x is empty.
func Max(x tensor.View) float32 {
	return maxF32(x.Data())
}

// Min returns the smallest element of x, or +Inf when x is empty.
func Min(x tensor.View) float32 {
	return minF32(x.Data())
}

// MaxAbs returns max |x|, or 0 when x is empty.
func MaxAbs(x tensor.View) float32 {
	d := x.Data()
	w := lanes
	var acc [maxLanes]float32
	i := 0
	for ; i+w <= len(d); i += w {
		blk := d[i : i+w : i+w]
		for l, v := range blk {
			if a := math32.Abs(v); a > acc[l] {
				acc[l] = a
			}
		}
	}
	var m float32
	for l := 0; l < w; l++ {
		if acc[l] > m {
			m = acc[l]
		}
	}
	for ; i < len(d); i++ {
		if a := math32.Abs(d[i]); a > m {
			m = a
		}
	}
	return m
}

// ArgMax returns the index of the largest element of x, or -1 when x is empty.
// Ties resolve to the lowest index.
func ArgMax(x tensor.View) int {
	d := x.Data()
	best := -1
	for i, v := range d {
		if best < 0 || v > d[best] {
			best = i
		}
	}
	return best
}

func sumF32(x []float32) float32 {
	w := lanes
	var acc [maxLanes]float32
	i := 0
	for ; i+w <= len(x); i += w {
		blk := x[i : i+w : i+w]
		for l, v := range blk {
			acc[l] += v
		}
	}
	var s float32
	for l := 0; l < w; l++ {
		s += acc[l]
	}
	for ; i < len(x); i++ {
		s += x[i]
	}
	return s
}

func maxF32(x []float32) float32 {
	w := lanes
	var acc [maxLanes]float32
	for l := range acc {
		acc[l] = math32.Inf(-1)
	}
	i := 0
	for ; i+w <= len(x); i += w {
		blk := x[i : i+w : i+w]
		for l, v := range blk {
			if v > acc[l] {
				acc[l] = v
			}
		}
	}
	m := math32.Inf(-1)
	for l := 0; l < w; l++ {
		if acc[l] > m {
			m = acc[l]
		}
	}
	for ; i < len(x); i++ {
		if x[i] > m {
			m = x[i]
		}
	}
	return m
}

func minF32(x []float32) float32 {
	w := lanes
	var acc [maxLanes]float32
	for l := range acc {
		acc[l] = math32.Inf(1)
	}
	i := 0
	for ; i+w <= len(x); i += w {
		blk := x[i : i+w : i+w]
		for l, v := range blk {
			if v < acc[l] {
				acc[l] = v
			}
		}
	}
	m := math32.Inf(1)
	for l := 0; l < w; l++ {
		if acc[l] < m {
			m = acc[l]
		}
	}
	for ; i < len(x); i++ {
		if x[i] < m {
			m = x[i]
		}
	}
	return m
}

// dotF32 is the lane multiply-accumulate shared by Dot, SumSquares and MatVec.
func dotF32(a, b []float32) float32 {
	w := lanes
	n := len(a)
	var acc [maxLanes]float32
	i := 0
	for ; i+w <= n; i += w {
		x := a[i : i+w : i+w]
		y := b[i : i+w : i+w]
		for l := range x {
			acc[l] += x[l] * y[l]
		}
	}
	var s float32
	for l := 0; l < w; l++ {
		s += acc[l]
	}
	for ; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

// dot3F32 returns Σ a·b·c.
func dot3F32(a, b, c []float32) float32 {
	w := lanes
	n := len(a)
	var acc [maxLanes]float32
	i := 0
	for ; i+w <= n; i += w {
		x := a[i : i+w : i+w]
		y := b[i : i+w : i+w]
		z := c[i : i+w : i+w]
		for l := range x {
			acc[l] += x[l] * y[l] * z[l]
		}
	}
	var s float32
	for l := 0; l < w; l++ {
		s += acc[l]
	}
	for ; i < n; i++ {
		s += a[i] * b[i] * c[i]
	}
	return s
}
