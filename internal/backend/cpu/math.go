package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Map returns f applied to every element of x.
func Map[V tensor.View](x V, f func(float32) float32) V {
	dst := tensor.Like(x)
	MapTo(dst, x, f)
	return dst
}

// MapTo writes f(x) into dst. dst may alias x.
func MapTo(dst, x tensor.View, f func(float32) float32) {
	tensor.CheckSameLen("map", dst.Len(), x.Len())
	out := dst.Data()
	for i, v := range x.Data() {
		out[i] = f(v)
	}
}

// Map2 returns f(a[i], b[i]) for every i.
func Map2[V tensor.View](a, b V, f func(x, y float32) float32) V {
	dst := tensor.Like(a)
	Map2To(dst, a, b, f)
	return dst
}

// Map2To writes f(a, b) into dst. dst may alias either operand.
func Map2To(dst, a, b tensor.View, f func(x, y float32) float32) {
	tensor.CheckSameLen("map2", a.Len(), b.Len())
	tensor.CheckSameLen("map2", dst.Len(), a.Len())
	out := dst.Data()
	y := b.Data()
	for i, v := range a.Data() {
		out[i] = f(v, y[i])
	}
}

// Map3 returns f(a[i], b[i], c[i]) for every i.
func Map3[V tensor.View](a, b, c V, f func(x, y, z float32) float32) V {
	dst := tensor.Like(a)
	Map3To(dst, a, b, c, f)
	return dst
}

// Map3To writes f(a, b, c) into dst. dst may alias any operand.
func Map3To(dst, a, b, c tensor.View, f func(x, y, z float32) float32) {
	tensor.CheckSameLen("map3", a.Len(), b.Len())
	tensor.CheckSameLen("map3", a.Len(), c.Len())
	tensor.CheckSameLen("map3", dst.Len(), a.Len())
	out := dst.Data()
	y := b.Data()
	z := c.Data()
	for i, v := range a.Data() {
		out[i] = f(v, y[i], z[i])
	}
}

// Sigmoid computes 1/(1+e^-x) without overflowing for large |x|.
func Sigmoid(x float32) float32 {
	if x >= 0 {
		return 1 / (1 + math32.Exp(-x))
	}
	e := math32.Exp(x)
	return e / (1 + e)
}

// SiLU computes x·σ(x) (also called Swish).
func SiLU(x float32) float32 {
	return x * Sigmoid(x)
}

// SiLUGrad returns d SiLU(x)/dx = σ(x)·(1 + x·(1-σ(x))).
func SiLUGrad(x float32) float32 {
	s := Sigmoid(x)
	return s * (1 + x*(1-s))
}
