package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// RMSNorm returns x * invRMS * gamma along with invRMS.
func RMSNorm(x, gamma *tensor.Vector, eps float32) (*tensor.Vector, float32) {
	dst := tensor.NewVector(x.Len())
	inv := RMSNormTo(dst, x, gamma, eps)
	return dst, inv
}

// RMSNormTo writes y = x * invRMS * gamma into dst and returns
// invRMS = 1/sqrt(mean(x²) + eps). dst may alias x.
func RMSNormTo(dst, x, gamma *tensor.Vector, eps float32) float32 {
	tensor.CheckSameLen("rmsnorm", x.Len(), gamma.Len())
	tensor.CheckSameLen("rmsnorm", dst.Len(), x.Len())

	src := x.Data()
	n := float32(len(src))
	inv := 1 / math32.Sqrt(dotF32(src, src)/n+eps)

	out := dst.Data()
	g := gamma.Data()
	w := lanes
	i := 0
	for ; i+w <= len(out); i += w {
		d := out[i : i+w : i+w]
		a := src[i : i+w : i+w]
		b := g[i : i+w : i+w]
		for l := range d {
			d[l] = a[l] * inv * b[l]
		}
	}
	for ; i < len(out); i++ {
		out[i] = src[i] * inv * g[i]
	}
	return inv
}

// RMSNormBackward computes the input gradient of RMSNorm into dx and adds
// the scale gradient into dGamma.
//
// With r = invRMS and n = len(x):
//
//	dx     = r·(dy ⊙ γ) − r³·x·dot(x, dy ⊙ γ)/n
//	dGamma += dy ⊙ x · r
//
// dGamma accumulates, so one buffer can collect every row of a sequence and
// every sample of a batch.
func RMSNormBackward(dx, dGamma, dy, x, gamma *tensor.Vector, invRMS float32) {
	tensor.CheckSameLen("rmsnorm backward", x.Len(), dy.Len())
	tensor.CheckSameLen("rmsnorm backward", x.Len(), gamma.Len())
	tensor.CheckSameLen("rmsnorm backward", x.Len(), dx.Len())
	tensor.CheckSameLen("rmsnorm backward", x.Len(), dGamma.Len())

	xs := x.Data()
	g := gamma.Data()
	d := dy.Data()
	n := float32(len(xs))

	proj := dot3F32(xs, d, g)
	corr := invRMS * invRMS * invRMS * proj / n

	out := dx.Data()
	dg := dGamma.Data()
	for i := range out {
		out[i] = invRMS*d[i]*g[i] - corr*xs[i]
		dg[i] += d[i] * xs[i] * invRMS
	}
}
