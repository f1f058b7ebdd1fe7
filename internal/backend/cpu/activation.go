package cpu

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// ErrInvalidResult is returned when a kernel cannot produce a finite result,
// e.g. softmax over a vector whose entries are all -Inf.
var ErrInvalidResult = errors.New("invalid result")

// Softmax returns exp(x - max(x)) / Σ exp(x - max(x)).
func Softmax(x *tensor.Vector) (*tensor.Vector, error) {
	dst := tensor.NewVector(x.Len())
	if err := SoftmaxTo(dst, x); err != nil {
		return nil, err
	}
	return dst, nil
}

// SoftmaxInPlace replaces x with its softmax.
func SoftmaxInPlace(x *tensor.Vector) error {
	return SoftmaxTo(x, x)
}

// SoftmaxTo writes the softmax of x into dst. dst may alias x.
//
// The max is subtracted before exponentiating so large inputs do not
// overflow. An all -Inf input has no defined distribution and yields
// ErrInvalidResult; dst is left partially written in that case.
func SoftmaxTo(dst, x *tensor.Vector) error {
	tensor.CheckSameLen("softmax", dst.Len(), x.Len())
	src := x.Data()
	out := dst.Data()
	if len(src) == 0 {
		return nil
	}

	mx := maxF32(src)
	if math32.IsInf(mx, -1) || math32.IsNaN(mx) {
		return ErrInvalidResult
	}

	for i, v := range src {
		out[i] = math32.Exp(v - mx)
	}
	sum := sumF32(out)
	if sum <= 0 || math32.IsInf(sum, 0) || math32.IsNaN(sum) {
		return ErrInvalidResult
	}
	scaleF32(out, out, 1/sum)
	return nil
}

// LogSumExp returns log Σ exp(x) computed stably.
func LogSumExp(x *tensor.Vector) float32 {
	src := x.Data()
	mx := maxF32(src)
	if math32.IsInf(mx, 0) {
		return mx
	}
	var sum float32
	for _, v := range src {
		sum += math32.Exp(v - mx)
	}
	return mx + math32.Log(sum)
}
