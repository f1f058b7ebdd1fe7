package cpu

import "github.com/born-ml/mambatrain/internal/tensor"

// Add returns a + b.
func Add[V tensor.View](a, b V) V {
	dst := tensor.Like(a)
	AddTo(dst, a, b)
	return dst
}

// AddTo writes a + b into dst.
func AddTo(dst, a, b tensor.View) {
	tensor.CheckSameLen("add", a.Len(), b.Len())
	tensor.CheckSameLen("add", dst.Len(), a.Len())
	addF32(dst.Data(), a.Data(), b.Data())
}

// AddInPlace computes a += b.
func AddInPlace(a, b tensor.View) {
	AddTo(a, a, b)
}

// Sub returns a - b.
func Sub[V tensor.View](a, b V) V {
	dst := tensor.Like(a)
	SubTo(dst, a, b)
	return dst
}

// SubTo writes a - b into dst.
func SubTo(dst, a, b tensor.View) {
	tensor.CheckSameLen("sub", a.Len(), b.Len())
	tensor.CheckSameLen("sub", dst.Len(), a.Len())
	subF32(dst.Data(), a.Data(), b.Data())
}

// SubInPlace computes a -= b.
func SubInPlace(a, b tensor.View) {
	SubTo(a, a, b)
}

// Mul returns the pointwise product a ⊙ b.
func Mul[V tensor.View](a, b V) V {
	dst := tensor.Like(a)
	MulTo(dst, a, b)
	return dst
}

// MulTo writes a ⊙ b into dst.
func MulTo(dst, a, b tensor.View) {
	tensor.CheckSameLen("mul", a.Len(), b.Len())
	tensor.CheckSameLen("mul", dst.Len(), a.Len())
	mulF32(dst.Data(), a.Data(), b.Data())
}

// MulInPlace computes a ⊙= b.
func MulInPlace(a, b tensor.View) {
	MulTo(a, a, b)
}

// MulAddTo computes dst += a ⊙ b.
func MulAddTo(dst, a, b tensor.View) {
	tensor.CheckSameLen("mul add", a.Len(), b.Len())
	tensor.CheckSameLen("mul add", dst.Len(), a.Len())
	mulAddF32(dst.Data(), a.Data(), b.Data())
}

// Scale returns s·a.
func Scale[V tensor.View](a V, s float32) V {
	dst := tensor.Like(a)
	ScaleTo(dst, a, s)
	return dst
}

// ScaleTo writes s·a into dst.
func ScaleTo(dst, a tensor.View, s float32) {
	tensor.CheckSameLen("scale", dst.Len(), a.Len())
	scaleF32(dst.Data(), a.Data(), s)
}

// ScaleInPlace computes a *= s.
func ScaleInPlace(a tensor.View, s float32) {
	ScaleTo(a, a, s)
}

// DivScalar returns a / s.
func DivScalar[V tensor.View](a V, s float32) V {
	return Scale(a, 1/s)
}

// DivScalarTo writes a / s into dst.
func DivScalarTo(dst, a tensor.View, s float32) {
	ScaleTo(dst, a, 1/s)
}

// DivScalarInPlace computes a /= s.
func DivScalarInPlace(a tensor.View, s float32) {
	ScaleTo(a, a, 1/s)
}

// AddScaledInPlace computes a += s·b (axpy).
func AddScaledInPlace(a, b tensor.View, s float32) {
	tensor.CheckSameLen("add scaled", a.Len(), b.Len())
	axpyF32(a.Data(), b.Data(), s)
}

func addF32(dst, a, b []float32) {
	w := lanes
	n := len(dst)
	i := 0
	for ; i+w <= n; i += w {
		d := dst[i : i+w : i+w]
		x := a[i : i+w : i+w]
		y := b[i : i+w : i+w]
		for l := range d {
			d[l] = x[l] + y[l]
		}
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

func subF32(dst, a, b []float32) {
	w := lanes
	n := len(dst)
	i := 0
	for ; i+w <= n; i += w {
		d := dst[i : i+w : i+w]
		x := a[i : i+w : i+w]
		y := b[i : i+w : i+w]
		for l := range d {
			d[l] = x[l] - y[l]
		}
	}
	for ; i < n; i++ {
		dst[i] = a[i] - b[i]
	}
}

func mulF32(dst, a, b []float32) {
	w := lanes
	n := len(dst)
	i := 0
	for ; i+w <= n; i += w {
		d := dst[i : i+w : i+w]
		x := a[i : i+w : i+w]
		y := b[i : i+w : i+w]
		for l := range d {
			d[l] = x[l] * y[l]
		}
	}
	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

func mulAddF32(dst, a, b []float32) {
	w := lanes
	n := len(dst)
	i := 0
	for ; i+w <= n; i += w {
		d := dst[i : i+w : i+w]
		x := a[i : i+w : i+w]
		y := b[i : i+w : i+w]
		for l := range d {
			d[l] += x[l] * y[l]
		}
	}
	for ; i < n; i++ {
		dst[i] += a[i] * b[i]
	}
}

func scaleF32(dst, a []float32, s float32) {
	w := lanes
	n := len(dst)
	i := 0
	for ; i+w <= n; i += w {
		d := dst[i : i+w : i+w]
		x := a[i : i+w : i+w]
		for l := range d {
			d[l] = x[l] * s
		}
	}
	for ; i < n; i++ {
		dst[i] = a[i] * s
	}
}

func axpyF32(dst, b []float32, s float32) {
	w := lanes
	n := len(dst)
	i := 0
	for ; i+w <= n; i += w {
		d := dst[i : i+w : i+w]
		y := b[i : i+w : i+w]
		for l := range d {
			d[l] += s * y[l]
		}
	}
	for ; i < n; i++ {
		dst[i] += s * b[i]
	}
}
