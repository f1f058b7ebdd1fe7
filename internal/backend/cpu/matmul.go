package cpu

import "github.com/born-ml/mambatrain/internal/tensor"

// Dot returns Σ a[i]·b[i].
func Dot(a, b *tensor.Vector) float32 {
	tensor.CheckSameLen("dot", a.Len(), b.Len())
	return dotF32(a.Data(), b.Data())
}

// MatVec returns M·v, one lane dot product per row of M.
func MatVec(m *tensor.Matrix, v *tensor.Vector) *tensor.Vector {
	dst := tensor.NewVector(m.Rows())
	MatVecTo(dst, m, v)
	return dst
}

// MatVecTo writes M·v into dst. dst must not alias v.
func MatVecTo(dst *tensor.Vector, m *tensor.Matrix, v *tensor.Vector) {
	tensor.CheckSameLen("matvec", m.Cols(), v.Len())
	tensor.CheckSameLen("matvec", m.Rows(), dst.Len())
	out := dst.Data()
	x := v.Data()
	for r := range out {
		out[r] = dotF32(m.RowData(r), x)
	}
}

// MatVecAddTo computes dst += M·v.
func MatVecAddTo(dst *tensor.Vector, m *tensor.Matrix, v *tensor.Vector) {
	tensor.CheckSameLen("matvec add", m.Cols(), v.Len())
	tensor.CheckSameLen("matvec add", m.Rows(), dst.Len())
	out := dst.Data()
	x := v.Data()
	for r := range out {
		out[r] += dotF32(m.RowData(r), x)
	}
}

// VecMat returns vᵀ·M (equivalently Mᵀ·v), a vector of length M.Cols().
func VecMat(v *tensor.Vector, m *tensor.Matrix) *tensor.Vector {
	dst := tensor.NewVector(m.Cols())
	VecMatAddTo(dst, v, m)
	return dst
}

// VecMatTo writes vᵀ·M into dst. dst must not alias v.
func VecMatTo(dst, v *tensor.Vector, m *tensor.Matrix) {
	dst.Zero()
	VecMatAddTo(dst, v, m)
}

// VecMatAddTo computes dst += vᵀ·M.
//
// The loop walks M row by row and broadcasts v[r] across row r into dst.
// Keep this order: it streams M contiguously, where the per-column dot
// product strides through memory and runs ~85% slower.
func VecMatAddTo(dst, v *tensor.Vector, m *tensor.Matrix) {
	tensor.CheckSameLen("vecmat", m.Rows(), v.Len())
	tensor.CheckSameLen("vecmat", m.Cols(), dst.Len())
	out := dst.Data()
	for r, s := range v.Data() {
		if s == 0 {
			continue
		}
		axpyF32(out, m.RowData(r), s)
	}
}

// Outer returns the a.Len()×b.Len() matrix with element (i, j) = a[i]·b[j].
func Outer(a, b *tensor.Vector) *tensor.Matrix {
	dst := tensor.NewMatrix(a.Len(), b.Len())
	OuterTo(dst, a, b)
	return dst
}

// OuterTo writes a ⊗ b into dst.
func OuterTo(dst *tensor.Matrix, a, b *tensor.Vector) {
	tensor.CheckSameLen("outer", dst.Rows(), a.Len())
	tensor.CheckSameLen("outer", dst.Cols(), b.Len())
	y := b.Data()
	for r, s := range a.Data() {
		scaleF32(dst.RowData(r), y, s)
	}
}

// OuterAddTo computes dst += a ⊗ b. This is the weight-gradient update of a
// linear map: dW += dy ⊗ x.
func OuterAddTo(dst *tensor.Matrix, a, b *tensor.Vector) {
	tensor.CheckSameLen("outer add", dst.Rows(), a.Len())
	tensor.CheckSameLen("outer add", dst.Cols(), b.Len())
	y := b.Data()
	for r, s := range a.Data() {
		if s == 0 {
			continue
		}
		axpyF32(dst.RowData(r), y, s)
	}
}
