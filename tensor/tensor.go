// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for float32 storage and views.
//
// A Buffer owns contiguous storage. Vector, Matrix and Tensor are row-major
// views over a Buffer; Matrix.Row and Tensor.Layer return views that share
// storage with their parent, so writes through either are visible to both.
//
// Example:
//
//	m := tensor.MatrixOf(2, 3, 1, 2, 3, 4, 5, 6)
//	row := m.Row(1)  // view of [4 5 6]
//	row.Set(0, 40)   // m.At(1, 0) == 40
package tensor

import (
	"github.com/born-ml/mambatrain/internal/tensor"
)

// Type aliases for public API

// Shape represents the logical dimensions of a view.
type Shape = tensor.Shape

// Buffer is contiguous float32 storage shared by views.
type Buffer = tensor.Buffer

// View is implemented by Vector, Matrix and Tensor.
type View = tensor.View

// Vector is a rank-1 view.
type Vector = tensor.Vector

// Matrix is a rank-2 row-major view.
type Matrix = tensor.Matrix

// Tensor is a rank-3 view laid out as consecutive matrices.
type Tensor = tensor.Tensor

// Errors.
var (
	ErrIndexOutOfBounds = tensor.ErrIndexOutOfBounds
	ErrShapeMismatch    = tensor.ErrShapeMismatch
	ErrBufferTooSmall   = tensor.ErrBufferTooSmall
	ErrNonFinite        = tensor.ErrNonFinite
)

// Error types.
type (
	IndexError     = tensor.IndexError
	ShapeError     = tensor.ShapeError
	BufferError    = tensor.BufferError
	NonFiniteError = tensor.NonFiniteError
)

// NewBuffer allocates zeroed storage for n values.
func NewBuffer(n int) *Buffer {
	return tensor.NewBuffer(n)
}

// WrapBuffer uses data as storage without copying.
func WrapBuffer(data []float32) *Buffer {
	return tensor.WrapBuffer(data)
}

// NewVector creates a zeroed vector that owns its storage.
func NewVector(n int) *Vector {
	return tensor.NewVector(n)
}

// VectorOf creates a vector holding a copy of values.
func VectorOf(values ...float32) *Vector {
	return tensor.VectorOf(values...)
}

// WrapVector views the first n values of buf.
func WrapVector(buf *Buffer, n int) (*Vector, error) {
	return tensor.WrapVector(buf, n)
}

// NewMatrix creates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return tensor.NewMatrix(rows, cols)
}

// MatrixOf creates a matrix from row-major values.
//
// Example:
//
//	m := tensor.MatrixOf(2, 2, 1, 2, 3, 4)
func MatrixOf(rows, cols int, values ...float32) *Matrix {
	return tensor.MatrixOf(rows, cols, values...)
}

// WrapMatrix views buf as a rows×cols matrix.
func WrapMatrix(buf *Buffer, rows, cols int) (*Matrix, error) {
	return tensor.WrapMatrix(buf, rows, cols)
}

// NewTensor creates a zeroed rows×cols×layers tensor.
func NewTensor(rows, cols, layers int) *Tensor {
	return tensor.NewTensor(rows, cols, layers)
}

// TensorOf creates a tensor from values laid out layer by layer.
func TensorOf(rows, cols, layers int, values ...float32) *Tensor {
	return tensor.TensorOf(rows, cols, layers, values...)
}

// WrapTensor views buf as a rows×cols×layers tensor.
func WrapTensor(buf *Buffer, rows, cols, layers int) (*Tensor, error) {
	return tensor.WrapTensor(buf, rows, cols, layers)
}

// Like allocates a zeroed view with the same shape as v.
func Like[V View](v V) V {
	return tensor.Like(v)
}

// FromShape allocates the view type matching the rank of s.
func FromShape(s Shape) (View, error) {
	return tensor.FromShape(s)
}
