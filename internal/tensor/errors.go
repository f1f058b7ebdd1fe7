package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrBufferTooSmall   = errors.New("buffer too small for requested view")
	ErrNonFinite        = errors.New("non-finite value")
)

// IndexError reports an out-of-range index on one axis of a view.
type IndexError struct {
	Axis  int // Axis the index applies to (0 for flat indexing)
	Index int
	Len   int // Extent of the axis
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of bounds for axis %d (size %d)", e.Index, e.Axis, e.Len)
}

// Unwrap returns ErrIndexOutOfBounds.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfBounds
}

// ShapeError reports operands whose shapes do not agree.
type ShapeError struct {
	Op   string
	Want Shape
	Got  Shape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %v, got %v", e.Op, e.Want, e.Got)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// BufferError reports a buffer too short to back the requested view.
type BufferError struct {
	Op   string
	Want Shape
	Len  int // Length of the buffer
}

// Error implements the error interface.
func (e *BufferError) Error() string {
	return fmt.Sprintf("%s: buffer of %d elements cannot hold %v", e.Op, e.Len, e.Want)
}

// Unwrap returns ErrBufferTooSmall.
func (e *BufferError) Unwrap() error {
	return ErrBufferTooSmall
}

// NonFiniteError reports the first NaN or Inf found in a named buffer.
type NonFiniteError struct {
	Name  string
	Index int
	Value float32
}

// Error implements the error interface.
func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: non-finite value %v at index %d", e.Name, e.Value, e.Index)
}

// Unwrap returns ErrNonFinite.
func (e *NonFiniteError) Unwrap() error {
	return ErrNonFinite
}

func checkIndex(axis, idx, n int) {
	if idx < 0 || idx >= n {
		panic(&IndexError{Axis: axis, Index: idx, Len: n})
	}
}
