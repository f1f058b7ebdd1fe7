// Package tensor provides contiguous float32 storage and the 1-D, 2-D and 3-D
// views the training engine computes over.
//
// A Buffer owns memory. Vector, Matrix and Tensor are logical views over a
// Buffer; a view either owns its buffer (created by New*) or borrows a range
// of someone else's (Row, Head, Layer, Wrap*). Borrowing never copies, so
// writes through a view are visible through the owner and vice versa. The
// owner must outlive every view borrowed from it.
package tensor

// Buffer is a fixed-length block of float32 values.
// Its length never changes after creation.
type Buffer struct {
	data []float32
}

// NewBuffer allocates a zero-filled buffer of n elements.
func NewBuffer(n int) *Buffer {
	if n < 0 {
		panic(&IndexError{Index: n, Len: 0})
	}
	return &Buffer{data: make([]float32, n)}
}

// WrapBuffer adopts data as a buffer without copying.
func WrapBuffer(data []float32) *Buffer {
	return &Buffer{data: data[:len(data):len(data)]}
}

// Len returns the number of elements in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Data returns the underlying storage.
//
// WARNING: modifications are visible to every view over this buffer.
func (b *Buffer) Data() []float32 {
	return b.data
}

// At returns element i.
func (b *Buffer) At(i int) float32 {
	checkIndex(0, i, len(b.data))
	return b.data[i]
}

// Set writes element i.
func (b *Buffer) Set(i int, v float32) {
	checkIndex(0, i, len(b.data))
	b.data[i] = v
}

// View is the common read surface of Vector, Matrix and Tensor.
type View interface {
	// Shape returns the logical dimensions.
	Shape() Shape
	// Len returns the number of logical elements.
	Len() int
	// Data returns the contiguous logical elements (zero-copy).
	Data() []float32
}

// Like allocates a zero-filled owning view with the same concrete type and
// shape as v.
func Like[V View](v V) V {
	var out View
	switch t := any(v).(type) {
	case *Vector:
		out = NewVector(t.Len())
	case *Matrix:
		out = NewMatrix(t.Rows(), t.Cols())
	case *Tensor:
		out = NewTensor(t.Rows(), t.Cols(), t.Layers())
	default:
		panic("tensor: Like on unsupported view type")
	}
	return out.(V)
}

// Zero sets every element of v to zero.
func Zero(v View) {
	clear(v.Data())
}

// FromShape allocates a zero-filled view for a shape of rank 1, 2 or 3.
func FromShape(s Shape) (View, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch len(s) {
	case 1:
		return NewVector(s[0]), nil
	case 2:
		return NewMatrix(s[0], s[1]), nil
	case 3:
		return NewTensor(s[0], s[1], s[2]), nil
	default:
		return nil, &ShapeError{Op: "from shape", Want: Shape{0}, Got: s}
	}
}
