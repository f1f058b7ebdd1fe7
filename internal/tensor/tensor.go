package tensor

import "fmt"

// Tensor is a 3-D view of rows × cols × layers over a Buffer.
//
// Storage is layer-major: each layer is a contiguous row-major matrix, so
// element (r, c, l) lives at l*rows*cols + r*cols + c.
type Tensor struct {
	buf    *Buffer
	rows   int
	cols   int
	layers int
	owned  bool
}

// NewTensor allocates an owning, zero-filled tensor.
func NewTensor(rows, cols, layers int) *Tensor {
	return &Tensor{buf: NewBuffer(rows * cols * layers), rows: rows, cols: cols, layers: layers, owned: true}
}

// TensorOf allocates an owning tensor holding a copy of values in layer-major order.
func TensorOf(rows, cols, layers int, values ...float32) *Tensor {
	if len(values) != rows*cols*layers {
		panic(fmt.Sprintf("tensor: shape [%d %d %d] requires %d elements, but got %d",
			rows, cols, layers, rows*cols*layers, len(values)))
	}
	t := NewTensor(rows, cols, layers)
	copy(t.buf.data, values)
	return t
}

// WrapTensor borrows the first rows*cols*layers elements of buf.
func WrapTensor(buf *Buffer, rows, cols, layers int) (*Tensor, error) {
	if rows < 0 || cols < 0 || layers < 0 {
		return nil, &ShapeError{Op: "wrap tensor", Want: Shape{rows, cols, layers}, Got: Shape{buf.Len()}}
	}
	if buf.Len() < rows*cols*layers {
		return nil, &BufferError{Op: "wrap tensor", Want: Shape{rows, cols, layers}, Len: buf.Len()}
	}
	return &Tensor{buf: buf, rows: rows, cols: cols, layers: layers}, nil
}

// Rows returns the number of rows per layer.
func (t *Tensor) Rows() int { return t.rows }

// Cols returns the number of columns per layer.
func (t *Tensor) Cols() int { return t.cols }

// Layers returns the number of layers.
func (t *Tensor) Layers() int { return t.layers }

// Len returns rows*cols*layers.
func (t *Tensor) Len() int {
	return t.rows * t.cols * t.layers
}

// Shape returns [rows cols layers].
func (t *Tensor) Shape() Shape {
	return Shape{t.rows, t.cols, t.layers}
}

// Data returns the logical elements in layer-major order (zero-copy).
func (t *Tensor) Data() []float32 {
	n := t.Len()
	return t.buf.data[:n:n]
}

// Buffer returns the backing buffer.
func (t *Tensor) Buffer() *Buffer {
	return t.buf
}

// Owned reports whether the tensor owns its buffer.
func (t *Tensor) Owned() bool {
	return t.owned
}

// Index returns the flat offset of (r, c, l) within Data().
func (t *Tensor) Index(r, c, l int) int {
	checkIndex(0, r, t.rows)
	checkIndex(1, c, t.cols)
	checkIndex(2, l, t.layers)
	return l*t.rows*t.cols + r*t.cols + c
}

// At returns element (r, c, l).
func (t *Tensor) At(r, c, l int) float32 {
	return t.buf.data[t.Index(r, c, l)]
}

// Set writes element (r, c, l).
func (t *Tensor) Set(r, c, l int, v float32) {
	t.buf.data[t.Index(r, c, l)] = v
}

// Layer borrows layer l as a rows×cols matrix.
func (t *Tensor) Layer(l int) *Matrix {
	checkIndex(2, l, t.layers)
	return &Matrix{buf: t.buf, off: l * t.rows * t.cols, rows: t.rows, cols: t.cols}
}

// Zero sets every element to zero.
func (t *Tensor) Zero() {
	clear(t.Data())
}
