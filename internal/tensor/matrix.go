package tensor

import "fmt"

// Matrix is a 2-D row-major view over a Buffer.
// Element (r, c) lives at flat offset r*cols + c.
type Matrix struct {
	buf   *Buffer
	off   int
	rows  int
	cols  int
	owned bool
}

// NewMatrix allocates an owning, zero-filled rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{buf: NewBuffer(rows * cols), rows: rows, cols: cols, owned: true}
}

// MatrixOf allocates an owning matrix holding a copy of values in row-major order.
func MatrixOf(rows, cols int, values ...float32) *Matrix {
	if len(values) != rows*cols {
		panic(fmt.Sprintf("tensor: shape [%d %d] requires %d elements, but got %d", rows, cols, rows*cols, len(values)))
	}
	m := NewMatrix(rows, cols)
	copy(m.buf.data, values)
	return m
}

// WrapMatrix borrows the first rows*cols elements of buf.
func WrapMatrix(buf *Buffer, rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, &ShapeError{Op: "wrap matrix", Want: Shape{rows, cols}, Got: Shape{buf.Len()}}
	}
	if buf.Len() < rows*cols {
		return nil, &BufferError{Op: "wrap matrix", Want: Shape{rows, cols}, Len: buf.Len()}
	}
	return &Matrix{buf: buf, rows: rows, cols: cols}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	return m.rows
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	return m.cols
}

// Len returns rows*cols.
func (m *Matrix) Len() int {
	return m.rows * m.cols
}

// Shape returns [rows cols].
func (m *Matrix) Shape() Shape {
	return Shape{m.rows, m.cols}
}

// Data returns the logical elements in row-major order (zero-copy).
func (m *Matrix) Data() []float32 {
	n := m.rows * m.cols
	return m.buf.data[m.off : m.off+n : m.off+n]
}

// Buffer returns the backing buffer.
func (m *Matrix) Buffer() *Buffer {
	return m.buf
}

// Owned reports whether the matrix owns its buffer.
func (m *Matrix) Owned() bool {
	return m.owned
}

// Index returns the flat offset of (r, c) within Data().
func (m *Matrix) Index(r, c int) int {
	checkIndex(0, r, m.rows)
	checkIndex(1, c, m.cols)
	return r*m.cols + c
}

// At returns element (r, c).
func (m *Matrix) At(r, c int) float32 {
	return m.buf.data[m.off+m.Index(r, c)]
}

// Set writes element (r, c).
func (m *Matrix) Set(r, c int, v float32) {
	m.buf.data[m.off+m.Index(r, c)] = v
}

// Row borrows row r as a vector.
func (m *Matrix) Row(r int) *Vector {
	checkIndex(0, r, m.rows)
	return &Vector{buf: m.buf, off: m.off + r*m.cols, n: m.cols}
}

// RowData returns row r as a slice (zero-copy).
func (m *Matrix) RowData(r int) []float32 {
	checkIndex(0, r, m.rows)
	start := m.off + r*m.cols
	return m.buf.data[start : start+m.cols : start+m.cols]
}

// Head borrows the first n rows.
func (m *Matrix) Head(n int) *Matrix {
	if n < 0 || n > m.rows {
		panic(&IndexError{Axis: 0, Index: n, Len: m.rows})
	}
	return &Matrix{buf: m.buf, off: m.off, rows: n, cols: m.cols}
}

// Zero sets every element to zero.
func (m *Matrix) Zero() {
	clear(m.Data())
}

// CopyFrom copies src into m. Shapes must match.
func (m *Matrix) CopyFrom(src *Matrix) {
	if src.rows != m.rows || src.cols != m.cols {
		panic(&ShapeError{Op: "matrix copy", Want: m.Shape(), Got: src.Shape()})
	}
	copy(m.Data(), src.Data())
}

// Clone returns an owning copy.
func (m *Matrix) Clone() *Matrix {
	return MatrixOf(m.rows, m.cols, m.Data()...)
}
