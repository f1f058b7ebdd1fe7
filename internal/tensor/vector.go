package tensor

// Vector is a 1-D view over a Buffer.
type Vector struct {
	buf   *Buffer
	off   int
	n     int
	owned bool
}

// NewVector allocates an owning, zero-filled vector of length n.
func NewVector(n int) *Vector {
	return &Vector{buf: NewBuffer(n), n: n, owned: true}
}

// VectorOf allocates an owning vector holding a copy of values.
func VectorOf(values ...float32) *Vector {
	v := NewVector(len(values))
	copy(v.buf.data, values)
	return v
}

// WrapVector borrows the first n elements of buf.
//
// buf may be longer than n, which lets a large pooled buffer back a shorter
// vector.
func WrapVector(buf *Buffer, n int) (*Vector, error) {
	if n < 0 {
		return nil, &ShapeError{Op: "wrap vector", Want: Shape{n}, Got: Shape{buf.Len()}}
	}
	if buf.Len() < n {
		return nil, &BufferError{Op: "wrap vector", Want: Shape{n}, Len: buf.Len()}
	}
	return &Vector{buf: buf, n: n}, nil
}

// Len returns the logical length.
func (v *Vector) Len() int {
	return v.n
}

// Shape returns [n].
func (v *Vector) Shape() Shape {
	return Shape{v.n}
}

// Data returns the logical elements as a slice (zero-copy).
func (v *Vector) Data() []float32 {
	return v.buf.data[v.off : v.off+v.n : v.off+v.n]
}

// Buffer returns the backing buffer.
func (v *Vector) Buffer() *Buffer {
	return v.buf
}

// Owned reports whether the vector owns its buffer.
func (v *Vector) Owned() bool {
	return v.owned
}

// At returns element i.
func (v *Vector) At(i int) float32 {
	checkIndex(0, i, v.n)
	return v.buf.data[v.off+i]
}

// Set writes element i.
func (v *Vector) Set(i int, x float32) {
	checkIndex(0, i, v.n)
	v.buf.data[v.off+i] = x
}

// Zero sets every element to zero.
func (v *Vector) Zero() {
	clear(v.Data())
}

// Fill sets every element to x.
func (v *Vector) Fill(x float32) {
	d := v.Data()
	for i := range d {
		d[i] = x
	}
}

// CopyFrom copies src into v. Lengths must match.
func (v *Vector) CopyFrom(src *Vector) {
	if src.n != v.n {
		panic(&ShapeError{Op: "vector copy", Want: v.Shape(), Got: src.Shape()})
	}
	copy(v.Data(), src.Data())
}

// Clone returns an owning copy.
func (v *Vector) Clone() *Vector {
	return VectorOf(v.Data()...)
}

// Slice borrows elements [start, end).
func (v *Vector) Slice(start, end int) *Vector {
	if start < 0 || end > v.n || start > end {
		panic(&IndexError{Index: end, Len: v.n})
	}
	return &Vector{buf: v.buf, off: v.off + start, n: end - start}
}
