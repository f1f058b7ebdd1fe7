package tensor

import "github.com/chewxy/math32"

// CheckSameLen panics with a *ShapeError when a and b differ.
// It is a no-op unless built with the debug tag.
func CheckSameLen(op string, a, b int) {
	if Debug && a != b {
		panic(&ShapeError{Op: op, Want: Shape{a}, Got: Shape{b}})
	}
}

// CheckShape panics with a *ShapeError when the view does not have the wanted shape.
// It is a no-op unless built with the debug tag.
func CheckShape(op string, v View, want Shape) {
	if Debug && !v.Shape().Equal(want) {
		panic(&ShapeError{Op: op, Want: want, Got: v.Shape()})
	}
}

// CheckFinite scans data for NaN or ±Inf and reports the first one found.
//
// Callers on hot paths guard it with `if tensor.Debug`.
func CheckFinite(name string, data []float32) error {
	for i, v := range data {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return &NonFiniteError{Name: name, Index: i, Value: v}
		}
	}
	return nil
}

// MustFinite panics when CheckFinite fails.
func MustFinite(name string, data []float32) {
	if err := CheckFinite(name, data); err != nil {
		panic(err)
	}
}
