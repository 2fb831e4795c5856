/*
Package matrix implements the 2-D pixel container used throughout the
stitching pipeline. A matrix owns its backing slice exclusively; Crop and
Extend always allocate fresh storage and copy rows.
*/
package matrix

import (
	"github.com/pixelfield/mapstitch/geom"
)

// Matrix is a dense row-major 2-D buffer of T.
type Matrix[T any] struct {
	width, height int
	data          []T
}

// New returns a zeroed matrix of the given dimensions.
func New[T any](d geom.Dimensions) *Matrix[T] {
	return &Matrix[T]{
		width:  d.Width,
		height: d.Height,
		data:   make([]T, d.Area()),
	}
}

// NewWith wraps an existing slice, typically one drawn from an arena
// pool. The slice length must equal d.Area(); ownership transfers to the
// matrix.
func NewWith[T any](d geom.Dimensions, data []T) *Matrix[T] {
	if len(data) != d.Area() {
		panic("matrix: backing slice does not match dimensions")
	}
	return &Matrix[T]{
		width:  d.Width,
		height: d.Height,
		data:   data,
	}
}

// Width returns the number of columns.
func (m *Matrix[T]) Width() int {
	return m.width
}

// Height returns the number of rows.
func (m *Matrix[T]) Height() int {
	return m.height
}

// Dimensions returns the extent of the matrix.
func (m *Matrix[T]) Dimensions() geom.Dimensions {
	return geom.Dimensions{Width: m.width, Height: m.height}
}

// Data exposes the backing slice in row-major order.
func (m *Matrix[T]) Data() []T {
	return m.data
}

// Index converts a coordinate to a linear index.
func (m *Matrix[T]) Index(x, y int) int {
	return y*m.width + x
}

// At returns the value at (x, y).
func (m *Matrix[T]) At(x, y int) T {
	return m.data[y*m.width+x]
}

// Set stores v at (x, y).
func (m *Matrix[T]) Set(x, y int, v T) {
	m.data[y*m.width+x] = v
}

// Row returns the y-th row as a sub-slice of the backing storage.
func (m *Matrix[T]) Row(y int) []T {
	return m.data[y*m.width : (y+1)*m.width]
}

// Crop copies the rectangle r out of the matrix. The region must lie
// within the matrix bounds.
func (m *Matrix[T]) Crop(r geom.Region) *Matrix[T] {
	out := New[T](r.Dimensions())
	for y := 0; y < out.height; y++ {
		copy(out.Row(y), m.Row(r.Top+y)[r.Left:r.Right])
	}
	return out
}

// Extend copies the matrix into a larger one padded by the given margins,
// leaving the padding zeroed.
func (m *Matrix[T]) Extend(left, right, top, bottom int) *Matrix[T] {
	out := New[T](geom.Dimensions{
		Width:  m.width + left + right,
		Height: m.height + top + bottom,
	})
	for y := 0; y < m.height; y++ {
		copy(out.Row(top+y)[left:], m.Row(y))
	}
	return out
}

// Map applies fn to every element, producing a matrix of the result type.
func Map[T, U any](m *Matrix[T], fn func(T) U) *Matrix[U] {
	out := New[U](m.Dimensions())
	for i, v := range m.data {
		out.data[i] = fn(v)
	}
	return out
}
