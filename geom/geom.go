/*
Package geom provides the small integer geometry types shared by the
stitching pipeline: points, offsets, dimensions and rectangular regions.
*/
package geom

// Point is an image or world coordinate.
type Point struct {
	X, Y int
}

// Offset is the translation between two coordinate frames. It is the
// currency of the keypoint matchers.
type Offset struct {
	X, Y int
}

// Add returns p translated by o.
func (p Point) Add(o Offset) Point {
	return Point{p.X + o.X, p.Y + o.Y}
}

// Sub returns the offset that translates q onto p.
func (p Point) Sub(q Point) Offset {
	return Offset{p.X - q.X, p.Y - q.Y}
}

// Neg returns the opposite offset.
func (o Offset) Neg() Offset {
	return Offset{-o.X, -o.Y}
}

// Add returns the composition of two offsets.
func (o Offset) Add(p Offset) Offset {
	return Offset{o.X + p.X, o.Y + p.Y}
}

// Dimensions is a width/height pair.
type Dimensions struct {
	Width, Height int
}

// Area returns Width * Height.
func (d Dimensions) Area() int {
	return d.Width * d.Height
}

// Contains reports whether p lies within [0, d).
func (d Dimensions) Contains(p Point) bool {
	return p.X >= 0 && p.X < d.Width && p.Y >= 0 && p.Y < d.Height
}

// Region is a rectangle; Left/Top are inclusive, Right/Bottom exclusive.
type Region struct {
	Left, Top, Right, Bottom int
}

// Rect builds a region from an origin point and dimensions.
func Rect(p Point, d Dimensions) Region {
	return Region{p.X, p.Y, p.X + d.Width, p.Y + d.Height}
}

// Width returns the horizontal extent of the region.
func (r Region) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent of the region.
func (r Region) Height() int {
	return r.Bottom - r.Top
}

// Dimensions returns the extent of the region.
func (r Region) Dimensions() Dimensions {
	return Dimensions{r.Width(), r.Height()}
}

// Area returns the number of pixels covered by the region.
func (r Region) Area() int {
	return r.Width() * r.Height()
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Shrink returns the region with n pixels removed from every side.
func (r Region) Shrink(n int) Region {
	return Region{r.Left + n, r.Top + n, r.Right - n, r.Bottom - n}
}

// Union returns the smallest region containing both r and s.
func (r Region) Union(s Region) Region {
	return Region{
		min(r.Left, s.Left),
		min(r.Top, s.Top),
		max(r.Right, s.Right),
		max(r.Bottom, s.Bottom),
	}
}

// Limits tracks a closed interval as values are folded in.
type Limits struct {
	Lower, Upper int
}

// NewLimits returns limits primed so that the first Update sets both ends.
func NewLimits() Limits {
	return Limits{Lower: int(^uint(0) >> 1), Upper: -int(^uint(0)>>1) - 1}
}

// Update widens the limits to include v.
func (l *Limits) Update(v int) {
	if v > l.Upper {
		l.Upper = v
	}
	if v < l.Lower {
		l.Lower = v
	}
}

// Size returns the span of the limits.
func (l Limits) Size() int {
	return l.Upper - l.Lower
}
