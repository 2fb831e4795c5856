/*
Package contour labels connected same-color regions of an image. The
walk buffer carries a one-pixel sentinel border so the flood fill never
bounds-checks; a contour records its area, perimeter, color and the
left/right row edges it needs to recover its pixels or enclosing box.
*/
package contour

import (
	"sort"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
)

// Horizon is the sentinel id filling the border of the walk buffer.
const Horizon = ^uint32(0)

// Side marks which neighbors of a pixel belong to a different contour.
type Side uint8

const (
	SideLeft Side = 1 << iota
	SideRight
	SideTop
	SideBottom
)

// Horizontal reports whether the side has a left or right component.
func (s Side) Horizontal() bool {
	return s&(SideLeft|SideRight) != 0
}

// Vertical reports whether the side has a top or bottom component.
func (s Side) Vertical() bool {
	return s&(SideTop|SideBottom) != 0
}

// Edge packs a linear pixel position with its side bits.
type Edge uint32

// NewEdge packs position and side into an edge.
func NewEdge(position int, side Side) Edge {
	return Edge(uint32(position)<<4 | uint32(side))
}

// Position returns the linear pixel position of the edge.
func (e Edge) Position() int {
	return int(e >> 4)
}

// Side returns the side bits of the edge.
func (e Edge) Side() Side {
	return Side(e & 0xf)
}

// Pixel constrains the image value types contours are extracted from.
type Pixel interface {
	~uint8
}

// Contour is one connected region. Edges are sorted lazily, on the first
// operation that needs them ordered.
type Contour[V Pixel] struct {
	edges     []Edge
	sorted    bool
	width     int
	id        uint32
	color     V
	area      int
	perimeter int
}

// ID returns the label assigned during extraction, starting at 1.
func (c *Contour[V]) ID() uint32 {
	return c.id
}

// Color returns the color shared by every pixel of the contour.
func (c *Contour[V]) Color() V {
	return c.color
}

// Area returns the number of pixels in the contour.
func (c *Contour[V]) Area() int {
	return c.area
}

// Perimeter returns the number of boundary pixels.
func (c *Contour[V]) Perimeter() int {
	return c.perimeter
}

func (c *Contour[V]) add(position int, side Side) {
	c.area++

	if side.Horizontal() {
		c.edges = append(c.edges, NewEdge(position, side))
		c.perimeter++
	} else if side.Vertical() {
		c.perimeter++
	}
}

func (c *Contour[V]) sort() {
	if !c.sorted {
		sort.Slice(c.edges, func(i, j int) bool { return c.edges[i] < c.edges[j] })
		c.sorted = true
	}
}

// Enclosure returns the bounding box of the contour.
func (c *Contour[V]) Enclosure() geom.Region {
	c.sort()

	h := geom.NewLimits()
	for _, e := range c.edges {
		h.Update(e.Position() % c.width)
	}

	return geom.Region{
		Left:   h.Lower,
		Top:    c.edges[0].Position() / c.width,
		Right:  h.Upper + 1,
		Bottom: c.edges[len(c.edges)-1].Position()/c.width + 1,
	}
}

// Each visits every pixel of the contour, expanding the spans between
// paired left and right edges.
func (c *Contour[V]) Each(fn func(position int)) {
	c.sort()

	left := -1
	for _, e := range c.edges {
		switch {
		case e.Side()&SideRight != 0:
			if left >= 0 {
				for i := left; i <= e.Position(); i++ {
					fn(i)
				}
				left = -1
			} else {
				fn(e.Position())
			}
		default:
			left = e.Position()
		}
	}
}

// Extractor labels the contours of same-sized images. It owns the walk
// buffer and BFS queue so repeated extractions do not reallocate.
type Extractor[V Pixel] struct {
	dims  geom.Dimensions
	ids   []uint32
	queue []int
}

// NewExtractor returns an extractor for images of the given dimensions.
func NewExtractor[V Pixel](dims geom.Dimensions) *Extractor[V] {
	return &Extractor[V]{
		dims: dims,
		ids:  make([]uint32, dims.Area()),
	}
}

// Extract labels every connected region of the interior of the image.
// An image with no interior yields an empty list.
func (e *Extractor[V]) Extract(image *matrix.Matrix[V]) []*Contour[V] {
	e.clear()

	w, h := e.dims.Width, e.dims.Height
	var contours []*Contour[V]

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if idx := y*w + x; e.ids[idx] == 0 {
				contours = append(contours,
					e.flood(image, idx, uint32(len(contours)+1)))
			}
		}
	}

	return contours
}

// flood grows one contour from a seed pixel by BFS over equal-colored
// 4-neighbors.
func (e *Extractor[V]) flood(image *matrix.Matrix[V], seed int, id uint32) *Contour[V] {
	w := e.dims.Width
	data := image.Data()

	c := &Contour[V]{
		width: w,
		id:    id,
		color: data[seed],
	}

	e.queue = append(e.queue[:0], seed)
	e.ids[seed] = id

	for len(e.queue) > 0 {
		idx := e.queue[0]
		e.queue = e.queue[1:]

		var side Side
		if e.push(data, idx, idx-1, id) {
			side |= SideLeft
		}
		if e.push(data, idx, idx+1, id) {
			side |= SideRight
		}
		if e.push(data, idx, idx-w, id) {
			side |= SideTop
		}
		if e.push(data, idx, idx+w, id) {
			side |= SideBottom
		}

		c.add(idx, side)
	}

	return c
}

// push queues an unvisited equal-colored neighbor and reports whether the
// pixel is an edge in that direction.
func (e *Extractor[V]) push(data []V, idx, next int, id uint32) bool {
	if data[next] != data[idx] {
		return true
	}
	if e.ids[next] == 0 {
		e.ids[next] = id
		e.queue = append(e.queue, next)
	}
	return e.ids[next] == Horizon
}

// clear resets the walk buffer, restoring the sentinel border.
func (e *Extractor[V]) clear() {
	w, h := e.dims.Width, e.dims.Height

	for i := range e.ids {
		e.ids[i] = 0
	}
	for x := 0; x < w; x++ {
		e.ids[x] = Horizon
		e.ids[(h-1)*w+x] = Horizon
	}
	for y := 1; y < h-1; y++ {
		e.ids[y*w] = Horizon
		e.ids[y*w+w-1] = Horizon
	}
}
