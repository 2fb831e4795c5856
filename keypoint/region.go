package keypoint

import (
	"github.com/pixelfield/mapstitch/geom"
)

// maxWeight is the number of salience weight classes.
const maxWeight = 3

// Region accumulates the keypoints of one grid tile, bucketed by
// descriptor. It also counts points per salience weight so the matcher
// can decide whether to restrict itself to strong keypoints.
type Region struct {
	points map[Code][]geom.Point
	counts [maxWeight]int
}

// NewRegion returns an empty region.
func NewRegion() *Region {
	return &Region{points: make(map[Code][]geom.Point)}
}

// Add records a keypoint under its descriptor.
func (r *Region) Add(c Code, p geom.Point) {
	r.points[c] = append(r.points[c], p)
	r.counts[c.Weight()]++
}

// Points exposes the descriptor buckets.
func (r *Region) Points() map[Code][]geom.Point {
	return r.points
}

// Counts returns the number of points per salience weight.
func (r *Region) Counts() [maxWeight]int {
	return r.counts
}

// Total returns the number of points in the region.
func (r *Region) Total() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// Active reports whether the region holds any keypoints.
func (r *Region) Active() bool {
	return len(r.points) > 0
}

// Grid tiles an image into width x height keypoint regions. A point near
// a tile border lands in every adjacent region; the extractor resolves
// border bands to region index lists.
type Grid struct {
	width, height int
	regions       []*Region
}

// NewGrid returns a grid of empty regions.
func NewGrid(width, height int) *Grid {
	g := &Grid{
		width:   width,
		height:  height,
		regions: make([]*Region, width*height),
	}
	for i := range g.regions {
		g.regions[i] = NewRegion()
	}
	return g
}

// Width returns the number of region columns.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of region rows.
func (g *Grid) Height() int {
	return g.height
}

// Regions returns all regions in row-major order.
func (g *Grid) Regions() []*Region {
	return g.regions
}

// Region returns the i-th region in row-major order.
func (g *Grid) Region(i int) *Region {
	return g.regions[i]
}

// Add inserts a keypoint into the regions spanned by the given column and
// row index ranges.
func (g *Grid) Add(c Code, p geom.Point, cols, rows span) {
	for row := rows.lo; row <= rows.hi; row++ {
		for col := cols.lo; col <= cols.hi; col++ {
			g.regions[row*g.width+col].Add(c, p)
		}
	}
}

// span is an inclusive range of region indices along one axis.
type span struct {
	lo, hi int
}
