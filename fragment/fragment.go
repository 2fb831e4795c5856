/*
Package fragment implements the growable consensus grid that frames are
stitched into. Every cell holds one counter per palette color; the
consensus image is the per-cell argmax over those counters.
*/
package fragment

import (
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// Dot is the per-pixel histogram of contributed colors.
type Dot [palette.Size]uint16

// Frame attributes one blitted frame to a fragment. Image and Median hold
// the frame's compressed payloads so later stages can reconstruct it
// without re-reading the feed; they may be nil.
type Frame struct {
	Number   int
	Position geom.Point
	Image    []byte
	Median   []byte
}

// Fragment is a dot grid in world coordinates. Origin is the world
// position of the grid's local (0, 0); the grid grows by multiples of
// step when a blit falls outside it.
type Fragment struct {
	step   geom.Dimensions
	dots   *matrix.Matrix[Dot]
	origin geom.Point
	frames []Frame
}

// New returns an empty fragment whose grid starts at the step size.
func New(step geom.Dimensions) *Fragment {
	return &Fragment{
		step: step,
		dots: matrix.New[Dot](step),
	}
}

// Restore rebuilds a fragment from its persisted parts.
func Restore(dots *matrix.Matrix[Dot], origin geom.Point, frames []Frame) *Fragment {
	return &Fragment{
		step:   geom.Dimensions{Width: 1, Height: 1},
		dots:   dots,
		origin: origin,
		frames: frames,
	}
}

// Dots exposes the cell grid.
func (f *Fragment) Dots() *matrix.Matrix[Dot] {
	return f.dots
}

// Dimensions returns the extent of the cell grid.
func (f *Fragment) Dimensions() geom.Dimensions {
	return f.dots.Dimensions()
}

// Origin returns the world coordinate of the grid's local (0, 0).
func (f *Fragment) Origin() geom.Point {
	return f.origin
}

// Frames returns the frame attributions in blit order.
func (f *Fragment) Frames() []Frame {
	return f.frames
}

// Bounds returns the world region covered by the grid.
func (f *Fragment) Bounds() geom.Region {
	return geom.Rect(f.origin, f.dots.Dimensions())
}

// ensure grows the grid by multiples of step until it contains r.
func (f *Fragment) ensure(r geom.Region) {
	grown := f.Bounds()
	for r.Left < grown.Left {
		grown.Left -= f.step.Width
	}
	for r.Top < grown.Top {
		grown.Top -= f.step.Height
	}
	for r.Right > grown.Right {
		grown.Right += f.step.Width
	}
	for r.Bottom > grown.Bottom {
		grown.Bottom += f.step.Height
	}

	if bounds := f.Bounds(); grown != bounds {
		f.dots = f.dots.Extend(
			bounds.Left-grown.Left,
			grown.Right-bounds.Right,
			bounds.Top-grown.Top,
			grown.Bottom-bounds.Bottom,
		)
		f.origin = geom.Point{X: grown.Left, Y: grown.Top}
	}
}

// Blit accumulates a frame at the given world position and records its
// attribution.
func (f *Fragment) Blit(pos geom.Point, image *matrix.Matrix[palette.Nat], frame Frame) {
	f.BlitMasked(pos, image, nil, frame)
}

// BlitMasked accumulates a frame, skipping pixels where mask is nonzero.
func (f *Fragment) BlitMasked(pos geom.Point, image *matrix.Matrix[palette.Nat],
	mask *matrix.Matrix[palette.Bit], frame Frame) {

	f.ensure(geom.Rect(pos, image.Dimensions()))

	local := pos.Sub(f.origin)
	for y := 0; y < image.Height(); y++ {
		row := f.dots.Row(local.Y + y)[local.X:]
		for x, c := range image.Row(y) {
			if mask != nil && mask.At(x, y) != 0 {
				continue
			}
			row[x][c]++
		}
	}

	frame.Position = pos
	f.frames = append(f.frames, frame)
}

// Merge adds another fragment's counters cell-wise, placing the other
// grid's local (0, 0) at the given world position. Frame attributions
// carry over, translated into this fragment's world.
func (f *Fragment) Merge(pos geom.Point, other *Fragment) {
	f.ensure(geom.Rect(pos, other.Dimensions()))

	local := pos.Sub(f.origin)
	for y := 0; y < other.dots.Height(); y++ {
		row := f.dots.Row(local.Y + y)[local.X:]
		for x, d := range other.dots.Row(y) {
			for i, n := range d {
				row[x][i] += n
			}
		}
	}

	shift := pos.Sub(other.origin)
	for _, frame := range other.frames {
		frame.Position = frame.Position.Add(shift)
		f.frames = append(f.frames, frame)
	}
}

// Blend projects the fragment to its consensus image and coverage mask.
// The mask is 1 wherever any counter is nonzero.
func (f *Fragment) Blend() (*matrix.Matrix[palette.Nat], *matrix.Matrix[uint8]) {
	image := matrix.New[palette.Nat](f.dots.Dimensions())
	mask := matrix.New[uint8](f.dots.Dimensions())

	img, msk := image.Data(), mask.Data()
	for i, d := range f.dots.Data() {
		if c, ok := d.argmax(); ok {
			img[i] = c
			msk[i] = 1
		}
	}

	return image, mask
}

// argmax returns the dominant color of a cell; ok is false when every
// counter is zero.
func (d *Dot) argmax() (palette.Nat, bool) {
	best, max := palette.Nat(0), uint16(0)
	for i, n := range d {
		if n > max {
			best, max = palette.Nat(i), n
		}
	}
	return best, max != 0
}

// Normalize translates the fragment so that its origin becomes (0, 0).
// Frame positions move into grid-local coordinates.
func (f *Fragment) Normalize() {
	shift := (geom.Point{}).Sub(f.origin)
	for i := range f.frames {
		f.frames[i].Position = f.frames[i].Position.Add(shift)
	}
	f.origin = geom.Point{}
}

// Weight returns the sum of all counters; blits add exactly the number of
// unmasked pixels to it.
func (f *Fragment) Weight() uint64 {
	var total uint64
	for _, d := range f.dots.Data() {
		for _, n := range d {
			total += uint64(n)
		}
	}
	return total
}
