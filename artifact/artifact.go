/*
Package artifact removes residual noise from a stitched consensus image.

Isolated wrong-color pixels are found by counting repeated 1-D nibble
patterns along rows and columns; pixels inside frequent patterns score
high, isolated ones score low. Low-scoring pixels are replaced by the
argmax of a Gaussian-weighted convolution of the surrounding dot
histograms, which smooths noise without moving palette edges.
*/
package artifact

import (
	"errors"
	"math"

	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// ErrWindowSize is returned for pattern window sizes that are even or
// outside the 3..31 range.
var ErrWindowSize = errors.New("window size must be odd, between 3 and 31")

// pattern is a rolling window of up to 31 nibbles. The freshest pixel
// occupies the highest nibble so equal windows compare equal regardless
// of where they occur.
type pattern struct {
	lo, hi uint64
}

func (p *pattern) push(pixel palette.Nat, head uint) {
	p.lo = p.lo>>4 | p.hi<<60
	p.hi >>= 4
	if head >= 64 {
		p.hi |= uint64(pixel) << (head - 64)
	} else {
		p.lo |= uint64(pixel) << head
	}
}

// slide counts pattern occurrences along one direction and stamps each
// window's center with a reference to its counter, so the heatmap holds
// final counts once the pass completes. Masked pixels restart the window.
func slide(image *matrix.Matrix[palette.Nat], mask *matrix.Matrix[uint8],
	size, lines, length, step, stride int) *matrix.Matrix[uint32] {

	head := uint(4 * (size - 1))
	half := size / 2

	counters := make(map[pattern]*uint32)
	refs := make([]*uint32, image.Dimensions().Area())

	data, cover := image.Data(), mask.Data()

	for line := 0; line < lines; line++ {
		var win pattern
		seen := 0

		for i, pos := 0, line*stride; i < length; i, pos = i+1, pos+step {
			if cover[pos] == 0 {
				seen = 0
				continue
			}

			win.push(data[pos], head)
			if seen++; seen >= size {
				count := counters[win]
				if count == nil {
					count = new(uint32)
					counters[win] = count
				}
				*count++

				refs[pos-half*step] = count
			}
		}
	}

	out := matrix.New[uint32](image.Dimensions())
	for i, ref := range refs {
		if ref != nil {
			out.Data()[i] = *ref
		}
	}
	return out
}

// combine folds the directional counts into a single per-pixel score.
// Pixels no window covered would divide by zero; they clamp to the
// largest score instead so thresholding treats them as isolated.
func combine(horizontal, vertical *matrix.Matrix[uint32]) *matrix.Matrix[float32] {
	out := matrix.New[float32](horizontal.Dimensions())

	h, v := horizontal.Data(), vertical.Data()
	for i := range out.Data() {
		if sum := h[i] + v[i]; sum > 0 {
			out.Data()[i] = 1 / float32(math.Sqrt(float64(sum)/2))
		} else {
			out.Data()[i] = math.MaxFloat32
		}
	}
	return out
}

// Heatmap scores every pixel of the blended fragment by how repetitive
// its row and column neighborhoods are. Scores above the smoothing
// threshold mark isolated pixels.
func Heatmap(f *fragment.Fragment, size int) (*matrix.Matrix[float32], error) {
	if size < 3 || size > 31 || size%2 == 0 {
		return nil, ErrWindowSize
	}

	image, mask := f.Blend()
	w, h := image.Width(), image.Height()

	horizontal := slide(image, mask, size, h, w, 1, w)
	vertical := slide(image, mask, size, w, h, w, 1)

	return combine(horizontal, vertical), nil
}

func kernel(dev float32) *matrix.Matrix[float32] {
	size := int(math.Ceil(6*float64(dev))) | 1
	half := size / 2

	d := 2 * dev * dev
	a := 1 / (math.Pi * float64(d))

	out := matrix.New[float32](geom.Dimensions{Width: size, Height: size})
	for y := 0; y < size; y++ {
		dy := float64(y - half)
		for x := 0; x < size; x++ {
			dx := float64(x - half)
			out.Set(x, y, float32(a*math.Exp(-(dy*dy+dx*dx)/float64(d))))
		}
	}
	return out
}

func argmaxDot(d fragment.Dot) palette.Nat {
	best, count := 0, uint16(0)
	for c, n := range d {
		if n > count {
			best, count = c, n
		}
	}
	return palette.Nat(best)
}

func argmaxTemp(t [palette.Size]float32) palette.Nat {
	best, weight := 0, float32(0)
	for c, w := range t {
		if w > weight {
			best, weight = c, w
		}
	}
	return palette.Nat(best)
}

// blur replaces isolated pixels with the argmax of the Gaussian-weighted
// dot histograms around them; everything else passes through unchanged.
func blur(dots *matrix.Matrix[fragment.Dot], heat *matrix.Matrix[float32],
	dev float32) *matrix.Matrix[palette.Nat] {

	g := kernel(dev)
	size := g.Width()
	margin := size / 2

	w, h := dots.Width(), dots.Height()
	out := matrix.New[palette.Nat](dots.Dimensions())

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			interior := x >= margin && x < w-margin &&
				y >= margin && y < h-margin

			if !interior || heat.At(x, y) <= 0.25 {
				out.Set(x, y, argmaxDot(dots.At(x, y)))
				continue
			}

			var temp [palette.Size]float32
			for ky := 0; ky < size; ky++ {
				for kx := 0; kx < size; kx++ {
					weight := g.At(kx, ky)
					dot := dots.At(x+kx-margin, y+ky-margin)
					for c := 0; c < palette.Size; c++ {
						temp[c] += float32(dot[c]) * weight
					}
				}
			}
			out.Set(x, y, argmaxTemp(temp))
		}
	}

	return out
}

// Filter smooths the fragment's consensus image and returns it together
// with the repetition heatmap driving the replacement decisions.
func Filter(f *fragment.Fragment, dev float32, size int) (*matrix.Matrix[palette.Nat], *matrix.Matrix[float32], error) {
	heat, err := Heatmap(f, size)
	if err != nil {
		return nil, nil, err
	}

	return blur(f.Dots(), heat, dev), heat, nil
}
