/*
Package window locates the active playfield inside a frame sequence.

Frames are diffed pairwise into an accumulating change heatmap. The
static chrome around the playfield (borders, score panels) never
changes, so the largest changed region converges on the playfield. The
scan stops once the region has not grown for a while.
*/
package window

import (
	"github.com/pixelfield/mapstitch/contour"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// Source supplies consecutive frames of one capture.
type Source interface {
	HasMore() bool
	Produce() (*matrix.Matrix[palette.Nat], error)
}

// scanning stops after this many frames without region growth
const maxStagnation = 100

// compare accumulates changed pixels into the heatmap. Bits are never
// cleared; a pixel that changed once stays hot.
func compare(previous, current *matrix.Matrix[palette.Nat], heat *matrix.Matrix[palette.Bit]) {
	p, c, h := previous.Data(), current.Data(), heat.Data()
	for i := range c {
		if p[i] != c[i] {
			h[i] = 1
		}
	}
}

// best picks the contour with the highest area weighted by color, which
// skips the unchanged regions entirely.
func best(contours []*contour.Contour[palette.Bit]) *contour.Contour[palette.Bit] {
	var top *contour.Contour[palette.Bit]
	score := -1
	for _, c := range contours {
		if s := c.Area() * int(c.Color()); s > score {
			top, score = c, s
		}
	}
	return top
}

// Scan consumes frames until the changed region stops growing and
// returns the playfield bounds, shrunk by one pixel to cut the fringe of
// partially covered border cells. It reports false when the sequence
// never produced an acceptable region.
func Scan(src Source, dims geom.Dimensions) (geom.Region, bool, error) {
	extractor := contour.NewExtractor[palette.Bit](dims)
	heat := matrix.New[palette.Bit](dims)

	minArea := dims.Area() / 3
	minHeight := 2 * dims.Height / 5
	minWidth := 2 * dims.Width / 3

	var (
		result geom.Region
		found  bool
	)

	if !src.HasMore() {
		return geom.Region{}, false, nil
	}

	previous, err := src.Produce()
	if err != nil {
		return geom.Region{}, false, err
	}

	for area, stagnation := 0, 0; src.HasMore() && stagnation <= maxStagnation; {
		current, err := src.Produce()
		if err != nil {
			return geom.Region{}, false, err
		}

		compare(previous, current, heat)

		if c := best(extractor.Extract(heat)); c != nil && c.Color() != 0 {
			if c.Area() > area {
				stagnation = 0
				area = c.Area()

				if window := c.Enclosure(); found ||
					area > minArea &&
						window.Height() > minHeight &&
						window.Width() > minWidth {
					result = window
					found = true
				}
			}
		}

		if found {
			stagnation++
		}

		previous = current
	}

	if !found {
		return geom.Region{}, false, nil
	}

	return result.Shrink(1), true, nil
}
