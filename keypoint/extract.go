package keypoint

import (
	"errors"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

const (
	kernelSize = 5
	kernelHalf = kernelSize / 2
)

// ErrDimensionMismatch reports an image whose dimensions disagree with
// the extractor's configured screen dimensions.
var ErrDimensionMismatch = errors.New("keypoint: image dimensions disagree with extractor")

// histogram counts pixels per luminance rank inside a sliding window.
type histogram [palette.Size]uint8

func (h *histogram) add(o *histogram) {
	for i := range h {
		h[i] += o[i]
	}
}

func (h *histogram) sub(o *histogram) {
	for i := range h {
		h[i] -= o[i]
	}
}

// median returns the rank at which the cumulative count, scanned from the
// brightest rank down, reaches half the window size.
func (h *histogram) median(half int) palette.Ordered {
	total := 0
	for i := palette.Size - 1; i >= 0; i-- {
		if total += int(h[i]); total >= half {
			return palette.Ordered(i)
		}
	}
	return 0
}

/*
Extractor computes the median-filtered copy of a frame and its keypoint
grid. It keeps two histogram planes as scratch: for every pixel, the
3-wide and 5-wide horizontal window of its row, counted per luminance
rank. The vertical pass folds three (resp. five) row histograms into the
3x3 and 5x5 window medians.

An extractor is sized to fixed dimensions at construction and reused
across frames; it is not safe for concurrent use.
*/
type Extractor struct {
	dims         geom.Dimensions
	gridW, gridH int
	cols, rows   []span
	row3, row5   []histogram
	acc3, acc5   []histogram
	ordered      []palette.Ordered
}

// NewExtractor returns an extractor for frames of the given dimensions,
// tiling keypoints into a gridW x gridH grid with the given overlap band
// width.
func NewExtractor(dims geom.Dimensions, gridW, gridH, overlap int) *Extractor {
	return &Extractor{
		dims:    dims,
		gridW:   gridW,
		gridH:   gridH,
		cols:    spans(dims.Width, gridW, overlap),
		rows:    spans(dims.Height, gridH, overlap),
		row3:    make([]histogram, dims.Area()),
		row5:    make([]histogram, dims.Area()),
		acc3:    make([]histogram, dims.Width),
		acc5:    make([]histogram, dims.Width),
		ordered: make([]palette.Ordered, dims.Width),
	}
}

// spans assigns every coordinate its inclusive range of region indices.
// Each section owns size/n - overlap/2 exclusive coordinates followed by
// an overlap band shared with the next section; the last section takes
// the remainder.
func spans(size, n, overlap int) []span {
	s := make([]span, size)

	regSize := size/n - overlap/2
	x := kernelHalf
	for sect := 0; sect < n-1; sect++ {
		for i := 0; i < regSize && x < size; i++ {
			s[x] = span{sect, sect}
			x++
		}
		for i := 0; i < overlap && x < size; i++ {
			s[x] = span{sect, sect + 1}
			x++
		}
	}
	for ; x < size; x++ {
		s[x] = span{n - 1, n - 1}
	}

	return s
}

// Extract computes the median image and keypoint grid of one frame. The
// median matrix must have the extractor's dimensions; border pixels that
// the 5x5 window cannot reach keep their raw value.
func (e *Extractor) Extract(image, median *matrix.Matrix[palette.Nat]) (*Grid, error) {
	if image.Dimensions() != e.dims || median.Dimensions() != e.dims {
		return nil, ErrDimensionMismatch
	}

	grid := NewGrid(e.gridW, e.gridH)
	copy(median.Data(), image.Data())

	w, h := e.dims.Width, e.dims.Height
	if w < kernelSize || h < kernelSize {
		return grid, nil
	}

	for y := 0; y < h; y++ {
		e.sumRow(image.Row(y), e.row3[y*w:(y+1)*w], e.row5[y*w:(y+1)*w])
	}

	// seed the vertical accumulators for the first interior row
	for x := kernelHalf; x < w-kernelHalf; x++ {
		e.acc3[x] = e.row3[w+x]
		e.acc3[x].add(&e.row3[2*w+x])
		e.acc3[x].add(&e.row3[3*w+x])

		e.acc5[x] = e.row5[x]
		for y := 1; y < kernelSize; y++ {
			e.acc5[x].add(&e.row5[y*w+x])
		}
	}

	for y := kernelHalf; y < h-kernelHalf; y++ {
		for x := kernelHalf; x < w-kernelHalf; x++ {
			p := image.At(x, y)
			m3 := e.acc3[x].median(4).Native()
			median.Set(x, y, m3)

			if p == m3 {
				continue
			}
			m5 := e.acc5[x].median(12).Native()
			if m3 == m5 {
				continue
			}

			weight := uint8(1)
			if p != m5 {
				weight = 2
			}
			grid.Add(encode(image, x, y, weight), geom.Point{X: x, Y: y},
				e.cols[x], e.rows[y])
		}

		if y+1 < h-kernelHalf {
			for x := kernelHalf; x < w-kernelHalf; x++ {
				e.acc3[x].add(&e.row3[(y+2)*w+x])
				e.acc3[x].sub(&e.row3[(y-1)*w+x])

				e.acc5[x].add(&e.row5[(y+3)*w+x])
				e.acc5[x].sub(&e.row5[(y-2)*w+x])
			}
		}
	}

	return grid, nil
}

// sumRow fills the 3-wide and 5-wide horizontal window histograms for one
// row; out3[x] covers columns x-1..x+1, out5[x] covers x-2..x+2.
func (e *Extractor) sumRow(row []palette.Nat, out3, out5 []histogram) {
	w := len(row)
	for x, p := range row {
		e.ordered[x] = p.Ordered()
	}

	var h3 histogram
	for x := 0; x < 3; x++ {
		h3[e.ordered[x]]++
	}
	out3[1] = h3
	for x := 2; x < w-1; x++ {
		h3[e.ordered[x-2]]--
		h3[e.ordered[x+1]]++
		out3[x] = h3
	}

	var h5 histogram
	for x := 0; x < kernelSize; x++ {
		h5[e.ordered[x]]++
	}
	out5[kernelHalf] = h5
	for x := 3; x < w-kernelHalf; x++ {
		h5[e.ordered[x-3]]--
		h5[e.ordered[x+2]]++
		out5[x] = h5
	}
}

// encode packs the 5x5 window around (x, y) into a descriptor. Rows pack
// left to right into consecutive nibbles; the window's last pixel shares
// its byte with the salience weight.
func encode(image *matrix.Matrix[palette.Nat], x, y int, weight uint8) Code {
	var c Code

	p := func(dx, dy int) byte {
		return byte(image.At(x-kernelHalf+dx, y-kernelHalf+dy))
	}

	for i, o := range [3]int{0, 5, 10} {
		dy := i * 2
		c[o] = p(0, dy) | p(1, dy)<<4
		c[o+1] = p(2, dy) | p(3, dy)<<4
		c[o+2] = p(4, dy) << 4
	}
	for i, o := range [2]int{2, 7} {
		dy := i*2 + 1
		c[o] |= p(0, dy)
		c[o+1] = p(1, dy) | p(2, dy)<<4
		c[o+2] = p(3, dy) | p(4, dy)<<4
	}

	c[CodeLength-1] |= weight

	return c
}
