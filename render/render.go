/*
Package render turns pipeline intermediates into viewable images.

Everything here is diagnostic output: consensus images with coverage
holes, keypoint overlays, repetition heatmaps and detected playfield
windows. None of it feeds back into the pipeline.
*/
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"

	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/keypoint"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// uncovered cells render as this checker so holes stand out
var (
	checkerLight = color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	checkerDark  = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// Consensus renders the fragment's blended image. Cells no frame ever
// covered show as a checkerboard.
func Consensus(f *fragment.Fragment) image.Image {
	blend, mask := f.Blend()
	colors := palette.Colors()

	out := image.NewNRGBA(image.Rect(0, 0, blend.Width(), blend.Height()))
	for y := 0; y < blend.Height(); y++ {
		for x := 0; x < blend.Width(); x++ {
			if mask.At(x, y) == 0 {
				if (x/8+y/8)%2 == 0 {
					out.Set(x, y, checkerLight)
				} else {
					out.Set(x, y, checkerDark)
				}
				continue
			}
			out.Set(x, y, colors[blend.At(x, y)])
		}
	}
	return out
}

// Image renders a palette-indexed matrix directly.
func Image(m *matrix.Matrix[palette.Nat]) image.Image {
	colors := palette.Colors()

	out := image.NewPaletted(image.Rect(0, 0, m.Width(), m.Height()), colors)
	for i, p := range m.Data() {
		out.Pix[i] = uint8(p)
	}
	return out
}

// Keypoints overlays the grid's keypoints on a frame. Weight one points
// draw green, weight two red.
func Keypoints(frame *matrix.Matrix[palette.Nat], grid *keypoint.Grid) image.Image {
	dc := gg.NewContextForImage(Image(frame))

	for i := 0; i < grid.Width()*grid.Height(); i++ {
		region := grid.Region(i)
		for code, points := range region.Points() {
			if code.Weight() == 1 {
				dc.SetRGB255(0x30, 0xd0, 0x30)
			} else {
				dc.SetRGB255(0xd0, 0x30, 0x30)
			}
			for _, p := range points {
				dc.DrawCircle(float64(p.X), float64(p.Y), 1.5)
				dc.Fill()
			}
		}
	}

	return dc.Image()
}

// Heatmap renders repetition scores, black for repetitive pixels up to
// full red for isolated ones.
func Heatmap(heat *matrix.Matrix[float32]) image.Image {
	out := image.NewNRGBA(image.Rect(0, 0, heat.Width(), heat.Height()))
	for y := 0; y < heat.Height(); y++ {
		for x := 0; x < heat.Width(); x++ {
			v := heat.At(x, y)
			if v > 1 {
				v = 1
			}
			out.Set(x, y, color.NRGBA{R: uint8(v * 0xff), A: 0xff})
		}
	}
	return out
}

// Window draws the detected playfield bounds over a frame.
func Window(frame *matrix.Matrix[palette.Nat], r geom.Region) image.Image {
	dc := gg.NewContextForImage(Image(frame))

	dc.SetRGB255(0xff, 0xff, 0x00)
	dc.SetLineWidth(1)
	dc.DrawRectangle(
		float64(r.Left), float64(r.Top),
		float64(r.Width()), float64(r.Height()))
	dc.Stroke()

	return dc.Image()
}

// Scale enlarges a diagnostic image without smearing pixel boundaries.
func Scale(img image.Image, factor int) image.Image {
	b := img.Bounds()
	return resize.Resize(
		uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor)
}

// Save writes any rendered image as PNG.
func Save(name string, img image.Image) error {
	return gg.SavePNG(name, img)
}
