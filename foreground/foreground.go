/*
Package foreground removes transient sprites from a stitched fragment.

The blended fragment is the background consensus. Each source frame is
compared against the consensus; the connected regions of its denoised
image that disagree everywhere with the consensus, and are small enough
to be sprites rather than scenery, are masked out. Re-blitting the
masked frames yields a fragment whose consensus no longer carries
foreground ghosts.
*/
package foreground

import (
	"fmt"
	"sort"

	"github.com/pixelfield/mapstitch/contour"
	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// Codec restores the pixel payloads cached on fragment frames.
type Codec interface {
	Decompress(data []byte, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error)
}

// a sprite can cover at most this fraction of the frame
const spriteAreaDivisor = 5

// Filter rebuilds the fragment without its foreground sprites. Every
// frame must carry image and median payloads of the given dimensions.
func Filter(f *fragment.Fragment, dims geom.Dimensions, codec Codec) (*fragment.Fragment, error) {
	background, _ := f.Blend()

	frames := append([]fragment.Frame(nil), f.Frames()...)
	sort.Slice(frames, func(i, j int) bool { return frames[i].Number < frames[j].Number })

	extractor := contour.NewExtractor[palette.Nat](dims)
	out := fragment.New(dims)

	for _, frame := range frames {
		image, err := codec.Decompress(frame.Image, dims)
		if err != nil {
			return nil, fmt.Errorf("frame %d image: %w", frame.Number, err)
		}
		median, err := codec.Decompress(frame.Median, dims)
		if err != nil {
			return nil, fmt.Errorf("frame %d median: %w", frame.Number, err)
		}

		local := geom.Point{}.Add(frame.Position.Sub(f.Origin()))
		still := agreement(image, background.Crop(geom.Rect(local, dims)))

		mask := matrix.New[palette.Bit](dims)
		for _, c := range extractor.Extract(median) {
			if sprite(c, still, dims) {
				cover(mask, c.Enclosure())
			}
		}

		out.BlitMasked(frame.Position, image, mask, frame)
	}

	return out, nil
}

// agreement flags the pixels where the frame matches the background
// consensus.
func agreement(image, background *matrix.Matrix[palette.Nat]) *matrix.Matrix[uint8] {
	out := matrix.New[uint8](image.Dimensions())
	data, bg := image.Data(), background.Data()
	for i := range data {
		if data[i] == bg[i] {
			out.Data()[i] = 0xff
		}
	}
	return out
}

// sprite reports whether the contour disagrees with the background over
// its whole extent and is small enough to be a moving object.
func sprite(c *contour.Contour[palette.Nat], still *matrix.Matrix[uint8], dims geom.Dimensions) bool {
	if c.Area() > dims.Area()/spriteAreaDivisor {
		return false
	}

	moving := true
	c.Each(func(position int) {
		if still.Data()[position] != 0 {
			moving = false
		}
	})
	return moving
}

// cover marks the enclosing box of an accepted sprite.
func cover(mask *matrix.Matrix[palette.Bit], r geom.Region) {
	for y := r.Top; y < r.Bottom; y++ {
		for x := r.Left; x < r.Right; x++ {
			mask.Set(x, y, 1)
		}
	}
}
