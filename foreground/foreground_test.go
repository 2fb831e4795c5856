package foreground

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
	"github.com/pixelfield/mapstitch/rle"
)

type rleCodec struct{}

func (rleCodec) Decompress(data []byte, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error) {
	pixels, err := rle.Decompress(data, dims.Area())
	if err != nil {
		return nil, err
	}
	return matrix.NewWith(dims, pixels), nil
}

func frameWith(dims geom.Dimensions, number int, image *matrix.Matrix[palette.Nat]) fragment.Frame {
	payload := rle.Compress(image.Data())
	return fragment.Frame{
		Number: number,
		Image:  payload,
		Median: payload,
	}
}

func scene(dims geom.Dimensions, sprite geom.Region, color palette.Nat) *matrix.Matrix[palette.Nat] {
	m := matrix.New[palette.Nat](dims)
	for i := range m.Data() {
		m.Data()[i] = 5
	}
	for y := sprite.Top; y < sprite.Bottom; y++ {
		for x := sprite.Left; x < sprite.Right; x++ {
			m.Set(x, y, color)
		}
	}
	return m
}

func TestFilterRemovesSprite(t *testing.T) {
	dims := geom.Dimensions{Width: 24, Height: 20}

	// the same sprite at a different place in each frame
	boxes := []geom.Region{
		{Left: 2, Top: 2, Right: 6, Bottom: 6},
		{Left: 10, Top: 8, Right: 14, Bottom: 12},
		{Left: 18, Top: 14, Right: 22, Bottom: 18},
	}

	f := fragment.New(dims)
	for i, box := range boxes {
		image := scene(dims, box, 11)
		f.Blit(geom.Point{}, image, frameWith(dims, i, image))
	}

	out, err := Filter(f, dims, rleCodec{})
	require.NoError(t, err)

	// each frame lost exactly its sprite box
	masked := uint64(0)
	for _, box := range boxes {
		masked += uint64(box.Area())
	}
	assert.Equal(t, uint64(3*dims.Area())-masked, out.Weight())

	// the other frames still cover the masked boxes
	blend, mask := out.Blend()
	for i, p := range blend.Data() {
		require.Equal(t, uint8(1), mask.Data()[i])
		require.Equal(t, palette.Nat(5), p)
	}
}

func TestFilterKeepsLargeObjects(t *testing.T) {
	dims := geom.Dimensions{Width: 20, Height: 20}

	// a quarter of the frame is scenery, not a sprite
	big := geom.Region{Left: 2, Top: 2, Right: 12, Bottom: 12}

	f := fragment.New(dims)
	for i := 0; i < 3; i++ {
		image := scene(dims, big, 11)
		f.Blit(geom.Point{}, image, frameWith(dims, i, image))
	}

	out, err := Filter(f, dims, rleCodec{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3*dims.Area()), out.Weight())

	blend, _ := out.Blend()
	assert.Equal(t, palette.Nat(11), blend.At(5, 5))
}

func TestFilterKeepsAgreeingRegions(t *testing.T) {
	dims := geom.Dimensions{Width: 20, Height: 20}
	box := geom.Region{Left: 4, Top: 4, Right: 8, Bottom: 8}

	// every frame carries the box, so it is part of the consensus
	f := fragment.New(dims)
	for i := 0; i < 3; i++ {
		image := scene(dims, box, 11)
		f.Blit(geom.Point{}, image, frameWith(dims, i, image))
	}

	out, err := Filter(f, dims, rleCodec{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3*dims.Area()), out.Weight())
}
