package render

import (
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/keypoint"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

func noiseFrame(d geom.Dimensions, seed int64) *matrix.Matrix[palette.Nat] {
	rng := rand.New(rand.NewSource(seed))
	m := matrix.New[palette.Nat](d)
	for i := range m.Data() {
		m.Data()[i] = palette.Nat(rng.Intn(16))
	}
	return m
}

func TestConsensusMarksHoles(t *testing.T) {
	d := geom.Dimensions{Width: 32, Height: 16}

	f := fragment.New(d)
	half := geom.Dimensions{Width: 16, Height: 16}
	f.Blit(geom.Point{}, noiseFrame(half, 1), fragment.Frame{Number: 0})

	img := Consensus(f)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())

	// covered pixels are opaque palette colors, holes are gray checker
	_, _, _, a := img.At(4, 4).RGBA()
	assert.Equal(t, uint32(0xffff), a)

	r, g, b, _ := img.At(20, 4).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestImagePixels(t *testing.T) {
	d := geom.Dimensions{Width: 8, Height: 8}
	m := noiseFrame(d, 2)

	img := Image(m)
	colors := palette.Colors()
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			wr, wg, wb, _ := colors[m.At(x, y)].RGBA()
			gr, gg, gb, _ := img.At(x, y).RGBA()
			require.Equal(t, wr, gr)
			require.Equal(t, wg, gg)
			require.Equal(t, wb, gb)
		}
	}
}

func TestKeypointsOverlay(t *testing.T) {
	d := geom.Dimensions{Width: 40, Height: 40}
	frame := noiseFrame(d, 7)

	e := keypoint.NewExtractor(d, 1, 1, 0)
	median := matrix.New[palette.Nat](d)
	grid, err := e.Extract(frame, median)
	require.NoError(t, err)

	img := Keypoints(frame, grid)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestHeatmapClamps(t *testing.T) {
	d := geom.Dimensions{Width: 4, Height: 4}
	heat := matrix.New[float32](d)
	heat.Set(0, 0, 100)
	heat.Set(1, 0, 0.5)

	img := Heatmap(heat)

	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	r, _, _, _ = img.At(3, 3).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestWindowOutline(t *testing.T) {
	d := geom.Dimensions{Width: 20, Height: 20}
	frame := matrix.New[palette.Nat](d)

	img := Window(frame, geom.Region{Left: 4, Top: 4, Right: 16, Bottom: 16})

	// the outline is drawn in yellow
	r, g, b, _ := img.At(4, 10).RGBA()
	assert.NotEqual(t, uint32(0), r)
	assert.NotEqual(t, uint32(0), g)
	assert.Equal(t, r, g)
	_ = b
}

func TestScale(t *testing.T) {
	d := geom.Dimensions{Width: 6, Height: 4}
	img := Scale(Image(noiseFrame(d, 3)), 4)

	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestSave(t *testing.T) {
	d := geom.Dimensions{Width: 8, Height: 8}
	name := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, Save(name, Image(noiseFrame(d, 4))))

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())
}
