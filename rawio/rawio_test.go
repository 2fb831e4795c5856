package rawio

import (
	"bytes"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfield/mapstitch/geom"
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

func TestFrameRoundTrip(t *testing.T) {
	d := geom.Dimensions{Width: 24, Height: 18}
	want := noiseFrame(d, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, want))
	assert.Equal(t, d.Area(), buf.Len())

	got, err := ReadFrame(&buf, d)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestReadFrameShort(t *testing.T) {
	d := geom.Dimensions{Width: 8, Height: 8}

	_, err := ReadFrame(bytes.NewReader(make([]byte, d.Area()-1)), d)
	assert.ErrorIs(t, err, errNotEnough)
}

func TestReadFrameLong(t *testing.T) {
	d := geom.Dimensions{Width: 8, Height: 8}

	_, err := ReadFrame(bytes.NewReader(make([]byte, d.Area()+1)), d)
	assert.ErrorIs(t, err, errTooMuch)
}

func TestReadFrameBadPixel(t *testing.T) {
	d := geom.Dimensions{Width: 4, Height: 4}

	data := make([]byte, d.Area())
	data[7] = 16

	_, err := ReadFrame(bytes.NewReader(data), d)
	assert.ErrorIs(t, err, errBadPixel)
}

func TestSaveLoadFile(t *testing.T) {
	d := geom.Dimensions{Width: 16, Height: 12}
	want := noiseFrame(d, 2)

	name := filepath.Join(t.TempDir(), "0")
	require.NoError(t, SaveFrame(name, want))

	got, err := LoadFrame(name, d)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestSavePNG(t *testing.T) {
	d := geom.Dimensions{Width: 10, Height: 10}
	want := noiseFrame(d, 3)

	name := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, SavePNG(name, want))

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err)

	// every pixel renders as its palette color
	colors := palette.Colors()
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			wr, wg, wb, _ := colors[want.At(x, y)].RGBA()
			gr, gg, gb, _ := decoded.At(x, y).RGBA()
			require.Equal(t, wr, gr)
			require.Equal(t, wg, gg)
			require.Equal(t, wb, gb)
		}
	}
}

func TestImportRoundTrip(t *testing.T) {
	d := geom.Dimensions{Width: 20, Height: 15}
	want := noiseFrame(d, 4)

	// a PNG in exact palette colors imports losslessly
	name := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, SavePNG(name, want))

	got, err := ImportFile(name, d)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestImportMissingFile(t *testing.T) {
	_, err := ImportFile(
		filepath.Join(t.TempDir(), "absent.png"),
		geom.Dimensions{Width: 8, Height: 8})
	assert.Error(t, err)
}
