package keypoint

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

func TestCodeWeight(t *testing.T) {
	var c Code
	c[CodeLength-1] = 0x62

	assert.Equal(t, uint8(2), c.Weight())
}

func TestCodeHashDiffers(t *testing.T) {
	var a, b Code
	b[4] = 1

	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestSpans(t *testing.T) {
	s := spans(388, 4, 16)

	// 388/4 - 8 = 89 exclusive columns per section
	assert.Equal(t, span{0, 0}, s[2])
	assert.Equal(t, span{0, 0}, s[90])
	assert.Equal(t, span{0, 1}, s[91])
	assert.Equal(t, span{0, 1}, s[106])
	assert.Equal(t, span{1, 1}, s[107])
	assert.Equal(t, span{2, 3}, s[301])
	assert.Equal(t, span{3, 3}, s[317])
	assert.Equal(t, span{3, 3}, s[387])
}

func TestSpansSingleRegion(t *testing.T) {
	for _, s := range spans(64, 1, 0) {
		assert.Equal(t, span{0, 0}, s)
	}
}

func newImage(d geom.Dimensions, fill palette.Nat) *matrix.Matrix[palette.Nat] {
	m := matrix.New[palette.Nat](d)
	for i := range m.Data() {
		m.Data()[i] = fill
	}
	return m
}

func noiseImage(d geom.Dimensions, seed int64) *matrix.Matrix[palette.Nat] {
	rng := rand.New(rand.NewSource(seed))
	m := matrix.New[palette.Nat](d)
	for i := range m.Data() {
		m.Data()[i] = palette.Nat(rng.Intn(16))
	}
	return m
}

func extract(t *testing.T, e *Extractor, image *matrix.Matrix[palette.Nat]) *Grid {
	t.Helper()

	median := matrix.New[palette.Nat](image.Dimensions())
	grid, err := e.Extract(image, median)
	require.NoError(t, err)

	return grid
}

func TestExtractFlat(t *testing.T) {
	d := geom.Dimensions{Width: 32, Height: 32}
	image := newImage(d, 7)

	e := NewExtractor(d, 1, 1, 0)
	median := matrix.New[palette.Nat](d)
	grid, err := e.Extract(image, median)

	require.NoError(t, err)
	assert.False(t, grid.Region(0).Active())
	assert.Equal(t, image.Data(), median.Data())
}

func TestExtractDimensionMismatch(t *testing.T) {
	e := NewExtractor(geom.Dimensions{Width: 32, Height: 32}, 1, 1, 0)

	image := newImage(geom.Dimensions{Width: 16, Height: 16}, 0)
	median := matrix.New[palette.Nat](image.Dimensions())

	_, err := e.Extract(image, median)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestExtractSaliencePattern(t *testing.T) {
	// a center pixel disagreeing with both its 3x3 and 5x5 majority
	// color yields a weight-2 keypoint
	d := geom.Dimensions{Width: 25, Height: 25}
	image := newImage(d, 6)
	for y := 11; y <= 13; y++ {
		for x := 11; x <= 13; x++ {
			image.Set(x, y, 11)
		}
	}
	image.Set(12, 12, 1)

	e := NewExtractor(d, 1, 1, 0)
	median := matrix.New[palette.Nat](d)
	grid, err := e.Extract(image, median)
	require.NoError(t, err)

	// the center median is the 3x3 majority
	assert.Equal(t, palette.Nat(11), median.At(12, 12))

	want := Code{
		0x66, 0x66, 0x66, 0xbb, 0x6b,
		0xb6, 0xb1, 0x66, 0xbb, 0x6b,
		0x66, 0x66, 0x62,
	}
	points, ok := grid.Region(0).Points()[want]
	require.True(t, ok)
	assert.Contains(t, points, geom.Point{X: 12, Y: 12})
	assert.Equal(t, uint8(2), want.Weight())
}

func TestExtractMedianInvariant(t *testing.T) {
	d := geom.Dimensions{Width: 64, Height: 64}
	image := noiseImage(d, 1)

	e := NewExtractor(d, 1, 1, 0)
	median := matrix.New[palette.Nat](d)
	grid, err := e.Extract(image, median)
	require.NoError(t, err)

	for code, points := range grid.Region(0).Points() {
		for _, p := range points {
			// every keypoint disagrees with its 3x3 median
			assert.NotEqual(t, image.At(p.X, p.Y), median.At(p.X, p.Y))
			assert.GreaterOrEqual(t, code.Weight(), uint8(1))
			assert.LessOrEqual(t, code.Weight(), uint8(2))
		}
	}
}

func shiftedPair(t *testing.T, off geom.Offset) (*Grid, *Grid) {
	t.Helper()

	scene := noiseImage(geom.Dimensions{Width: 160, Height: 160}, 42)
	d := geom.Dimensions{Width: 128, Height: 128}

	prev := scene.Crop(geom.Rect(geom.Point{}, d))
	cur := scene.Crop(geom.Rect(geom.Point{X: off.X, Y: off.Y}, d))

	e := NewExtractor(d, 4, 2, 16)
	return extract(t, e, prev), extract(t, e, cur)
}

func TestMatchTranslation(t *testing.T) {
	want := geom.Offset{X: 5, Y: 3}
	prev, cur := shiftedPair(t, want)

	got, ok := Match(DefaultConfig(), prev, cur)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMatchSymmetry(t *testing.T) {
	want := geom.Offset{X: 5, Y: 3}
	prev, cur := shiftedPair(t, want)

	// the reverse match may fail, but must never contradict
	if got, ok := Match(DefaultConfig(), cur, prev); ok {
		assert.Equal(t, want.Neg(), got)
	}
}

func TestMatchRejectsUnrelated(t *testing.T) {
	d := geom.Dimensions{Width: 128, Height: 128}
	e := NewExtractor(d, 4, 2, 16)

	prev := extract(t, e, noiseImage(d, 7))
	cur := extract(t, e, noiseImage(d, 8))

	_, ok := Match(DefaultConfig(), prev, cur)
	assert.False(t, ok)
}

func TestMatchRejectsEmpty(t *testing.T) {
	d := geom.Dimensions{Width: 64, Height: 64}
	e := NewExtractor(d, 4, 2, 16)

	prev := extract(t, e, noiseImage(d, 7))
	cur := extract(t, e, newImage(d, 3))

	_, ok := Match(DefaultConfig(), prev, cur)
	assert.False(t, ok)
}

func fullMask(d geom.Dimensions) *matrix.Matrix[uint8] {
	m := matrix.New[uint8](d)
	for i := range m.Data() {
		m.Data()[i] = 1
	}
	return m
}

func TestMatchFragmentsTranslation(t *testing.T) {
	scene := noiseImage(geom.Dimensions{Width: 160, Height: 160}, 42)
	d := geom.Dimensions{Width: 128, Height: 128}

	want := geom.Offset{X: 5, Y: 3}
	prev := scene.Crop(geom.Rect(geom.Point{}, d))
	cur := scene.Crop(geom.Rect(geom.Point{X: want.X, Y: want.Y}, d))

	e := NewExtractor(d, 1, 1, 0)
	pgrid, cgrid := extract(t, e, prev), extract(t, e, cur)

	vote, ok := MatchFragments(DefaultConfig(),
		pgrid.Region(0), fullMask(d), cgrid.Region(0), fullMask(d))

	require.True(t, ok)
	assert.Equal(t, want, vote.Offset)
	assert.Greater(t, vote.Count, 0)
}

func TestMatchFragmentsRejectsUnrelated(t *testing.T) {
	d := geom.Dimensions{Width: 128, Height: 128}
	e := NewExtractor(d, 1, 1, 0)

	pgrid := extract(t, e, noiseImage(d, 7))
	cgrid := extract(t, e, noiseImage(d, 8))

	_, ok := MatchFragments(DefaultConfig(),
		pgrid.Region(0), fullMask(d), cgrid.Region(0), fullMask(d))
	assert.False(t, ok)
}
