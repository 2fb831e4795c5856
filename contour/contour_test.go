package contour

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

func image(w int, rows ...string) *matrix.Matrix[palette.Nat] {
	d := geom.Dimensions{Width: w, Height: len(rows)}
	m := matrix.New[palette.Nat](d)
	for y, row := range rows {
		for x, c := range row {
			m.Set(x, y, palette.Nat(c-'0'))
		}
	}
	return m
}

func TestEdgePacking(t *testing.T) {
	e := NewEdge(1234, SideLeft|SideBottom)
	assert.Equal(t, 1234, e.Position())
	assert.Equal(t, SideLeft|SideBottom, e.Side())
	assert.True(t, e.Side().Horizontal())
	assert.True(t, e.Side().Vertical())
}

func TestExtractUniform(t *testing.T) {
	m := image(5,
		"33333",
		"33333",
		"33333",
		"33333")

	contours := NewExtractor[palette.Nat](m.Dimensions()).Extract(m)
	require.Len(t, contours, 1)

	c := contours[0]
	assert.Equal(t, uint32(1), c.ID())
	assert.Equal(t, palette.Nat(3), c.Color())
	assert.Equal(t, 6, c.Area())
	assert.Equal(t, 6, c.Perimeter())
	assert.Equal(t, geom.Region{Left: 1, Top: 1, Right: 4, Bottom: 3}, c.Enclosure())
}

func TestExtractBlock(t *testing.T) {
	m := image(7,
		"0000000",
		"0022200",
		"0022200",
		"0022200",
		"0000000")

	// the block splits the surrounding background into two columns
	contours := NewExtractor[palette.Nat](m.Dimensions()).Extract(m)
	require.Len(t, contours, 3)

	left, block, right := contours[0], contours[1], contours[2]
	assert.Equal(t, palette.Nat(0), left.Color())
	assert.Equal(t, palette.Nat(2), block.Color())
	assert.Equal(t, palette.Nat(0), right.Color())

	assert.Equal(t, 9, block.Area())
	assert.Equal(t, 8, block.Perimeter())
	assert.Equal(t, geom.Region{Left: 2, Top: 1, Right: 5, Bottom: 4}, block.Enclosure())

	assert.Equal(t, 3, left.Area())
	assert.Equal(t, geom.Region{Left: 1, Top: 1, Right: 2, Bottom: 4}, left.Enclosure())
	assert.Equal(t, 3, right.Area())
	assert.Equal(t, geom.Region{Left: 5, Top: 1, Right: 6, Bottom: 4}, right.Enclosure())
}

func TestExtractDiagonalDisconnected(t *testing.T) {
	// diagonal touch is not connectivity
	m := image(4,
		"0000",
		"0100",
		"0010",
		"0000")

	contours := NewExtractor[palette.Nat](m.Dimensions()).Extract(m)

	var ones int
	for _, c := range contours {
		if c.Color() == 1 {
			ones++
			assert.Equal(t, 1, c.Area())
		}
	}
	assert.Equal(t, 2, ones)
}

func TestEachRecoversPixels(t *testing.T) {
	m := image(7,
		"0000000",
		"0111110",
		"0100010",
		"0111110",
		"0000000")

	contours := NewExtractor[palette.Nat](m.Dimensions()).Extract(m)

	var ring *Contour[palette.Nat]
	for _, c := range contours {
		if c.Color() == 1 {
			ring = c
		}
	}
	require.NotNil(t, ring)
	assert.Equal(t, 12, ring.Area())

	var got []int
	ring.Each(func(position int) { got = append(got, position) })
	sort.Ints(got)

	var want []int
	for i, p := range m.Data() {
		if p == 1 {
			want = append(want, i)
		}
	}
	assert.Equal(t, want, got)
}

func TestExtractAreasSumToInterior(t *testing.T) {
	m := image(6,
		"012345",
		"011235",
		"002335",
		"000005")

	contours := NewExtractor[palette.Nat](m.Dimensions()).Extract(m)

	total := 0
	for _, c := range contours {
		total += c.Area()
	}
	assert.Equal(t, 4*2, total)
}

func TestExtractorReuse(t *testing.T) {
	d := geom.Dimensions{Width: 5, Height: 5}
	e := NewExtractor[palette.Nat](d)

	a := image(5,
		"00000",
		"01100",
		"01100",
		"00000",
		"00000")
	first := e.Extract(a)
	require.Len(t, first, 2)

	b := image(5,
		"00000",
		"00000",
		"00000",
		"00000",
		"00000")
	second := e.Extract(b)
	require.Len(t, second, 1)
	assert.Equal(t, 9, second[0].Area())
}
