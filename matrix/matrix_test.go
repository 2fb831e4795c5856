package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixelfield/mapstitch/geom"
)

func TestNewZeroed(t *testing.T) {
	m := New[uint8](geom.Dimensions{Width: 3, Height: 2})

	assert.Equal(t, 3, m.Width())
	assert.Equal(t, 2, m.Height())
	assert.Equal(t, make([]uint8, 6), m.Data())
}

func TestAtSet(t *testing.T) {
	m := New[int](geom.Dimensions{Width: 4, Height: 3})
	m.Set(2, 1, 42)

	assert.Equal(t, 42, m.At(2, 1))
	assert.Equal(t, 42, m.Data()[m.Index(2, 1)])
	assert.Equal(t, []int{0, 0, 42, 0}, m.Row(1))
}

func TestCrop(t *testing.T) {
	m := New[uint8](geom.Dimensions{Width: 4, Height: 4})
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.Set(x, y, uint8(y*4+x))
		}
	}

	c := m.Crop(geom.Region{Left: 1, Top: 2, Right: 3, Bottom: 4})

	assert.Equal(t, 2, c.Width())
	assert.Equal(t, 2, c.Height())
	assert.Equal(t, []uint8{9, 10, 13, 14}, c.Data())

	// cropped matrix owns its storage
	c.Set(0, 0, 99)
	assert.Equal(t, uint8(9), m.At(1, 2))
}

func TestExtend(t *testing.T) {
	m := New[uint8](geom.Dimensions{Width: 2, Height: 2})
	m.Set(0, 0, 1)
	m.Set(1, 1, 2)

	e := m.Extend(1, 2, 1, 0)

	assert.Equal(t, 5, e.Width())
	assert.Equal(t, 3, e.Height())
	assert.Equal(t, uint8(1), e.At(1, 1))
	assert.Equal(t, uint8(2), e.At(2, 2))
	assert.Equal(t, uint8(0), e.At(0, 0))
}

func TestMap(t *testing.T) {
	m := New[uint8](geom.Dimensions{Width: 2, Height: 1})
	m.Set(0, 0, 3)
	m.Set(1, 0, 7)

	d := Map(m, func(v uint8) uint16 { return uint16(v) * 10 })

	assert.Equal(t, []uint16{30, 70}, d.Data())
}
