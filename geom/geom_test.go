package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointOffset(t *testing.T) {
	p := Point{10, 20}
	q := Point{3, 5}

	o := p.Sub(q)
	assert.Equal(t, Offset{7, 15}, o)
	assert.Equal(t, p, q.Add(o))
	assert.Equal(t, q, p.Add(o.Neg()))
	assert.Equal(t, Offset{8, 17}, o.Add(Offset{1, 2}))
}

func TestRegion(t *testing.T) {
	r := Rect(Point{2, 3}, Dimensions{4, 5})

	assert.Equal(t, Region{2, 3, 6, 8}, r)
	assert.Equal(t, 4, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.Equal(t, 20, r.Area())
	assert.True(t, r.Contains(Point{2, 3}))
	assert.True(t, r.Contains(Point{5, 7}))
	assert.False(t, r.Contains(Point{6, 7}))
	assert.False(t, r.Contains(Point{5, 8}))

	assert.Equal(t, Region{3, 4, 5, 7}, r.Shrink(1))
	assert.Equal(t, Region{0, 3, 6, 9}, r.Union(Region{0, 5, 4, 9}))
}

func TestLimits(t *testing.T) {
	l := NewLimits()

	for _, v := range []int{4, -2, 9, 0} {
		l.Update(v)
	}

	assert.Equal(t, -2, l.Lower)
	assert.Equal(t, 9, l.Upper)
	assert.Equal(t, 11, l.Size())
}
