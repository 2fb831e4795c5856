/*
Package palette defines the fixed 16-color palette and the luminance-rank
lookup tables derived from it. The tables are built once at program init
and never mutated.
*/
package palette

import (
	"image/color"
	"sort"
)

// Nat is a native palette index in 0..15.
type Nat uint8

// Ordered is the rank of a palette color in luminance order, 0..15.
type Ordered uint8

// Bit is a monochrome pixel value, 0 or 1.
type Bit uint8

// Size is the number of palette entries.
const Size = 16

// rgb holds the palette entries as packed 0x00RRGGBB values.
var rgb = [Size]uint32{
	0x000000,
	0xFFFFFF,
	0x68372B,
	0x70A4B2,
	0x6F3D86,
	0x588D43,
	0x352879,
	0xB8C76F,
	0x6F4F25,
	0x433900,
	0x9A6759,
	0x444444,
	0x6C6C6C,
	0x9AD284,
	0x6C5EB5,
	0x959595,
}

var (
	orderedToNative [Size]Nat
	nativeToOrdered [Size]Ordered
)

func init() {
	for i := range orderedToNative {
		orderedToNative[i] = Nat(i)
	}
	sort.SliceStable(orderedToNative[:], func(a, b int) bool {
		return orderedToNative[a].Intensity() < orderedToNative[b].Intensity()
	})
	for r, c := range orderedToNative {
		nativeToOrdered[c] = Ordered(r)
	}
}

// RGB returns the palette entry as a packed 0x00RRGGBB value.
func (c Nat) RGB() uint32 {
	return rgb[c]
}

// Intensity returns the luminance of the palette entry in 0..1.
func (c Nat) Intensity() float32 {
	v := rgb[c]
	r := float32(v >> 16 & 0xff)
	g := float32(v >> 8 & 0xff)
	b := float32(v & 0xff)
	return (0.3*r + 0.59*g + 0.11*b) / 255.0
}

// Ordered returns the luminance rank of the palette entry.
func (c Nat) Ordered() Ordered {
	return nativeToOrdered[c]
}

// Native returns the palette entry holding the given luminance rank.
func (r Ordered) Native() Nat {
	return orderedToNative[r]
}

// Colors returns the palette as a color.Palette for PNG encoding.
func Colors() color.Palette {
	p := make(color.Palette, Size)
	for i, v := range rgb {
		p[i] = color.NRGBA{
			R: uint8(v >> 16),
			G: uint8(v >> 8),
			B: uint8(v),
			A: 0xff,
		}
	}
	return p
}

// Snap returns the palette entry closest to c by squared RGB distance.
func Snap(c color.Color) Nat {
	r, g, b, _ := c.RGBA()

	best, bestDist := Nat(0), uint32(1)<<31
	for i, v := range rgb {
		dr := int32(r>>8) - int32(v>>16&0xff)
		dg := int32(g>>8) - int32(v>>8&0xff)
		db := int32(b>>8) - int32(v&0xff)

		if d := uint32(dr*dr + dg*dg + db*db); d < bestDist {
			best, bestDist = Nat(i), d
		}
	}

	return best
}
