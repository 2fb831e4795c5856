/*
Package rawio moves frames between disk and the palette-indexed
matrices the pipeline works on.

A raw capture file stores one byte per pixel, the palette index, row
major, with nothing else. PNG export renders through the fixed console
palette; arbitrary source images can be imported by resizing them to
the screen dimensions, quantizing and snapping every color to the
nearest palette entry.
*/
package rawio

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/nfnt/resize"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

var (
	errNotEnough = errors.New("rawio: not enough image data")
	errTooMuch   = errors.New("rawio: too much image data")
	errBadPixel  = errors.New("rawio: pixel outside the palette")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// ReadFrame decodes one raw frame of the given dimensions from r. The
// reader must hold exactly one frame.
func ReadFrame(r io.Reader, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error) {
	buf := make([]byte, dims.Area())
	if err := readFull(r, buf); err != nil {
		if err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, errNotEnough
	}

	var tmp [1]byte
	if n, err := r.Read(tmp[:]); n != 0 || (err != io.EOF && err != io.ErrUnexpectedEOF) {
		if err != nil {
			return nil, err
		}
		return nil, errTooMuch
	}

	pixels := make([]palette.Nat, len(buf))
	for i, b := range buf {
		if b >= palette.Size {
			return nil, errBadPixel
		}
		pixels[i] = palette.Nat(b)
	}

	return matrix.NewWith(dims, pixels), nil
}

// LoadFrame reads one raw frame from a file.
func LoadFrame(name string, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFrame(f, dims)
}

// WriteFrame encodes a frame in raw capture form.
func WriteFrame(w io.Writer, m *matrix.Matrix[palette.Nat]) error {
	buf := make([]byte, len(m.Data()))
	for i, p := range m.Data() {
		buf[i] = byte(p)
	}
	_, err := w.Write(buf)
	return err
}

// SaveFrame writes one raw frame to a file.
func SaveFrame(name string, m *matrix.Matrix[palette.Nat]) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteFrame(f, m)
}

// SavePNG renders a palette-indexed image through the console palette
// and writes it as PNG.
func SavePNG(name string, m *matrix.Matrix[palette.Nat]) error {
	out := image.NewPaletted(
		image.Rect(0, 0, m.Width(), m.Height()), palette.Colors())
	for i, p := range m.Data() {
		out.Pix[i] = uint8(p)
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, out)
}

// Import converts an arbitrary image into a palette-indexed frame of
// the given dimensions. The source is resized when needed, quantized
// down to at most 16 colors and snapped to the console palette.
func Import(r io.Reader, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	if b.Dx() != dims.Width || b.Dy() != dims.Height {
		src = resize.Resize(
			uint(dims.Width), uint(dims.Height), src, resize.Lanczos3)
	}

	q := quantize.MedianCutQuantizer{}
	quantized := image.NewPaletted(
		src.Bounds(),
		q.Quantize(make(color.Palette, 0, palette.Size), src))
	draw.Draw(quantized, quantized.Bounds(), src, src.Bounds().Min, draw.Src)

	// one lookup per quantized entry instead of one per pixel
	snapped := make([]palette.Nat, len(quantized.Palette))
	for i, c := range quantized.Palette {
		snapped[i] = palette.Snap(c)
	}

	out := matrix.New[palette.Nat](dims)
	for i, p := range quantized.Pix {
		out.Data()[i] = snapped[p]
	}
	return out, nil
}

// ImportFile converts an image file into a palette-indexed frame.
func ImportFile(name string, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Import(f, dims)
}
