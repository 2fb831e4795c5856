/*
Package rle implements the run-length codec used to cache frame payloads
inside fragments and checkpoint files. Palette indices occupy one nibble,
so literal spans are packed two pixels per byte, first pixel in the high
nibble.

The stream is a sequence of control bytes selected by the top two bits:

	00 0000 LLLL            run of L+3 pixels, color in the next byte
	01 0000 0NNN            run, color in the next byte, then N
	                        little-endian length bytes
	10 LLLLLL               literal of L+1 (1..64) pixels, packed
	11 LLLLLL LLLLLLLL      literal of up to 16383 pixels, packed
*/
package rle

import (
	"errors"

	"github.com/pixelfield/mapstitch/palette"
)

// ErrCorrupt reports a truncated stream or an invalid control byte.
var ErrCorrupt = errors.New("rle: corrupt stream")

const (
	shortRunMax     = 18
	shortLiteralMax = 64
	longLiteralMax  = 16383
)

// Compress encodes a sequence of palette indices.
func Compress(pixels []palette.Nat) []byte {
	out := make([]byte, 0, len(pixels)/2+4)

	lit := 0
	for i := 0; i < len(pixels); {
		j := i + 1
		for j < len(pixels) && pixels[j] == pixels[i] {
			j++
		}

		if run := j - i; run >= 3 {
			out = appendLiterals(out, pixels[lit:i])
			out = appendRun(out, run, pixels[i])
			lit = j
		}
		i = j
	}

	return appendLiterals(out, pixels[lit:])
}

func appendRun(out []byte, run int, color palette.Nat) []byte {
	if run <= shortRunMax {
		return append(out, byte(run-3), byte(color))
	}

	var ext [8]byte
	n := 0
	for v := run; v != 0; v >>= 8 {
		ext[n] = byte(v)
		n++
	}

	out = append(out, 0x40|byte(n), byte(color))
	return append(out, ext[:n]...)
}

func appendLiterals(out []byte, pixels []palette.Nat) []byte {
	for len(pixels) > 0 {
		n := len(pixels)
		if n > longLiteralMax {
			n = longLiteralMax
		}

		if n <= shortLiteralMax {
			out = append(out, 0x80|byte(n-1))
		} else {
			out = append(out, 0xc0|byte(n>>8), byte(n))
		}

		for i := 0; i < n-1; i += 2 {
			out = append(out, byte(pixels[i])<<4|byte(pixels[i+1]))
		}
		if n%2 != 0 {
			out = append(out, byte(pixels[n-1])<<4)
		}

		pixels = pixels[n:]
	}

	return out
}

// Decompress decodes a stream into exactly n palette indices.
func Decompress(data []byte, n int) ([]palette.Nat, error) {
	out := make([]palette.Nat, 0, n)

	for i := 0; i < len(data); {
		c := data[i]
		i++

		switch c >> 6 {
		case 0:
			if c&0x30 != 0 || i >= len(data) {
				return nil, ErrCorrupt
			}
			run := int(c&0x0f) + 3
			if len(out)+run > n {
				return nil, ErrCorrupt
			}
			out = appendPixels(out, run, data[i])
			i++

		case 1:
			ext := int(c & 0x07)
			if c&0x38 != 0 || ext == 0 || i+ext >= len(data) {
				return nil, ErrCorrupt
			}
			run := 0
			for k := ext; k > 0; k-- {
				run = run<<8 | int(data[i+k])
			}
			if len(out)+run > n {
				return nil, ErrCorrupt
			}
			out = appendPixels(out, run, data[i])
			i += ext + 1

		default:
			length := int(c&0x3f) + 1
			if c>>6 == 3 {
				if i >= len(data) {
					return nil, ErrCorrupt
				}
				length = int(c&0x3f)<<8 | int(data[i])
				i++
			}

			packed := (length + 1) / 2
			if i+packed > len(data) {
				return nil, ErrCorrupt
			}
			for k := 0; k < length; k++ {
				b := data[i+k/2]
				if k%2 == 0 {
					b >>= 4
				}
				out = append(out, palette.Nat(b&0x0f))
			}
			i += packed
		}

		if len(out) > n {
			return nil, ErrCorrupt
		}
	}

	if len(out) != n {
		return nil, ErrCorrupt
	}

	return out, nil
}

func appendPixels(out []palette.Nat, run int, color byte) []palette.Nat {
	for ; run > 0; run-- {
		out = append(out, palette.Nat(color&0x0f))
	}
	return out
}
