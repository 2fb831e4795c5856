/*
Package keypoint implements salience detection over 16-color frames and
the offset voting that registers frames and fragments against each other.

A keypoint is a pixel whose color disagrees with the rank median of its
neighborhood. Its descriptor packs the surrounding 5x5 window of palette
indices into 13 bytes, one nibble per pixel, with the salience weight in
the low nibble of the last byte.
*/
package keypoint

// CodeLength is the descriptor size in bytes.
const CodeLength = 13

// Code is a packed 5x5 window descriptor. Codes compare byte-equal and
// are used directly as map keys.
type Code [CodeLength]byte

// Weight returns the salience weight stored in the descriptor, 1 or 2.
func (c Code) Weight() uint8 {
	return c[CodeLength-1] & 0x0f
}

// Hash returns the FNV-1a hash of the descriptor.
func (c Code) Hash() uint32 {
	h := uint32(2166136261)
	for _, b := range c {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}
