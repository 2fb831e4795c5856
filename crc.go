package mapstitch

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// SequenceCRC hashes every frame file of a capture directory, in frame
// order, into one checksum. Two directories with the same frames in the
// same order hash identically, so the catalog can tell whether a capture
// was already built.
func SequenceCRC(dir string) (string, error) {
	names, err := frameFiles(dir)
	if err != nil {
		return "", err
	}

	h := crc32.NewIEEE()
	for _, name := range names {
		if err := hashFile(h, name); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%.*X", crc32.Size<<1, h.Sum(nil)), nil
}

func hashFile(h io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(h, f)
	return err
}
