package fragment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
)

// errTruncated reports a checkpoint file ending mid-record.
var errTruncated = errors.New("fragment: truncated checkpoint")

// errCorrupt reports a checkpoint header demanding impossible sizes.
var errCorrupt = errors.New("fragment: corrupt checkpoint")

const zstdSuffix = ".zst"

// header limits so a corrupt file fails before any large allocation
const (
	maxExtent  = 1 << 16
	maxFrames  = 1 << 24
	maxPayload = 1 << 28
)

/*
Checkpoint files let the pipeline be resumed between stages. Each
fragment is one little-endian binary file in a directory, named by its
index:

	dimensions      2 x uint64
	cells           dimensions.area() dots of 16 x uint16
	origin          2 x int32
	frame count     uint64
	frames          number uint64, position 2 x int32,
	                image payload (uint64 length + bytes),
	                median payload (uint64 length + bytes)

Files carrying the ".zst" suffix are zstd-compressed; Write chooses the
suffix, Read accepts both.
*/

// Write checkpoints fragments into dir, one numbered file each.
func Write(dir string, fragments []*Fragment, compress bool) error {
	for i, f := range fragments {
		name := filepath.Join(dir, strconv.Itoa(i))
		if compress {
			name += zstdSuffix
		}
		if err := writeOne(name, f, compress); err != nil {
			return err
		}
	}
	return nil
}

func writeOne(name string, f *Fragment, compress bool) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	var w io.Writer = file
	var enc *zstd.Encoder
	if compress {
		if enc, err = zstd.NewWriter(file); err != nil {
			return err
		}
		w = enc
	}

	if err := encode(w, f); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return err
		}
	}

	return file.Close()
}

func encode(w io.Writer, f *Fragment) error {
	d := f.Dimensions()
	if err := binary.Write(w, binary.LittleEndian,
		[2]uint64{uint64(d.Width), uint64(d.Height)}); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, f.dots.Data()); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian,
		[2]int32{int32(f.origin.X), int32(f.origin.Y)}); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(f.frames))); err != nil {
		return err
	}

	for _, frame := range f.frames {
		if err := binary.Write(w, binary.LittleEndian, uint64(frame.Number)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian,
			[2]int32{int32(frame.Position.X), int32(frame.Position.Y)}); err != nil {
			return err
		}
		for _, payload := range [][]byte{frame.Image, frame.Median} {
			if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
				return err
			}
			if _, err := w.Write(payload); err != nil {
				return err
			}
		}
	}

	return nil
}

// Read loads every checkpoint file in dir, in numeric filename order.
func Read(dir string) ([]*Fragment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		index int
		name  string
	}
	var files []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		index, err := strconv.Atoi(strings.TrimSuffix(name, zstdSuffix))
		if err != nil {
			continue
		}
		files = append(files, numbered{index, filepath.Join(dir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	fragments := make([]*Fragment, 0, len(files))
	for _, file := range files {
		f, err := readOne(file.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.name, err)
		}
		fragments = append(fragments, f)
	}

	return fragments, nil
}

func readOne(name string) (*Fragment, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if filepath.Ext(name) == zstdSuffix {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	return decode(r)
}

func decode(r io.Reader) (*Fragment, error) {
	var dim [2]uint64
	if err := read(r, &dim); err != nil {
		return nil, err
	}
	if dim[0] > maxExtent || dim[1] > maxExtent {
		return nil, errCorrupt
	}
	d := geom.Dimensions{Width: int(dim[0]), Height: int(dim[1])}

	dots := matrix.New[Dot](d)
	if err := read(r, dots.Data()); err != nil {
		return nil, err
	}

	var origin [2]int32
	if err := read(r, &origin); err != nil {
		return nil, err
	}

	var count uint64
	if err := read(r, &count); err != nil {
		return nil, err
	}
	if count > maxFrames {
		return nil, errCorrupt
	}

	frames := make([]Frame, 0, min(count, 4096))
	for i := uint64(0); i < count; i++ {
		var number uint64
		if err := read(r, &number); err != nil {
			return nil, err
		}
		var position [2]int32
		if err := read(r, &position); err != nil {
			return nil, err
		}

		frame := Frame{
			Number:   int(number),
			Position: geom.Point{X: int(position[0]), Y: int(position[1])},
		}
		for _, payload := range []*[]byte{&frame.Image, &frame.Median} {
			var length uint64
			if err := read(r, &length); err != nil {
				return nil, err
			}
			if length > maxPayload {
				return nil, errCorrupt
			}
			if length > 0 {
				*payload = make([]byte, length)
				if _, err := io.ReadFull(r, *payload); err != nil {
					return nil, errTruncated
				}
			}
		}

		frames = append(frames, frame)
	}

	return Restore(dots, geom.Point{X: int(origin[0]), Y: int(origin[1])}, frames), nil
}

func read(r io.Reader, v any) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errTruncated
		}
		return err
	}
	return nil
}
