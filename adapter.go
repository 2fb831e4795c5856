package mapstitch

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
	"github.com/pixelfield/mapstitch/rawio"
	"github.com/pixelfield/mapstitch/rle"
)

// Frame is one produced capture frame.
type Frame struct {
	Number int
	Image  *matrix.Matrix[palette.Nat]
}

// Feed supplies the frames of one capture in order. Frame numbers are
// strictly increasing and start at zero.
type Feed interface {
	HasMore() bool
	Produce() (Frame, error)
}

// Codec compresses frame payloads cached on fragments.
type Codec interface {
	Compress(*matrix.Matrix[palette.Nat]) []byte
	Decompress([]byte, geom.Dimensions) (*matrix.Matrix[palette.Nat], error)
}

// Callbacks receives progress events during a build. Nil members are
// skipped.
type Callbacks struct {
	Window    func(geom.Region)
	Collected func(fragments int)
	Spliced   func(fragments int)
	Filtered  func(fragment int)
}

func (c Callbacks) window(r geom.Region) {
	if c.Window != nil {
		c.Window(r)
	}
}

func (c Callbacks) collected(n int) {
	if c.Collected != nil {
		c.Collected(n)
	}
}

func (c Callbacks) spliced(n int) {
	if c.Spliced != nil {
		c.Spliced(n)
	}
}

func (c Callbacks) filtered(i int) {
	if c.Filtered != nil {
		c.Filtered(i)
	}
}

// Adapter supplies the builder with everything capture-specific: screen
// geometry, frame feeds, payload compression and progress hooks.
type Adapter interface {
	ScreenDimensions() geom.Dimensions
	Feed() (Feed, error)
	CropFeed(geom.Region) (Feed, error)
	Compression() Codec
	Callbacks() Callbacks
}

// RLECodec compresses payloads with the run-length codec.
type RLECodec struct{}

func (RLECodec) Compress(m *matrix.Matrix[palette.Nat]) []byte {
	return rle.Compress(m.Data())
}

func (RLECodec) Decompress(data []byte, dims geom.Dimensions) (*matrix.Matrix[palette.Nat], error) {
	pixels, err := rle.Decompress(data, dims.Area())
	if err != nil {
		return nil, err
	}
	return matrix.NewWith(dims, pixels), nil
}

// DirAdapter reads a capture from a directory of raw frame files with
// numeric names, in numeric order.
type DirAdapter struct {
	dir       string
	dims      geom.Dimensions
	callbacks Callbacks
}

// NewDirAdapter returns an adapter over a capture directory.
func NewDirAdapter(dir string, dims geom.Dimensions, callbacks Callbacks) *DirAdapter {
	return &DirAdapter{
		dir:       dir,
		dims:      dims,
		callbacks: callbacks,
	}
}

func (a *DirAdapter) ScreenDimensions() geom.Dimensions {
	return a.dims
}

func (a *DirAdapter) Compression() Codec {
	return RLECodec{}
}

func (a *DirAdapter) Callbacks() Callbacks {
	return a.callbacks
}

// frameFiles lists the numeric file names of the capture in order.
func frameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	names := make([]string, len(numbers))
	for i, n := range numbers {
		names[i] = filepath.Join(dir, strconv.Itoa(n))
	}
	return names, nil
}

func (a *DirAdapter) Feed() (Feed, error) {
	names, err := frameFiles(a.dir)
	if err != nil {
		return nil, err
	}
	return &dirFeed{names: names, dims: a.dims}, nil
}

func (a *DirAdapter) CropFeed(r geom.Region) (Feed, error) {
	names, err := frameFiles(a.dir)
	if err != nil {
		return nil, err
	}
	return &dirFeed{names: names, dims: a.dims, crop: &r}, nil
}

type dirFeed struct {
	names []string
	dims  geom.Dimensions
	crop  *geom.Region
	next  int
}

func (f *dirFeed) HasMore() bool {
	return f.next < len(f.names)
}

func (f *dirFeed) Produce() (Frame, error) {
	image, err := rawio.LoadFrame(f.names[f.next], f.dims)
	if err != nil {
		return Frame{}, err
	}
	if f.crop != nil {
		image = image.Crop(*f.crop)
	}

	frame := Frame{Number: f.next, Image: image}
	f.next++
	return frame, nil
}

// imageSource exposes a feed as a plain image source for the window
// scan, which does not care about frame numbers.
type imageSource struct {
	feed Feed
}

func (s imageSource) HasMore() bool {
	return s.feed.HasMore()
}

func (s imageSource) Produce() (*matrix.Matrix[palette.Nat], error) {
	frame, err := s.feed.Produce()
	return frame.Image, err
}
