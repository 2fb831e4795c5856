package mapstitch

import (
	"github.com/pixelfield/mapstitch/arena"
	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/keypoint"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// Collector stitches a linear frame stream into fragments. Consecutive
// frames that register against each other accumulate into one fragment;
// a failed match closes the fragment and starts the next one.
//
// Per-frame median buffers come from a swinging arena pair, so only the
// previous and current frame's scratch memory is ever alive.
type Collector struct {
	cfg       keypoint.Config
	dims      geom.Dimensions
	extractor *keypoint.Extractor
	codec     Codec
	swing     *arena.Swing

	fragments []*fragment.Fragment
	current   *fragment.Fragment
	position  geom.Point
}

// NewCollector returns a collector for frames of the given dimensions,
// with the keypoint grid split gridW by gridH, sections sharing overlap
// columns.
func NewCollector(dims geom.Dimensions, gridW, gridH, overlap int,
	cfg keypoint.Config, codec Codec) *Collector {

	return &Collector{
		cfg:       cfg,
		dims:      dims,
		extractor: keypoint.NewExtractor(dims, gridW, gridH, overlap),
		codec:     codec,
		swing:     arena.NewSwing(),
	}
}

// Collect consumes the whole feed. It may be called once per collector.
func (c *Collector) Collect(feed Feed) error {
	if !feed.HasMore() {
		return nil
	}

	previous, err := c.first(feed)
	if err != nil {
		return err
	}

	for feed.HasMore() {
		c.swing.Rotate()

		if previous, err = c.next(feed, previous); err != nil {
			return err
		}
	}

	return nil
}

// Complete normalizes and returns the accumulated fragments.
func (c *Collector) Complete() []*fragment.Fragment {
	for _, f := range c.fragments {
		f.Normalize()
	}
	return c.fragments
}

func (c *Collector) first(feed Feed) (*keypoint.Grid, error) {
	frame, err := feed.Produce()
	if err != nil {
		return nil, err
	}

	c.open()

	grid, median, err := c.extract(frame.Image)
	if err != nil {
		return nil, err
	}

	c.blit(frame, median)
	return grid, nil
}

func (c *Collector) next(feed Feed, previous *keypoint.Grid) (*keypoint.Grid, error) {
	frame, err := feed.Produce()
	if err != nil {
		return nil, err
	}

	grid, median, err := c.extract(frame.Image)
	if err != nil {
		return nil, err
	}

	if off, ok := keypoint.Match(c.cfg, previous, grid); ok {
		c.position = c.position.Add(off)
	} else {
		c.current.Normalize()
		c.open()
	}

	c.blit(frame, median)
	return grid, nil
}

func (c *Collector) open() {
	c.current = fragment.New(c.dims)
	c.fragments = append(c.fragments, c.current)
	c.position = geom.Point{}
}

func (c *Collector) extract(image *matrix.Matrix[palette.Nat]) (*keypoint.Grid, *matrix.Matrix[palette.Nat], error) {
	median := matrix.NewWith(c.dims,
		arena.Alloc[palette.Nat](c.swing.Current(), c.dims.Area()))

	grid, err := c.extractor.Extract(image, median)
	if err != nil {
		return nil, nil, err
	}
	return grid, median, nil
}

// blit attributes the frame to the current fragment, caching compressed
// image and median payloads for the later foreground pass.
func (c *Collector) blit(frame Frame, median *matrix.Matrix[palette.Nat]) {
	c.current.Blit(c.position, frame.Image, fragment.Frame{
		Number: frame.Number,
		Image:  c.codec.Compress(frame.Image),
		Median: c.codec.Compress(median),
	})
}
