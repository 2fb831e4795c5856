package mapstitch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/keypoint"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
	"github.com/pixelfield/mapstitch/rawio"
	"github.com/pixelfield/mapstitch/render"
	"github.com/pixelfield/mapstitch/window"
)

// Scan locates the playfield window of the adapter's capture without
// building anything.
func (s *Stitcher) Scan(adapter Adapter) (geom.Region, bool, error) {
	feed, err := adapter.Feed()
	if err != nil {
		return geom.Region{}, false, err
	}

	return window.Scan(imageSource{feed: feed}, adapter.ScreenDimensions())
}

// Build runs the whole pipeline over the adapter's capture and returns
// one cleaned map image per surviving fragment, together with the
// playfield window. A capture with no detectable playfield yields no
// images and ok false.
func (s *Stitcher) Build(adapter Adapter, cfg Config) ([]*matrix.Matrix[palette.Nat], geom.Region, error) {
	callbacks := adapter.Callbacks()

	win, ok, err := s.Scan(adapter)
	if err != nil {
		return nil, geom.Region{}, err
	}
	if !ok {
		s.logger.Println("no playfield window found")
		return nil, geom.Region{}, nil
	}

	s.logger.Printf("playfield window %dx%d at (%d, %d)\n",
		win.Width(), win.Height(), win.Left, win.Top)
	callbacks.window(win)

	if cfg.Debug != "" {
		if err := os.MkdirAll(cfg.Debug, 0o755); err != nil {
			return nil, geom.Region{}, err
		}
		if err := s.debugWindow(cfg, adapter, win); err != nil {
			return nil, geom.Region{}, err
		}
	}

	feed, err := adapter.CropFeed(win)
	if err != nil {
		return nil, geom.Region{}, err
	}

	dims := win.Dimensions()

	collector := NewCollector(dims,
		cfg.GridWidth, cfg.GridHeight, cfg.Overlap,
		cfg.matchConfig(), adapter.Compression())
	if err := collector.Collect(feed); err != nil {
		return nil, geom.Region{}, err
	}

	fragments := collector.Complete()
	s.logger.Printf("collected %d fragments\n", len(fragments))
	callbacks.collected(len(fragments))

	spliced := fragment.Splice(cfg.spliceConfig(), fragments, cfg.Workers)
	s.logger.Printf("spliced down to %d fragments\n", len(spliced))
	callbacks.spliced(len(spliced))

	if cfg.Debug != "" {
		if err := s.debugFragments(cfg, spliced); err != nil {
			return nil, geom.Region{}, err
		}
	}

	if cfg.Checkpoint != "" {
		if err := s.checkpoint(cfg, spliced); err != nil {
			return nil, geom.Region{}, err
		}
	}

	images, err := s.clean(cfg, adapter, dims, spliced)
	if err != nil {
		return nil, geom.Region{}, err
	}

	return images, win, nil
}

// debugWindow renders the detected playfield bounds over the first
// frame of the capture.
func (s *Stitcher) debugWindow(cfg Config, adapter Adapter, win geom.Region) error {
	feed, err := adapter.Feed()
	if err != nil {
		return err
	}
	if !feed.HasMore() {
		return nil
	}

	frame, err := feed.Produce()
	if err != nil {
		return err
	}

	return render.Save(filepath.Join(cfg.Debug, "window.png"),
		render.Window(frame.Image, win))
}

// debugFragments renders each spliced fragment's consensus with its
// coverage holes, plus the keypoint overlay the splicer matched on.
func (s *Stitcher) debugFragments(cfg Config, fragments []*fragment.Fragment) error {
	for i, f := range fragments {
		name := filepath.Join(cfg.Debug, fmt.Sprintf("fragment-%d.png", i))
		if err := render.Save(name, render.Consensus(f)); err != nil {
			return err
		}

		blend, _ := f.Blend()
		e := keypoint.NewExtractor(blend.Dimensions(), 1, 1, 0)
		median := matrix.New[palette.Nat](blend.Dimensions())
		grid, err := e.Extract(blend, median)
		if err != nil {
			return err
		}

		name = filepath.Join(cfg.Debug, fmt.Sprintf("keypoints-%d.png", i))
		if err := render.Save(name, render.Keypoints(blend, grid)); err != nil {
			return err
		}
	}
	return nil
}

// checkpoint persists the spliced fragments so the cleaning stages can
// be rerun offline.
func (s *Stitcher) checkpoint(cfg Config, fragments []*fragment.Fragment) error {
	if err := os.MkdirAll(cfg.Checkpoint, 0o755); err != nil {
		return err
	}
	return fragment.Write(cfg.Checkpoint, fragments, cfg.Compress)
}

// BuildDir builds the capture in dir, consulting the catalog to skip
// sequences that were already built. Cleaned maps are written as PNG
// files under output.
func (s *Stitcher) BuildDir(dir, output string, cfg Config, force bool) error {
	crc, err := SequenceCRC(dir)
	if err != nil {
		return err
	}

	if !force {
		build, err := s.catalog.FindBuildByCRC(crc)
		if err != nil {
			return err
		}
		if build != nil {
			s.logger.Printf("sequence %s already built at %s, skipping\n",
				crc, build.BuiltAt)
			return nil
		}
	}

	adapter := NewDirAdapter(dir, cfg.ScreenDimensions(), Callbacks{})

	images, _, err := s.Build(adapter, cfg)
	if err != nil {
		return err
	}

	if len(images) > 0 {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return err
		}
		for i, image := range images {
			name := filepath.Join(output, fmt.Sprintf("map-%d.png", i))
			if err := rawio.SavePNG(name, image); err != nil {
				return err
			}
		}
	}

	names, err := frameFiles(dir)
	if err != nil {
		return err
	}

	return s.catalog.RecordBuild(crc, len(names), len(images))
}
