package mapstitch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pixelfield/mapstitch/artifact"
	"github.com/pixelfield/mapstitch/foreground"
	"github.com/pixelfield/mapstitch/fragment"
	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
	"github.com/pixelfield/mapstitch/render"
)

// job carries one spliced fragment through the cleaning stages. The
// index keeps results in fragment order regardless of which worker
// finishes first.
type job struct {
	index    int
	fragment *fragment.Fragment
}

func (s *Stitcher) feedJobs(ctx context.Context, fragments []*fragment.Fragment) (<-chan job, <-chan error, error) {
	out := make(chan job)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i, f := range fragments {
			select {
			case out <- job{index: i, fragment: f}:
			case <-ctx.Done():
				errc <- errors.New("build cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

// cleanWorker runs the foreground and artifact passes over incoming
// fragments and stores each cleaned image at its fragment's slot.
func (s *Stitcher) cleanWorker(ctx context.Context, cfg Config, adapter Adapter,
	dims geom.Dimensions, in <-chan job,
	results []*matrix.Matrix[palette.Nat]) (<-chan error, error) {

	codec := adapter.Compression()
	callbacks := adapter.Callbacks()

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			filtered, err := foreground.Filter(j.fragment, dims, codec)
			if err != nil {
				errc <- err
				return
			}

			cleaned, heat, err := artifact.Filter(
				filtered, cfg.Artifact.Dev, cfg.Artifact.Size)
			if err != nil {
				errc <- err
				return
			}

			if cfg.Debug != "" {
				name := filepath.Join(cfg.Debug,
					fmt.Sprintf("heat-%d.png", j.index))
				if err := render.Save(name, render.Heatmap(heat)); err != nil {
					errc <- err
					return
				}
			}

			results[j.index] = cleaned
			callbacks.filtered(j.index)

			select {
			case <-ctx.Done():
				errc <- errors.New("build cancelled")
				return
			default:
			}
		}
	}()
	return errc, nil
}

// clean runs the per-fragment cleaning stages across the configured
// number of workers.
func (s *Stitcher) clean(cfg Config, adapter Adapter, dims geom.Dimensions,
	fragments []*fragment.Fragment) ([]*matrix.Matrix[palette.Nat], error) {

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	results := make([]*matrix.Matrix[palette.Nat], len(fragments))

	var errcList []<-chan error

	jobs, errc, err := s.feedJobs(ctx, fragments)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < cfg.Workers; i++ {
		errc, err := s.cleanWorker(ctx, cfg, adapter, dims, jobs, results)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	return results, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
