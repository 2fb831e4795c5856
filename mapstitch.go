/*
Package mapstitch reconstructs 2-D world maps from captured sequences of
16-color game frames.

A build locates the scrolling playfield inside the frame, stitches
consecutive frames into fragments by keypoint registration, splices
fragments that overlap, strips moving sprites and smooths residual
noise, leaving one clean map image per disconnected area the capture
visited.
*/
package mapstitch

import "log"

type Stitcher struct {
	catalog *Catalog
	logger  *log.Logger
}

// New opens the build catalog at file and returns a stitcher logging to
// logger.
func New(file string, logger *log.Logger) (*Stitcher, error) {
	catalog, err := NewCatalog(file)
	if err != nil {
		return nil, err
	}

	return &Stitcher{
		catalog: catalog,
		logger:  logger,
	}, nil
}

// Close releases the catalog.
func (s *Stitcher) Close() error {
	return s.catalog.Close()
}
