package mapstitch

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/keypoint"
)

var errBadConfig = errors.New("mapstitch: invalid configuration")

// ScreenConfig describes the capture geometry.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// MatchConfig tunes the frame-to-frame keypoint matcher driving the
// collector.
type MatchConfig struct {
	WeightSwitch int `yaml:"weight_switch"`
	RegionVotes  int `yaml:"region_votes"`
}

// SpliceConfig tunes fragment-to-fragment matching. The weight switch
// is far higher than the collector's because blended images carry much
// more salient detail than single frames.
type SpliceConfig struct {
	WeightSwitch int     `yaml:"weight_switch"`
	RegionVotes  int     `yaml:"region_votes"`
	CellSize     int     `yaml:"cell_size"`
	MinCellRate  float64 `yaml:"min_cell_rate"`
}

// ArtifactConfig tunes the final smoothing pass.
type ArtifactConfig struct {
	Dev  float32 `yaml:"dev"`
	Size int     `yaml:"size"`
}

// Config collects every tunable of a build.
type Config struct {
	Screen   ScreenConfig   `yaml:"screen"`
	Match    MatchConfig    `yaml:"match"`
	Splice   SpliceConfig   `yaml:"splice"`
	Artifact ArtifactConfig `yaml:"artifact"`

	// keypoint grid over each frame
	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`
	Overlap    int `yaml:"overlap"`

	Workers int `yaml:"workers"`

	// when set, spliced fragments checkpoint to this directory
	Checkpoint string `yaml:"checkpoint"`
	Compress   bool   `yaml:"compress"`

	// when set, diagnostic renders of each stage land in this directory
	Debug string `yaml:"debug"`
}

// DefaultConfig returns the tuning the capture hardware was profiled
// with.
func DefaultConfig() Config {
	return Config{
		Screen: ScreenConfig{Width: 388, Height: 312},
		Match: MatchConfig{
			WeightSwitch: 10,
			RegionVotes:  3,
		},
		Splice: SpliceConfig{
			WeightSwitch: 100,
			RegionVotes:  3,
			CellSize:     15,
			MinCellRate:  0.66,
		},
		Artifact: ArtifactConfig{
			Dev:  2.0,
			Size: 15,
		},
		GridWidth:  4,
		GridHeight: 2,
		Overlap:    16,
		Workers:    4,
	}
}

// LoadConfig reads a YAML file over the defaults, so a file only needs
// the values it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Screen.Width < 1 || c.Screen.Height < 1:
		return fmt.Errorf("%w: screen dimensions", errBadConfig)
	case c.GridWidth < 1 || c.GridHeight < 1:
		return fmt.Errorf("%w: keypoint grid", errBadConfig)
	case c.Artifact.Size < 3 || c.Artifact.Size > 31 || c.Artifact.Size%2 == 0:
		return fmt.Errorf("%w: artifact window size", errBadConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers", errBadConfig)
	}
	return nil
}

// ScreenDimensions returns the configured capture geometry.
func (c Config) ScreenDimensions() geom.Dimensions {
	return geom.Dimensions{Width: c.Screen.Width, Height: c.Screen.Height}
}

func (c Config) matchConfig() keypoint.Config {
	cfg := keypoint.DefaultConfig()
	cfg.WeightSwitch = c.Match.WeightSwitch
	cfg.RegionVotes = c.Match.RegionVotes
	return cfg
}

func (c Config) spliceConfig() keypoint.Config {
	return keypoint.Config{
		WeightSwitch: c.Splice.WeightSwitch,
		RegionVotes:  c.Splice.RegionVotes,
		CellSize:     c.Splice.CellSize,
		MinCellRate:  c.Splice.MinCellRate,
	}
}
