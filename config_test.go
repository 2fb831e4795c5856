package mapstitch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfield/mapstitch/geom"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, geom.Dimensions{Width: 388, Height: 312}, cfg.ScreenDimensions())
	assert.Equal(t, 10, cfg.Match.WeightSwitch)
	assert.Equal(t, 100, cfg.Splice.WeightSwitch)
	assert.Equal(t, 15, cfg.Splice.CellSize)
	assert.Equal(t, float32(2.0), cfg.Artifact.Dev)
	assert.Equal(t, 15, cfg.Artifact.Size)
	assert.NoError(t, cfg.validate())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "mapstitch.yaml")
	require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
	return name
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
screen:
  width: 320
  height: 224
artifact:
  size: 11
workers: 8
`))
	require.NoError(t, err)

	// file values win
	assert.Equal(t, geom.Dimensions{Width: 320, Height: 224}, cfg.ScreenDimensions())
	assert.Equal(t, 11, cfg.Artifact.Size)
	assert.Equal(t, 8, cfg.Workers)

	// unmentioned values keep their defaults
	assert.Equal(t, 10, cfg.Match.WeightSwitch)
	assert.Equal(t, 16, cfg.Overlap)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	for _, body := range []string{
		"screen: {width: 0, height: 224}",
		"artifact: {size: 14}",
		"artifact: {size: 33}",
		"workers: 0",
		"grid_width: 0",
	} {
		_, err := LoadConfig(writeConfig(t, body))
		assert.ErrorIs(t, err, errBadConfig, body)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMatchConfigs(t *testing.T) {
	cfg := DefaultConfig()

	m := cfg.matchConfig()
	assert.Equal(t, 10, m.WeightSwitch)
	assert.Equal(t, 3, m.RegionVotes)

	s := cfg.spliceConfig()
	assert.Equal(t, 100, s.WeightSwitch)
	assert.Equal(t, 0.66, s.MinCellRate)
}
