package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turntable3d/turntable/viewer"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.Viewer.RotationSpeed)
	assert.Equal(t, "clockwise", cfg.Viewer.RotationDirection)
	assert.Equal(t, 60, cfg.Display.FPS)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
viewer:
  asset: model.glb
  rotation_direction: counterclockwise
  quality: high
  load_timeout: 5s
display:
  wireframe: true
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "model.glb", cfg.Viewer.Asset)
	assert.Equal(t, "counterclockwise", cfg.Viewer.RotationDirection)
	assert.Equal(t, "high", cfg.Viewer.Quality)
	assert.Equal(t, 5*time.Second, cfg.Viewer.LoadTimeout)
	assert.True(t, cfg.Display.Wireframe)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.01, cfg.Viewer.RotationSpeed)
	assert.Equal(t, 60, cfg.Display.FPS)
}

func TestToOptions(t *testing.T) {
	cfg := Default()
	cfg.Viewer.Asset = "a.obj"
	cfg.Viewer.Format = "obj"
	cfg.Viewer.RotationDirection = "none"
	cfg.Viewer.CameraDistance = 8

	o, err := cfg.ToOptions()
	require.NoError(t, err)
	assert.Equal(t, "a.obj", o.AssetURL)
	assert.Equal(t, viewer.FormatOBJ, o.Format)
	assert.Equal(t, viewer.DirectionNone, o.RotationDirection)
	assert.Equal(t, 8.0, o.CameraPosition.Z)
}

func TestToOptionsRejectsBadDirection(t *testing.T) {
	cfg := Default()
	cfg.Viewer.RotationDirection = "sideways"
	_, err := cfg.ToOptions()
	assert.Error(t, err)
}
