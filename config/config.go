// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/turntable3d/turntable/math3d"
	"github.com/turntable3d/turntable/viewer"
)

// Config holds all viewer host settings.
type Config struct {
	Viewer  ViewerConfig  `yaml:"viewer"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

// ViewerConfig holds the model and interaction settings.
type ViewerConfig struct {
	Asset  string `yaml:"asset"`
	Format string `yaml:"format"` // "", "glb" or "obj"

	RotationSpeed     float64 `yaml:"rotation_speed"`
	RotationDirection string  `yaml:"rotation_direction"` // clockwise, counterclockwise, none
	FreeOrbit         bool    `yaml:"free_orbit"`

	CameraDistance float64 `yaml:"camera_distance"`
	ModelScale     float64 `yaml:"model_scale"`

	AmbientIntensity     float64 `yaml:"ambient_intensity"`
	DirectionalIntensity float64 `yaml:"directional_intensity"`

	Quality     string        `yaml:"quality"` // low, medium, high
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// DisplayConfig holds terminal display settings.
type DisplayConfig struct {
	FPS       int  `yaml:"fps"`
	Wireframe bool `yaml:"wireframe"`
	ShowFPS   bool `yaml:"show_fps"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			RotationSpeed:        0.01,
			RotationDirection:    "clockwise",
			CameraDistance:       5,
			ModelScale:           1,
			AmbientIntensity:     1,
			DirectionalIntensity: 1,
			Quality:              "medium",
			LoadTimeout:          15 * time.Second,
		},
		Display: DisplayConfig{
			FPS: 60,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ToOptions converts the viewer section into engine options.
func (c *Config) ToOptions() (viewer.Options, error) {
	dir, err := parseDirection(c.Viewer.RotationDirection)
	if err != nil {
		return viewer.Options{}, err
	}

	o := viewer.DefaultOptions()
	o.AssetURL = c.Viewer.Asset
	o.Format = viewer.Format(c.Viewer.Format)
	o.RotationSpeed = c.Viewer.RotationSpeed
	o.RotationDirection = dir
	o.FreeOrbit = c.Viewer.FreeOrbit
	o.AmbientIntensity = c.Viewer.AmbientIntensity
	o.DirectionalIntensity = c.Viewer.DirectionalIntensity
	o.Quality = viewer.Quality(c.Viewer.Quality)
	o.LoadTimeout = c.Viewer.LoadTimeout
	if c.Viewer.CameraDistance > 0 {
		o.CameraPosition = math3d.V3(0, 0, c.Viewer.CameraDistance)
	}
	if c.Viewer.ModelScale > 0 {
		o.ModelScale = c.Viewer.ModelScale
	}
	return o, nil
}

func parseDirection(s string) (viewer.Direction, error) {
	switch s {
	case "", "clockwise":
		return viewer.DirectionClockwise, nil
	case "counterclockwise":
		return viewer.DirectionCounterClockwise, nil
	case "none":
		return viewer.DirectionNone, nil
	default:
		return 0, fmt.Errorf("unknown rotation direction %q", s)
	}
}
