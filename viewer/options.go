package viewer

import (
	"path"
	"strings"
	"time"

	"github.com/turntable3d/turntable/math3d"
)

// Direction selects the idle auto-rotation direction. None disables
// auto-rotation while still permitting user-driven rotation.
type Direction int

const (
	DirectionNone             Direction = 0
	DirectionClockwise        Direction = 1
	DirectionCounterClockwise Direction = -1
)

// Format identifies the asset format, selecting which loader adapter a
// session uses. FormatAuto infers it from the URL extension.
type Format string

const (
	FormatAuto Format = ""
	FormatGLB  Format = "glb"
	FormatOBJ  Format = "obj"
)

// Options is the immutable configuration snapshot one session runs with.
// Supplying new Options to a live Viewer tears the session down and creates
// a fresh one; options are never mutated in place mid-frame.
type Options struct {
	// AssetURL is an http(s) URL or filesystem path. Empty means the
	// session stays dormant in AwaitingViewport; it is not an error.
	AssetURL string
	Format   Format

	CameraPosition math3d.Vec3
	ModelPosition  math3d.Vec3
	ModelScale     float64

	// RotationSpeed is the idle angular velocity in radians per reference
	// frame (1/60 s). RotationSpeed and RotationDirection together form
	// the gesture engine's target velocity.
	RotationSpeed     float64
	RotationDirection Direction

	AmbientIntensity     float64
	DirectionalIntensity float64

	Quality Quality

	// FreeOrbit unlocks the vertical axis. The observed product behavior
	// is a horizontal-only orbit, so this defaults off.
	FreeOrbit bool

	// VisibilityThreshold is the viewport intersection fraction that
	// triggers loading. Zero means the 0.1 default.
	VisibilityThreshold float64

	// LoadTimeout bounds one asset load. Zero means the 15 s default.
	LoadTimeout time.Duration

	// Damping is the per-reference-frame velocity blend coefficient.
	// Zero means the 0.93 default.
	Damping float64

	// DragSensitivity converts fine-pointer drag pixels to radians;
	// FlingSensitivity does the same for touch velocity samples.
	DragSensitivity  float64
	FlingSensitivity float64
}

// DefaultOptions returns the observed product defaults: camera pulled back
// on Z, unit scale, slow clockwise spin, unit lights, medium quality.
func DefaultOptions() Options {
	return Options{
		CameraPosition:       math3d.V3(0, 0, 5),
		ModelScale:           1,
		RotationSpeed:        0.01,
		RotationDirection:    DirectionClockwise,
		AmbientIntensity:     1,
		DirectionalIntensity: 1,
		Quality:              QualityMedium,
	}
}

// withDefaults fills unset fields and clamps out-of-range values.
func (o Options) withDefaults() Options {
	if o.CameraPosition == math3d.Zero3() {
		o.CameraPosition = math3d.V3(0, 0, 5)
	}
	if o.ModelScale <= 0 {
		o.ModelScale = 1
	}
	if o.RotationSpeed < 0 {
		o.RotationSpeed = 0
	}
	o.AmbientIntensity = clampIntensity(o.AmbientIntensity)
	o.DirectionalIntensity = clampIntensity(o.DirectionalIntensity)
	if o.Quality == "" {
		o.Quality = QualityMedium
	}
	if o.VisibilityThreshold <= 0 {
		o.VisibilityThreshold = 0.1
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 15 * time.Second
	}
	if o.Damping <= 0 || o.Damping >= 1 {
		o.Damping = 0.93
	}
	if o.DragSensitivity <= 0 {
		o.DragSensitivity = 0.03
	}
	if o.FlingSensitivity <= 0 {
		o.FlingSensitivity = 0.02
	}
	if o.Format == FormatAuto {
		o.Format = inferFormat(o.AssetURL)
	}
	return o
}

// targetVelocity is the idle auto-rotation velocity in radians per
// reference frame.
func (o Options) targetVelocity() float64 {
	return o.RotationSpeed * float64(o.RotationDirection)
}

func clampIntensity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 3 {
		return 3
	}
	return v
}

func inferFormat(url string) Format {
	switch strings.ToLower(path.Ext(stripQuery(url))) {
	case ".obj":
		return FormatOBJ
	default:
		// GLB is the primary product format.
		return FormatGLB
	}
}

func stripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
