package viewer

import (
	"github.com/turntable3d/turntable/math3d"
	"github.com/turntable3d/turntable/models"
)

// Dimensions is a surface size in device pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Aspect returns width/height, or 1 for degenerate sizes.
func (d Dimensions) Aspect() float64 {
	if d.Width <= 0 || d.Height <= 0 {
		return 1
	}
	return float64(d.Width) / float64(d.Height)
}

// Quality selects a rendering quality tier. Backends interpret it however
// suits them (resolution scale, sample counts).
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Camera carries the view parameters the engine controls.
type Camera struct {
	Position math3d.Vec3
	Aspect   float64
}

// Lights carries the light intensities from the configuration, each in the
// 0-3 range.
type Lights struct {
	Ambient     float64
	Directional float64
}

// Surface is one drawable target owned by exactly one session. All methods
// are called with the owning viewer's lock held; implementations must not
// call back into the viewer.
type Surface interface {
	// Resize adjusts the backing buffer and projection to new dimensions.
	Resize(d Dimensions)
	// Render draws one frame of the mesh under the given model transform.
	Render(mesh *models.Mesh, model math3d.Mat4, cam Camera, lights Lights)
	// Dispose frees the surface. Called exactly once per surface.
	Dispose()
}

// Backend creates rendering surfaces. It is the engine's only view of the
// rendering library.
type Backend interface {
	CreateSurface(d Dimensions, q Quality) (Surface, error)
}

// Region is the mounted visual area a session is bound to. The host reports
// size changes and viewport intersection through the Viewer's notification
// methods; Region only answers the current size.
type Region interface {
	Size() Dimensions
}
