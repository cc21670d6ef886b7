// Package render is a CPU rasterizer: framebuffer, perspective camera,
// depth-tested Gouraud and wireframe mesh drawing, and a Backend adapter
// for the viewer engine. Display layers consume the produced images.
package render

import (
	"image"
	"sync"

	"github.com/turntable3d/turntable/math3d"
	"github.com/turntable3d/turntable/models"
	"github.com/turntable3d/turntable/viewer"
)

// Mode selects how surfaces draw meshes.
type Mode int

const (
	ModeShaded Mode = iota
	ModeWireframe
)

// Backend creates software surfaces. Present receives every finished
// frame; hosts hand it to their display layer.
type Backend struct {
	Mode    Mode
	Present func(*image.RGBA)

	mu   sync.Mutex
	zoom float64
}

// NewBackend creates a software backend delivering frames to present.
func NewBackend(present func(*image.RGBA)) *Backend {
	return &Backend{Present: present, zoom: 1}
}

// SetZoom scales the camera distance at render time. A display-side
// control; it does not touch the engine's configuration.
func (b *Backend) SetZoom(z float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if z < 0.2 {
		z = 0.2
	}
	if z > 4 {
		z = 4
	}
	b.zoom = z
}

// Zoom returns the current camera distance multiplier.
func (b *Backend) Zoom() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.zoom
}

// CreateSurface implements viewer.Backend.
func (b *Backend) CreateSurface(d viewer.Dimensions, q viewer.Quality) (viewer.Surface, error) {
	scale := qualityScale(q)
	fb := NewFramebuffer(scalePx(d.Width, scale), scalePx(d.Height, scale))
	cam := NewCamera()
	return &surface{
		backend: b,
		scale:   scale,
		fb:      fb,
		camera:  cam,
		rast:    NewRasterizer(cam, fb),
	}, nil
}

// qualityScale maps the quality setting to a resolution multiplier.
func qualityScale(q viewer.Quality) float64 {
	switch q {
	case viewer.QualityLow:
		return 0.5
	case viewer.QualityHigh:
		return 2
	default:
		return 1
	}
}

func scalePx(v int, scale float64) int {
	n := int(float64(v) * scale)
	if n < 1 {
		return 1
	}
	return n
}

type surface struct {
	backend  *Backend
	scale    float64
	fb       *Framebuffer
	camera   *Camera
	rast     *Rasterizer
	disposed bool
}

func (s *surface) Resize(d viewer.Dimensions) {
	if s.disposed {
		return
	}
	s.fb.Resize(scalePx(d.Width, s.scale), scalePx(d.Height, s.scale))
	s.camera.SetAspectRatio(float64(s.fb.Width) / float64(s.fb.Height))
	s.rast.ClearDepth()
}

func (s *surface) Render(mesh *models.Mesh, model math3d.Mat4, cam viewer.Camera, lights viewer.Lights) {
	if s.disposed || mesh == nil {
		return
	}
	s.camera.SetPosition(cam.Position.Scale(s.backend.Zoom()))
	s.camera.LookAt(math3d.Zero3())
	if cam.Aspect > 0 {
		s.camera.SetAspectRatio(cam.Aspect)
	}

	s.fb.Clear()
	s.rast.ClearDepth()

	switch s.backend.Mode {
	case ModeWireframe:
		// Line brightness tracks the light rig.
		line := RGB(0, 255, 128).Scale(0.4*lights.Ambient + 0.6*lights.Directional)
		s.rast.DrawMeshWireframe(mesh, model, line)
	default:
		s.rast.DrawMeshGouraud(mesh, model, RGB(200, 200, 200), Lighting{
			Direction:   math3d.V3(0.5, 0.7, 1).Normalize(),
			Ambient:     lights.Ambient,
			Directional: lights.Directional,
		})
	}

	if s.backend.Present != nil {
		s.backend.Present(s.fb.ToImage())
	}
}

func (s *surface) Dispose() {
	s.disposed = true
}
