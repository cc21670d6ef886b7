package render

import (
	"math"

	"github.com/turntable3d/turntable/math3d"
)

// Camera is a perspective camera. The zero value is unusable; NewCamera
// supplies sensible defaults.
type Camera struct {
	position math3d.Vec3
	target   math3d.Vec3
	up       math3d.Vec3
	fov      float64
	aspect   float64
	near     float64
	far      float64
}

// NewCamera creates a camera at the origin looking down -Z with a 60
// degree field of view.
func NewCamera() *Camera {
	return &Camera{
		position: math3d.V3(0, 0, 5),
		target:   math3d.Zero3(),
		up:       math3d.V3(0, 1, 0),
		fov:      math.Pi / 3,
		aspect:   1,
		near:     0.1,
		far:      100,
	}
}

func (c *Camera) SetPosition(p math3d.Vec3) { c.position = p }
func (c *Camera) Position() math3d.Vec3     { return c.position }
func (c *Camera) LookAt(t math3d.Vec3)      { c.target = t }
func (c *Camera) SetFOV(fov float64)        { c.fov = fov }

func (c *Camera) SetAspectRatio(aspect float64) {
	if aspect > 0 {
		c.aspect = aspect
	}
}

func (c *Camera) SetClipPlanes(near, far float64) {
	c.near = near
	c.far = far
}

// ViewProjection returns the combined view and projection matrix.
func (c *Camera) ViewProjection() math3d.Mat4 {
	view := math3d.LookAt(c.position, c.target, c.up)
	proj := math3d.Perspective(c.fov, c.aspect, c.near, c.far)
	return proj.Mul(view)
}
