package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turntable3d/turntable/math3d"
	"github.com/turntable3d/turntable/models"
	"github.com/turntable3d/turntable/viewer"
)

// frontTriangle builds a camera-facing triangle at z = 0.
func frontTriangle() *models.Mesh {
	m := models.NewMesh("tri")
	m.Vertices = []models.MeshVertex{
		{Position: math3d.V3(-1, -1, 0), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(1, -1, 0), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0, 1, 0), Normal: math3d.V3(0, 0, 1)},
	}
	m.Faces = []models.Face{{V: [3]int{0, 1, 2}, Material: -1}}
	m.CalculateBounds()
	return m
}

func litPixels(fb *Framebuffer) int {
	n := 0
	for _, p := range fb.Pix {
		if p != (Color{}) {
			n++
		}
	}
	return n
}

func TestWireframeDrawsEdges(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	r := NewRasterizer(cam, fb)

	r.DrawMeshWireframe(frontTriangle(), math3d.Identity(), RGB(0, 255, 0))
	assert.Greater(t, litPixels(fb), 30, "three edges leave a visible outline")
}

func TestGouraudFillsAndLights(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	r := NewRasterizer(cam, fb)

	light := Lighting{Direction: math3d.V3(0, 0, 1), Ambient: 1, Directional: 1}
	r.DrawMeshGouraud(frontTriangle(), math3d.Identity(), RGB(200, 200, 200), light)

	filled := litPixels(fb)
	assert.Greater(t, filled, 200, "the triangle interior is filled")

	// A face lit head-on renders brighter than its ambient floor.
	center := fb.At(32, 32)
	assert.Greater(t, center.R, uint8(150))
}

func TestBackfaceCulled(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	r := NewRasterizer(cam, fb)

	// Rotated half a turn, the triangle faces away and is culled.
	light := Lighting{Direction: math3d.V3(0, 0, 1), Ambient: 1, Directional: 1}
	r.DrawMeshGouraud(frontTriangle(), math3d.RotateY(3.14159265), RGB(200, 200, 200), light)
	assert.Zero(t, litPixels(fb))

	// With culling disabled the back face still rasterizes (ambient only).
	r.DisableBackfaceCulling = true
	r.DrawMeshGouraud(frontTriangle(), math3d.RotateY(3.14159265), RGB(200, 200, 200), light)
	assert.Greater(t, litPixels(fb), 200)
}

func TestDepthTestKeepsNearerTriangle(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	r := NewRasterizer(cam, fb)

	near := frontTriangle()
	far := frontTriangle()

	light := Lighting{Direction: math3d.V3(0, 0, 1), Ambient: 1, Directional: 1}
	// Far triangle first, then a nearer one; the nearer one must win.
	r.DrawMeshGouraud(far, math3d.Translate(math3d.V3(0, 0, -2)), RGB(50, 50, 50), light)
	farCenter := fb.At(32, 32)
	r.DrawMeshGouraud(near, math3d.Translate(math3d.V3(0, 0, 1)), RGB(250, 250, 250), light)
	nearCenter := fb.At(32, 32)
	assert.Greater(t, nearCenter.R, farCenter.R)

	// Drawing the far one again must lose the depth test.
	r.DrawMeshGouraud(far, math3d.Translate(math3d.V3(0, 0, -2)), RGB(50, 50, 50), light)
	assert.Equal(t, nearCenter, fb.At(32, 32))
}

func TestBackendPresentsFrames(t *testing.T) {
	frames := 0
	var lastW int
	b := NewBackend(func(img *image.RGBA) {
		frames++
		lastW = img.Bounds().Dx()
	})

	s, err := b.CreateSurface(viewer.Dimensions{Width: 80, Height: 40}, viewer.QualityMedium)
	require.NoError(t, err)

	cam := viewer.Camera{Position: math3d.V3(0, 0, 5), Aspect: 2}
	lights := viewer.Lights{Ambient: 1, Directional: 1}
	s.Render(frontTriangle(), math3d.Identity(), cam, lights)
	assert.Equal(t, 1, frames)
	assert.Equal(t, 80, lastW)

	s.Resize(viewer.Dimensions{Width: 120, Height: 60})
	s.Render(frontTriangle(), math3d.Identity(), cam, lights)
	assert.Equal(t, 2, frames)
	assert.Equal(t, 120, lastW)

	// A disposed surface goes quiet.
	s.Dispose()
	s.Render(frontTriangle(), math3d.Identity(), cam, lights)
	assert.Equal(t, 2, frames)
}

func TestMaterialColorOverridesBase(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	r := NewRasterizer(cam, fb)

	m := frontTriangle()
	m.Materials = []models.Material{{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}}}
	m.Faces[0].Material = 0

	light := Lighting{Direction: math3d.V3(0, 0, 1), Ambient: 1, Directional: 1}
	r.DrawMeshGouraud(m, math3d.Identity(), RGB(200, 200, 200), light)

	center := fb.At(32, 32)
	require.Greater(t, center.R, uint8(150))
	assert.Zero(t, center.G)
	assert.Zero(t, center.B)
}

func TestQualityScalesResolution(t *testing.T) {
	b := NewBackend(nil)
	s, err := b.CreateSurface(viewer.Dimensions{Width: 100, Height: 50}, viewer.QualityHigh)
	require.NoError(t, err)
	surf := s.(*surface)
	assert.Equal(t, 200, surf.fb.Width)
	assert.Equal(t, 100, surf.fb.Height)

	s, err = b.CreateSurface(viewer.Dimensions{Width: 100, Height: 50}, viewer.QualityLow)
	require.NoError(t, err)
	surf = s.(*surface)
	assert.Equal(t, 50, surf.fb.Width)
	assert.Equal(t, 25, surf.fb.Height)
}
