package render

import (
	"math"

	"github.com/turntable3d/turntable/math3d"
	"github.com/turntable3d/turntable/models"
)

// Rasterizer draws meshes into a framebuffer with a depth buffer.
type Rasterizer struct {
	camera *Camera
	fb     *Framebuffer
	depth  []float64

	// DisableBackfaceCulling draws both triangle windings.
	DisableBackfaceCulling bool
}

// NewRasterizer creates a rasterizer bound to a camera and framebuffer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{camera: camera, fb: fb}
	r.ClearDepth()
	return r
}

// ClearDepth resets the depth buffer. Call once per frame before drawing.
func (r *Rasterizer) ClearDepth() {
	n := r.fb.Width * r.fb.Height
	if len(r.depth) != n {
		r.depth = make([]float64, n)
	}
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
}

// screenVertex is a projected vertex with its depth and lit color.
type screenVertex struct {
	x, y  float64
	depth float64
	color Color
}

// project maps a world-space point to screen coordinates. ok is false for
// points at or behind the camera plane.
func (r *Rasterizer) project(vp math3d.Mat4, p math3d.Vec3) (screenVertex, bool) {
	x := vp.M[0]*p.X + vp.M[1]*p.Y + vp.M[2]*p.Z + vp.M[3]
	y := vp.M[4]*p.X + vp.M[5]*p.Y + vp.M[6]*p.Z + vp.M[7]
	w := vp.M[12]*p.X + vp.M[13]*p.Y + vp.M[14]*p.Z + vp.M[15]
	if w <= 1e-6 {
		return screenVertex{}, false
	}
	ndcX := x / w
	ndcY := y / w
	return screenVertex{
		x:     (ndcX + 1) / 2 * float64(r.fb.Width-1),
		y:     (1 - ndcY) / 2 * float64(r.fb.Height-1),
		depth: w,
	}, true
}

// DrawMeshWireframe draws every triangle edge in a single color, ignoring
// depth. X-ray style.
func (r *Rasterizer) DrawMeshWireframe(mesh *models.Mesh, transform math3d.Mat4, c Color) {
	vp := r.camera.ViewProjection()
	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)
		var sv [3]screenVertex
		visible := true
		for j, vi := range face {
			p, _, _ := mesh.GetVertex(vi)
			world := transform.MulVec3(p)
			v, ok := r.project(vp, world)
			if !ok {
				visible = false
				break
			}
			sv[j] = v
		}
		if !visible {
			continue
		}
		r.drawLine(sv[0], sv[1], c)
		r.drawLine(sv[1], sv[2], c)
		r.drawLine(sv[2], sv[0], c)
	}
}

// Lighting describes the simple two-term light rig: a directional lambert
// term plus a constant ambient floor.
type Lighting struct {
	Direction   math3d.Vec3
	Ambient     float64
	Directional float64
}

// DrawMeshGouraud draws the mesh with per-vertex lambert lighting
// interpolated across each triangle, depth tested.
func (r *Rasterizer) DrawMeshGouraud(mesh *models.Mesh, transform math3d.Mat4, base Color, light Lighting) {
	vp := r.camera.ViewProjection()
	lightDir := light.Direction.Normalize()

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)
		col := base
		if mat := mesh.GetMaterial(mesh.Faces[i].Material); mat != nil {
			col = Color{
				clamp8(mat.BaseColor[0] * 255),
				clamp8(mat.BaseColor[1] * 255),
				clamp8(mat.BaseColor[2] * 255),
			}
		}

		var world [3]math3d.Vec3
		var sv [3]screenVertex
		visible := true
		for j, vi := range face {
			p, n, _ := mesh.GetVertex(vi)
			world[j] = transform.MulVec3(p)
			v, ok := r.project(vp, world[j])
			if !ok {
				visible = false
				break
			}
			wn := transform.MulVec3Dir(n).Normalize()
			lambert := math.Max(0, wn.Dot(lightDir))
			v.color = shade(col, light.Ambient, light.Directional*lambert)
			sv[j] = v
		}
		if !visible {
			continue
		}

		if !r.DisableBackfaceCulling {
			// Screen-space winding test.
			area := (sv[1].x-sv[0].x)*(sv[2].y-sv[0].y) - (sv[2].x-sv[0].x)*(sv[1].y-sv[0].y)
			if area >= 0 {
				continue
			}
		}
		r.fillTriangle(sv[0], sv[1], sv[2])
	}
}

// shade applies the ambient plus directional terms to a base color.
func shade(base Color, ambient, directional float64) Color {
	return base.Scale(math.Min(ambient*0.4+directional, 1.6))
}

// fillTriangle rasterizes one depth-tested triangle with interpolated
// vertex colors using edge functions.
func (r *Rasterizer) fillTriangle(a, b, c screenVertex) {
	minX := int(math.Floor(math.Min(a.x, math.Min(b.x, c.x))))
	maxX := int(math.Ceil(math.Max(a.x, math.Max(b.x, c.x))))
	minY := int(math.Floor(math.Min(a.y, math.Min(b.y, c.y))))
	maxY := int(math.Ceil(math.Max(a.y, math.Max(b.y, c.y))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= r.fb.Width {
		maxX = r.fb.Width - 1
	}
	if maxY >= r.fb.Height {
		maxY = r.fb.Height - 1
	}

	area := (b.x-a.x)*(c.y-a.y) - (c.x-a.x)*(b.y-a.y)
	if area == 0 {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			py := float64(y) + 0.5
			w0 := ((b.x-px)*(c.y-py) - (c.x-px)*(b.y-py)) / area
			w1 := ((c.x-px)*(a.y-py) - (a.x-px)*(c.y-py)) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			depth := w0*a.depth + w1*b.depth + w2*c.depth
			di := y*r.fb.Width + x
			if depth >= r.depth[di] {
				continue
			}
			r.depth[di] = depth
			r.fb.Pix[di] = Color{
				clamp8(w0*float64(a.color.R) + w1*float64(b.color.R) + w2*float64(c.color.R)),
				clamp8(w0*float64(a.color.G) + w1*float64(b.color.G) + w2*float64(c.color.G)),
				clamp8(w0*float64(a.color.B) + w1*float64(b.color.B) + w2*float64(c.color.B)),
			}
		}
	}
}

// drawLine draws a Bresenham line between two projected vertices.
func (r *Rasterizer) drawLine(a, b screenVertex, c Color) {
	x0, y0 := int(math.Round(a.x)), int(math.Round(a.y))
	x1, y1 := int(math.Round(b.x)), int(math.Round(b.y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		r.fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
