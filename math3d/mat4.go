package math3d

import "math"

// Mat4 is a 4x4 transformation matrix in row-major order.
type Mat4 struct {
	M [16]float64
}

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{M: [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Mat4FromSlice builds a matrix from a 16-element column-major slice
// (the GLTF node matrix layout).
func Mat4FromSlice(s []float64) Mat4 {
	var m Mat4
	for row := range 4 {
		for col := range 4 {
			m.M[row*4+col] = s[col*4+row]
		}
	}
	return m
}

// Translate returns a translation matrix.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m.M[3] = v.X
	m.M[7] = v.Y
	m.M[11] = v.Z
	return m
}

// Scale returns a scaling matrix.
func Scale(v Vec3) Mat4 {
	m := Identity()
	m.M[0] = v.X
	m.M[5] = v.Y
	m.M[10] = v.Z
	return m
}

// RotateX returns a rotation matrix about the X axis (radians).
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m.M[5] = c
	m.M[6] = -s
	m.M[9] = s
	m.M[10] = c
	return m
}

// RotateY returns a rotation matrix about the Y axis (radians).
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m.M[0] = c
	m.M[2] = s
	m.M[8] = -s
	m.M[10] = c
	return m
}

// RotateZ returns a rotation matrix about the Z axis (radians).
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m.M[0] = c
	m.M[1] = -s
	m.M[4] = s
	m.M[5] = c
	return m
}

// QuatToMat4 converts a quaternion (x, y, z, w) to a rotation matrix.
func QuatToMat4(x, y, z, w float64) Mat4 {
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	m := Identity()
	m.M[0] = 1 - 2*(yy+zz)
	m.M[1] = 2 * (xy - wz)
	m.M[2] = 2 * (xz + wy)
	m.M[4] = 2 * (xy + wz)
	m.M[5] = 1 - 2*(xx+zz)
	m.M[6] = 2 * (yz - wx)
	m.M[8] = 2 * (xz - wy)
	m.M[9] = 2 * (yz + wx)
	m.M[10] = 1 - 2*(xx+yy)
	return m
}

// Mul returns the matrix product a * b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for row := range 4 {
		for col := range 4 {
			var sum float64
			for k := range 4 {
				sum += a.M[row*4+k] * b.M[k*4+col]
			}
			out.M[row*4+col] = sum
		}
	}
	return out
}

// MulVec3 transforms a point (w = 1), dividing by w when the matrix is
// projective.
func (a Mat4) MulVec3(v Vec3) Vec3 {
	x := a.M[0]*v.X + a.M[1]*v.Y + a.M[2]*v.Z + a.M[3]
	y := a.M[4]*v.X + a.M[5]*v.Y + a.M[6]*v.Z + a.M[7]
	z := a.M[8]*v.X + a.M[9]*v.Y + a.M[10]*v.Z + a.M[11]
	w := a.M[12]*v.X + a.M[13]*v.Y + a.M[14]*v.Z + a.M[15]
	if w != 0 && w != 1 {
		return Vec3{x / w, y / w, z / w}
	}
	return Vec3{x, y, z}
}

// MulVec3Dir transforms a direction (w = 0): rotation and scale only,
// no translation.
func (a Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		a.M[0]*v.X + a.M[1]*v.Y + a.M[2]*v.Z,
		a.M[4]*v.X + a.M[5]*v.Y + a.M[6]*v.Z,
		a.M[8]*v.X + a.M[9]*v.Y + a.M[10]*v.Z,
	}
}

// LookAt builds a right-handed view matrix for a camera at eye looking at
// target with the given up vector.
func LookAt(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	m := Identity()
	m.M[0], m.M[1], m.M[2] = s.X, s.Y, s.Z
	m.M[4], m.M[5], m.M[6] = u.X, u.Y, u.Z
	m.M[8], m.M[9], m.M[10] = -f.X, -f.Y, -f.Z
	m.M[3] = -s.Dot(eye)
	m.M[7] = -u.Dot(eye)
	m.M[11] = f.Dot(eye)
	return m
}

// Perspective builds a right-handed perspective projection with a vertical
// field of view in radians. Depth maps to [-1, 1].
func Perspective(fovY, aspect, near, far float64) Mat4 {
	t := math.Tan(fovY / 2)
	var m Mat4
	m.M[0] = 1 / (aspect * t)
	m.M[5] = 1 / t
	m.M[10] = -(far + near) / (far - near)
	m.M[11] = -(2 * far * near) / (far - near)
	m.M[14] = -1
	return m
}

// Transpose returns the transposed matrix.
func (a Mat4) Transpose() Mat4 {
	var out Mat4
	for row := range 4 {
		for col := range 4 {
			out.M[row*4+col] = a.M[col*4+row]
		}
	}
	return out
}
