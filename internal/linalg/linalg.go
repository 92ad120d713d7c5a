// Package linalg provides the vector, quaternion and matrix types used by the
// physics packages.
//
// The types are aliases of the [mgl64] types so values flow freely between
// this module and any code already written against mathgl:
//
//   - [Vec3]: position, velocity, force, normal
//   - [Quat]: orientation
//   - [Mat3]: inertia tensors
//   - [Mat4]: local-to-world transforms
//
// Helpers in this package never produce NaN for a zero-length input, which
// keeps degenerate contacts and constraints from poisoning the solvers.
package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type (
	Vec3 = mgl64.Vec3
	Quat = mgl64.Quat
	Mat3 = mgl64.Mat3
	Mat4 = mgl64.Mat4
)

var (
	Zero = Vec3{0, 0, 0}
	Up   = Vec3{0, 1, 0}
)

func Dot(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Normalize returns v scaled to unit length, or v unchanged if it has zero length.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// AddScaled returns v + u*s.
func AddScaled(v, u Vec3, s float64) Vec3 {
	return Vec3{v[0] + u[0]*s, v[1] + u[1]*s, v[2] + u[2]*s}
}

// Project returns the component of v along the unit vector n.
func Project(v, n Vec3) Vec3 {
	return n.Mul(Dot(v, n))
}

// AddScaledRotation advances q by the angular velocity w over s seconds and
// renormalises the result.
func AddScaledRotation(q Quat, w Vec3, s float64) Quat {
	spin := mgl64.Quat{W: 0, V: w.Mul(s)}.Mul(q)
	q.W += spin.W * 0.5
	q.V = q.V.Add(spin.V.Mul(0.5))
	return q.Normalize()
}

// Transform builds the local-to-world matrix for a position and orientation.
func Transform(pos Vec3, q Quat) Mat4 {
	return mgl64.Translate3D(pos[0], pos[1], pos[2]).Mul4(q.Normalize().Mat4())
}

func TransformPoint(m Mat4, p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func TransformDirection(m Mat4, d Vec3) Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// Translation extracts the translation column of m.
func Translation(m Mat4) Vec3 {
	return m.Col(3).Vec3()
}

// WorldInverseInertia rotates a body-space inverse inertia tensor into world
// space: R * I^-1 * R^T.
func WorldInverseInertia(invLocal Mat3, q Quat) Mat3 {
	r := q.Normalize().Mat4().Mat3()
	return r.Mul3(invLocal).Mul3(r.Transpose())
}

func Ident3() Mat3    { return mgl64.Ident3() }
func Ident4() Mat4    { return mgl64.Ident4() }
func QuatIdent() Quat { return mgl64.QuatIdent() }

// Inf is the mass sentinel for immovable objects.
func Inf() float64 { return math.Inf(1) }

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func IsFiniteVec(v Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// ApproxEqual compares two vectors component-wise within eps.
func ApproxEqual(a, b Vec3, eps float64) bool {
	return math.Abs(a[0]-b[0]) <= eps && math.Abs(a[1]-b[1]) <= eps && math.Abs(a[2]-b[2]) <= eps
}
