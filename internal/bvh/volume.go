package bvh

import (
	"math"

	"github.com/san-kum/physim/internal/linalg"
)

// Sphere is a bounding sphere.
type Sphere struct {
	Center linalg.Vec3
	Radius float64
}

func NewSphere(center linalg.Vec3, radius float64) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// Overlaps reports whether the spheres intersect. Touching spheres do not
// overlap.
func (s Sphere) Overlaps(o Sphere) bool {
	d := s.Center.Sub(o.Center)
	r := s.Radius + o.Radius
	return linalg.Dot(d, d) < r*r
}

// Union returns the smallest sphere enclosing both s and o.
func (s Sphere) Union(o Sphere) Sphere {
	offset := o.Center.Sub(s.Center)
	dist2 := linalg.Dot(offset, offset)
	dr := o.Radius - s.Radius

	if dr*dr >= dist2 {
		if s.Radius >= o.Radius {
			return s
		}
		return o
	}

	dist := math.Sqrt(dist2)
	radius := (dist + s.Radius + o.Radius) * 0.5
	center := linalg.AddScaled(s.Center, offset, (radius-s.Radius)/dist)
	return Sphere{Center: center, Radius: radius}
}

// Growth is the increase in squared radius needed to also enclose o.
func (s Sphere) Growth(o Sphere) float64 {
	u := s.Union(o)
	return u.Radius*u.Radius - s.Radius*s.Radius
}

func (s Sphere) Size() float64 {
	return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max linalg.Vec3
}

// NewAABB returns the box around a sphere of the given radius.
func NewAABB(center linalg.Vec3, radius float64) AABB {
	r := linalg.Vec3{radius, radius, radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

func (b AABB) Overlaps(o AABB) bool {
	for i := range 3 {
		if b.Max[i] <= o.Min[i] || o.Max[i] <= b.Min[i] {
			return false
		}
	}
	return true
}

func (b AABB) Union(o AABB) AABB {
	var u AABB
	for i := range 3 {
		u.Min[i] = math.Min(b.Min[i], o.Min[i])
		u.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return u
}

// Growth is the increase in surface area needed to also enclose o.
func (b AABB) Growth(o AABB) float64 {
	return b.Union(o).Size() - b.Size()
}

// Size is the surface area of the box.
func (b AABB) Size() float64 {
	d := b.Max.Sub(b.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}
