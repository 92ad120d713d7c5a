// Package collide implements the narrow phase: collision shapes attached to
// rigid bodies and a type-indexed table of pairwise contact algorithms.
package collide

import (
	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/bvh"
	"github.com/san-kum/physim/internal/linalg"
)

// ShapeType is a dense index into the dispatcher's algorithm table.
type ShapeType int

const (
	SphereType ShapeType = iota

	NumShapeTypes
)

func (t ShapeType) String() string {
	switch t {
	case SphereType:
		return "sphere"
	default:
		return "unknown"
	}
}

// Shape is a collision primitive owned by a rigid body.
type Shape interface {
	Type() ShapeType
	Body() body.Handle
	// Sync recomputes the world transform from the owning body.
	Sync(store *body.Store)
	Transform() linalg.Mat4
	BoundingSphere() bvh.Sphere
	shape()
}

// Sphere is a sphere primitive placed at Offset in its body's frame.
type Sphere struct {
	Owner  body.Handle
	Offset linalg.Mat4
	Radius float64

	transform linalg.Mat4
}

func NewSphere(owner body.Handle, radius float64) *Sphere {
	return &Sphere{Owner: owner, Offset: linalg.Ident4(), Radius: radius, transform: linalg.Ident4()}
}

func (s *Sphere) Type() ShapeType        { return SphereType }
func (s *Sphere) Body() body.Handle      { return s.Owner }
func (s *Sphere) Transform() linalg.Mat4 { return s.transform }
func (s *Sphere) Center() linalg.Vec3    { return linalg.Translation(s.transform) }

// Sync leaves the transform untouched for a shape without a valid owner.
func (s *Sphere) Sync(store *body.Store) {
	if !store.Valid(s.Owner) {
		return
	}
	s.transform = store.At(s.Owner).Transform().Mul4(s.Offset)
}

func (s *Sphere) BoundingSphere() bvh.Sphere {
	return bvh.NewSphere(s.Center(), s.Radius)
}

func (*Sphere) shape() {}
