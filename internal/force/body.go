package force

import (
	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/linalg"
)

// BodyGenerator adds force and torque to one rigid body.
type BodyGenerator interface {
	UpdateForce(store *body.Store, h body.Handle, dt float64)
	bodyGenerator()
}

// BodyGravity applies a constant acceleration at the centre of mass.
type BodyGravity struct {
	G linalg.Vec3
}

func NewBodyGravity(g linalg.Vec3) *BodyGravity { return &BodyGravity{G: g} }

func (g *BodyGravity) UpdateForce(store *body.Store, h body.Handle, _ float64) {
	b := store.At(h)
	if !b.HasFiniteMass() {
		return
	}
	b.AddForce(g.G.Mul(b.Mass()))
}

// BodySpring connects a body-space point on the registered body to a
// body-space point on Other.
type BodySpring struct {
	ConnectionPoint      linalg.Vec3
	Other                body.Handle
	OtherConnectionPoint linalg.Vec3
	K                    float64
	RestLength           float64
}

func (s *BodySpring) UpdateForce(store *body.Store, h body.Handle, _ float64) {
	b := store.At(h)
	here := b.PointInWorldSpace(s.ConnectionPoint)
	there := store.At(s.Other).PointInWorldSpace(s.OtherConnectionPoint)
	b.AddForceAtPoint(hooke(here.Sub(there), s.K, s.RestLength), here)
}

func (*BodyGravity) bodyGenerator() {}
func (*BodySpring) bodyGenerator()  {}
