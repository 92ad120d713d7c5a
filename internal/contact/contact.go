// Package contact implements the sequential-impulse collision response:
// pairwise contacts, an iterative resolver that always handles the most
// severe contact first, contact generators for particles and a particle
// world that ties them together.
package contact

import (
	"github.com/san-kum/physim/internal/linalg"
)

// Participant is anything a contact can push around. Both
// *particle.Particle and *body.RigidBody satisfy it.
type Participant interface {
	Position() linalg.Vec3
	SetPosition(linalg.Vec3)
	Velocity() linalg.Vec3
	SetVelocity(linalg.Vec3)
	FrameAcceleration() linalg.Vec3
	InverseMass() float64
}

// Contact joins two participants, the second of which may be nil for
// contacts against immovable scenery. Normal is a unit vector in world
// space pointing towards Participants[0]. Penetration is positive while the
// participants overlap.
type Contact struct {
	Participants [2]Participant
	Normal       linalg.Vec3
	Restitution  float64
	Penetration  float64

	movement [2]linalg.Vec3
}

// SeparatingVelocity is negative while the participants approach each other.
func (c *Contact) SeparatingVelocity() float64 {
	rel := c.Participants[0].Velocity()
	if c.Participants[1] != nil {
		rel = rel.Sub(c.Participants[1].Velocity())
	}
	return linalg.Dot(rel, c.Normal)
}

// Movement returns the displacements applied by the last interpenetration
// resolution.
func (c *Contact) Movement() [2]linalg.Vec3 { return c.movement }

func (c *Contact) resolve(dt float64) {
	c.resolveVelocity(dt)
	c.resolveInterpenetration()
}

func (c *Contact) totalInverseMass() float64 {
	w := c.Participants[0].InverseMass()
	if c.Participants[1] != nil {
		w += c.Participants[1].InverseMass()
	}
	return w
}

func (c *Contact) resolveVelocity(dt float64) {
	sv := c.SeparatingVelocity()
	if sv > 0 {
		return
	}

	newSv := -sv * c.Restitution

	// Velocity built up by this frame's acceleration alone is removed so
	// resting contacts do not bounce.
	acc := c.Participants[0].FrameAcceleration()
	if c.Participants[1] != nil {
		acc = acc.Sub(c.Participants[1].FrameAcceleration())
	}
	if accSv := linalg.Dot(acc, c.Normal) * dt; accSv < 0 {
		newSv += c.Restitution * accSv
		if newSv < 0 {
			newSv = 0
		}
	}

	totalW := c.totalInverseMass()
	if totalW <= 0 {
		return
	}

	impulse := c.Normal.Mul((newSv - sv) / totalW)

	p0 := c.Participants[0]
	p0.SetVelocity(linalg.AddScaled(p0.Velocity(), impulse, p0.InverseMass()))
	if p1 := c.Participants[1]; p1 != nil {
		p1.SetVelocity(linalg.AddScaled(p1.Velocity(), impulse, -p1.InverseMass()))
	}
}

func (c *Contact) resolveInterpenetration() {
	c.movement = [2]linalg.Vec3{}
	if c.Penetration <= 0 {
		return
	}

	totalW := c.totalInverseMass()
	if totalW <= 0 {
		return
	}

	perW := c.Normal.Mul(c.Penetration / totalW)

	p0 := c.Participants[0]
	c.movement[0] = perW.Mul(p0.InverseMass())
	p0.SetPosition(p0.Position().Add(c.movement[0]))

	if p1 := c.Participants[1]; p1 != nil {
		c.movement[1] = perW.Mul(-p1.InverseMass())
		p1.SetPosition(p1.Position().Add(c.movement[1]))
	}
}
