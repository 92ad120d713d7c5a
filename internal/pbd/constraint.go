// Package pbd implements position-based dynamics for particles: equality
// and inequality constraints projected Gauss-Seidel style on predicted
// positions, constraint generators, and the particle world that steps them.
package pbd

import (
	"math"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

// Kind decides when a constraint counts as satisfied.
type Kind int

const (
	// Equality constraints are satisfied only when Eval is zero.
	Equality Kind = iota
	// Inequality constraints are satisfied when Eval is non-negative.
	Inequality
)

func (k Kind) String() string {
	if k == Inequality {
		return "inequality"
	}
	return "equality"
}

// Constraint restricts the predicted positions of one or two particles.
type Constraint interface {
	Kind() Kind
	Stiffness() float64
	// Eval returns the signed violation measured on predicted positions.
	Eval(store *particle.Store) float64
	// Gradient returns dEval/dP for particle h, zero for non-participants.
	Gradient(store *particle.Store, h particle.Handle) linalg.Vec3
	// Project moves predicted positions towards satisfying the constraint.
	Project(store *particle.Store, invIterations float64)
	// UpdateVelocities is called once per frame after positions are final.
	UpdateVelocities(store *particle.Store, dt float64)
	constraint()
}

func satisfied(k Kind, c float64) bool {
	if k == Inequality {
		return c >= 0
	}
	return c == 0
}

// effectiveStiffness spreads k over the solver passes so the total
// correction per frame does not depend on the iteration count.
func effectiveStiffness(k, invIterations float64) float64 {
	return 1 - math.Pow(1-k, invIterations)
}

// project applies the shared correction step. Each participant is moved by
// -C / sum(w|grad|^2) * w * grad, scaled by the effective stiffness, and the
// correction is recorded for averaging.
func project(store *particle.Store, c Constraint, handles []particle.Handle, invIterations float64) {
	value := c.Eval(store)
	if satisfied(c.Kind(), value) {
		return
	}

	var denom float64
	for _, h := range handles {
		g := c.Gradient(store, h)
		denom += store.At(h).InverseMass() * linalg.Dot(g, g)
	}
	if denom == 0 {
		return
	}

	scale := -value / denom * effectiveStiffness(c.Stiffness(), invIterations)

	// gradients are computed before any participant moves
	var grads [2]linalg.Vec3
	for i, h := range handles {
		grads[i] = c.Gradient(store, h)
	}
	for i, h := range handles {
		p := store.At(h)
		w := p.InverseMass()
		if w == 0 {
			continue
		}
		dp := grads[i].Mul(scale * w)
		p.P = p.P.Add(dp)
		p.Accum = p.Accum.Add(dp)
		p.N++
	}
}

// Distance keeps two particles at a fixed separation.
type Distance struct {
	A, B   particle.Handle
	Length float64
	Stiff  float64
}

func NewDistance(a, b particle.Handle, length, stiffness float64) *Distance {
	return &Distance{A: a, B: b, Length: length, Stiff: stiffness}
}

func (d *Distance) Kind() Kind         { return Equality }
func (d *Distance) Stiffness() float64 { return d.Stiff }

func (d *Distance) Eval(store *particle.Store) float64 {
	return store.At(d.A).P.Sub(store.At(d.B).P).Len() - d.Length
}

func (d *Distance) Gradient(store *particle.Store, h particle.Handle) linalg.Vec3 {
	return pairGradient(store, d.A, d.B, h)
}

func (d *Distance) Project(store *particle.Store, invIterations float64) {
	project(store, d, []particle.Handle{d.A, d.B}, invIterations)
}

// ParticleCollision keeps two particles from overlapping.
type ParticleCollision struct {
	A, B  particle.Handle
	Stiff float64
}

func NewParticleCollision(a, b particle.Handle, stiffness float64) *ParticleCollision {
	return &ParticleCollision{A: a, B: b, Stiff: stiffness}
}

func (c *ParticleCollision) Kind() Kind         { return Inequality }
func (c *ParticleCollision) Stiffness() float64 { return c.Stiff }

func (c *ParticleCollision) Eval(store *particle.Store) float64 {
	a, b := store.At(c.A), store.At(c.B)
	return a.P.Sub(b.P).Len() - (a.Radius + b.Radius)
}

func (c *ParticleCollision) Gradient(store *particle.Store, h particle.Handle) linalg.Vec3 {
	return pairGradient(store, c.A, c.B, h)
}

func (c *ParticleCollision) Project(store *particle.Store, invIterations float64) {
	project(store, c, []particle.Handle{c.A, c.B}, invIterations)
}

// PlaneCollision keeps a particle on the side of the plane its normal
// points to. Eval is negative exactly on the prohibited side.
type PlaneCollision struct {
	Particle particle.Handle
	Origin   linalg.Vec3
	Normal   linalg.Vec3
	Stiff    float64
}

func NewPlaneCollision(h particle.Handle, origin, normal linalg.Vec3, stiffness float64) *PlaneCollision {
	return &PlaneCollision{Particle: h, Origin: origin, Normal: linalg.Normalize(normal), Stiff: stiffness}
}

func (c *PlaneCollision) Kind() Kind         { return Inequality }
func (c *PlaneCollision) Stiffness() float64 { return c.Stiff }

func (c *PlaneCollision) Eval(store *particle.Store) float64 {
	p := store.At(c.Particle)
	return linalg.Dot(p.P.Sub(c.Origin), c.Normal) - p.Radius
}

func (c *PlaneCollision) Gradient(_ *particle.Store, h particle.Handle) linalg.Vec3 {
	if h != c.Particle {
		return linalg.Zero
	}
	return c.Normal
}

func (c *PlaneCollision) Project(store *particle.Store, invIterations float64) {
	project(store, c, []particle.Handle{c.Particle}, invIterations)
}

// UpdateVelocities is a no-op for every built-in constraint.
func (*Distance) UpdateVelocities(*particle.Store, float64)          {}
func (*ParticleCollision) UpdateVelocities(*particle.Store, float64) {}
func (*PlaneCollision) UpdateVelocities(*particle.Store, float64)    {}

func (*Distance) constraint()          {}
func (*ParticleCollision) constraint() {}
func (*PlaneCollision) constraint()    {}

// pairGradient is the gradient of |pa - pb| with respect to h.
func pairGradient(store *particle.Store, a, b, h particle.Handle) linalg.Vec3 {
	n := linalg.Normalize(store.At(a).P.Sub(store.At(b).P))
	switch h {
	case a:
		return n
	case b:
		return n.Mul(-1)
	}
	return linalg.Zero
}
