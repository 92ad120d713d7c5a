package pbd

import (
	"slices"

	"github.com/san-kum/physim/internal/bvh"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

// Generator produces the constraints for one frame. It runs after
// positions have been predicted.
type Generator interface {
	Generate(store *particle.Store, particles []particle.Handle, dt float64, out []Constraint) []Constraint
	generator()
}

// PlaneGenerator emits a PlaneCollision for every particle.
type PlaneGenerator struct {
	Origin    linalg.Vec3
	Normal    linalg.Vec3
	Stiffness float64
}

func NewPlaneGenerator(origin, normal linalg.Vec3, stiffness float64) *PlaneGenerator {
	return &PlaneGenerator{Origin: origin, Normal: linalg.Normalize(normal), Stiffness: stiffness}
}

func (g *PlaneGenerator) Generate(_ *particle.Store, particles []particle.Handle, _ float64, out []Constraint) []Constraint {
	for _, h := range particles {
		out = append(out, &PlaneCollision{Particle: h, Origin: g.Origin, Normal: g.Normal, Stiff: g.Stiffness})
	}
	return out
}

// CollisionGenerator emits a ParticleCollision for every pair of particles
// whose predicted bounding spheres overlap.
type CollisionGenerator struct {
	Stiffness float64

	tree    bvh.Tree[uint32, bvh.Sphere]
	tracked []particle.Handle
	pairs   []bvh.Pair[uint32]
}

func NewCollisionGenerator(stiffness float64) *CollisionGenerator {
	return &CollisionGenerator{Stiffness: stiffness}
}

func (g *CollisionGenerator) Generate(store *particle.Store, particles []particle.Handle, _ float64, out []Constraint) []Constraint {
	if !slices.Equal(g.tracked, particles) {
		g.tree.Clear()
		g.tracked = append(g.tracked[:0], particles...)
		for _, h := range particles {
			g.tree.Insert(uint32(h)+1, predictedSphere(store.At(h)))
		}
	} else {
		for _, h := range particles {
			g.tree.Update(uint32(h)+1, predictedSphere(store.At(h)))
		}
	}

	g.pairs = g.tree.AppendPairs(g.pairs[:0])
	for _, pair := range g.pairs {
		a, b := particle.Handle(pair.A-1), particle.Handle(pair.B-1)
		out = append(out, &ParticleCollision{A: a, B: b, Stiff: g.Stiffness})
	}
	return out
}

func predictedSphere(p *particle.Particle) bvh.Sphere {
	return bvh.NewSphere(p.P, p.Radius)
}

func (*PlaneGenerator) generator()     {}
func (*CollisionGenerator) generator() {}
