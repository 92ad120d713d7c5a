package pbd

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physim/internal/force"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

const (
	DefaultIterations = 4
	// DefaultSleepEpsilon is the squared displacement below which a
	// particle is snapped back to its previous position.
	DefaultSleepEpsilon = 1e-9
)

var ErrInvalidStep = errors.New("pbd: invalid time step")

// World steps particles with position-based dynamics. Fixed constraints
// persist until removed; all others are regenerated every frame.
type World struct {
	Iterations   int
	SleepEpsilon float64

	store      *particle.Store
	particles  []particle.Handle
	forces     force.ParticleRegistry
	generators []Generator
	fixed      []Constraint
	dynamic    []Constraint
}

func NewWorld(store *particle.Store) *World {
	return &World{
		Iterations:   DefaultIterations,
		SleepEpsilon: DefaultSleepEpsilon,
		store:        store,
	}
}

func (w *World) Store() *particle.Store          { return w.store }
func (w *World) Particles() []particle.Handle    { return w.particles }
func (w *World) Forces() *force.ParticleRegistry { return &w.forces }
func (w *World) Fixed() []Constraint             { return w.fixed }

// Dynamic returns the constraints generated during the last frame.
func (w *World) Dynamic() []Constraint { return w.dynamic }

func (w *World) SetIterations(n int) { w.Iterations = n }

func (w *World) AddParticle(h particle.Handle) {
	w.particles = append(w.particles, h)
}

// RemoveParticle drops h and its force registrations. Fixed constraints
// referencing h are left to the caller.
func (w *World) RemoveParticle(h particle.Handle) bool {
	for i, p := range w.particles {
		if p == h {
			w.particles = append(w.particles[:i], w.particles[i+1:]...)
			w.forces.RemoveParticle(h)
			return true
		}
	}
	return false
}

func (w *World) AddGenerator(g Generator) {
	w.generators = append(w.generators, g)
}

func (w *World) AddFixed(c Constraint) {
	w.fixed = append(w.fixed, c)
}

func (w *World) RemoveFixed(c Constraint) bool {
	for i, existing := range w.fixed {
		if existing == c {
			w.fixed = append(w.fixed[:i], w.fixed[i+1:]...)
			return true
		}
	}
	return false
}

// PrepareFrame clears the force and acceleration accumulators.
func (w *World) PrepareFrame() {
	for _, h := range w.particles {
		w.store.At(h).ClearAccumulators()
	}
}

// RunPhysics advances the world by dt seconds. A zero dt is a no-op.
func (w *World) RunPhysics(dt float64) error {
	if dt == 0 {
		return nil
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}

	w.forces.UpdateForces(w.store, dt)

	// Damping scales the force term here, not the velocity.
	for _, h := range w.particles {
		p := w.store.At(h)
		p.Vel = linalg.AddScaled(p.Vel, p.Force, dt*p.InverseMass()*p.Damping)
		p.P = linalg.AddScaled(p.Pos, p.Vel, dt)
		p.Accum = linalg.Zero
		p.N = 0
	}

	w.dynamic = w.dynamic[:0]
	for _, g := range w.generators {
		w.dynamic = g.Generate(w.store, w.particles, dt, w.dynamic)
	}

	w.solve()

	for _, h := range w.particles {
		p := w.store.At(h)
		if d := p.P.Sub(p.Pos); linalg.Dot(d, d) < w.SleepEpsilon {
			p.P = p.Pos
		}
		p.Vel = p.P.Sub(p.Pos).Mul(1 / dt)
		p.Pos = p.P
	}

	for _, c := range w.fixed {
		c.UpdateVelocities(w.store, dt)
	}
	for _, c := range w.dynamic {
		c.UpdateVelocities(w.store, dt)
	}
	return nil
}

// solve runs the projection passes, sweeping fixed then dynamic
// constraints forward on even passes and the exact reverse on odd ones.
func (w *World) solve() {
	n := w.Iterations
	if n <= 0 {
		return
	}
	inv := 1 / float64(n)

	for it := range n {
		if it%2 == 0 {
			for _, c := range w.fixed {
				c.Project(w.store, inv)
			}
			for _, c := range w.dynamic {
				c.Project(w.store, inv)
			}
		} else {
			for i := len(w.dynamic) - 1; i >= 0; i-- {
				w.dynamic[i].Project(w.store, inv)
			}
			for i := len(w.fixed) - 1; i >= 0; i-- {
				w.fixed[i].Project(w.store, inv)
			}
		}
		w.average()
	}
}

// average replaces the summed corrections of particles touched by several
// constraints in one pass with their mean.
func (w *World) average() {
	for _, h := range w.particles {
		p := w.store.At(h)
		if p.N > 1 {
			p.P = p.P.Sub(p.Accum.Mul(1 - 1/float64(p.N)))
		}
		p.Accum = linalg.Zero
		p.N = 0
	}
}
