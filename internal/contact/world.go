package contact

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physim/internal/force"
	"github.com/san-kum/physim/internal/particle"
)

var ErrInvalidStep = errors.New("contact: invalid time step")

// World steps a set of particles with impulse-based collision response.
type World struct {
	store       *particle.Store
	particles   []particle.Handle
	forces      force.ParticleRegistry
	generators  []Generator
	resolver    Resolver
	contacts    []Contact
	maxContacts int

	// autoIterations sets the resolver budget to twice the contact count.
	autoIterations bool
}

// NewWorld creates a world over store that processes at most maxContacts
// contacts per frame. An iteration count of zero lets the world pick one
// from the number of contacts.
func NewWorld(store *particle.Store, maxContacts, iterations int) *World {
	return &World{
		store:          store,
		maxContacts:    maxContacts,
		resolver:       Resolver{Iterations: iterations},
		autoIterations: iterations == 0,
		contacts:       make([]Contact, 0, maxContacts),
	}
}

func (w *World) Store() *particle.Store          { return w.store }
func (w *World) Particles() []particle.Handle    { return w.particles }
func (w *World) Forces() *force.ParticleRegistry { return &w.forces }
func (w *World) Resolver() *Resolver             { return &w.resolver }

// Contacts returns the contacts generated during the last frame.
func (w *World) Contacts() []Contact { return w.contacts }

func (w *World) AddParticle(h particle.Handle) {
	w.particles = append(w.particles, h)
}

// RemoveParticle drops h from the world along with its force registrations.
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

func (w *World) RemoveGenerator(g Generator) bool {
	for i, existing := range w.generators {
		if existing == g {
			w.generators = append(w.generators[:i], w.generators[i+1:]...)
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

// RunPhysics advances the world by dt seconds.
func (w *World) RunPhysics(dt float64) error {
	if dt == 0 {
		return nil
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}

	w.forces.UpdateForces(w.store, dt)

	for _, h := range w.particles {
		w.store.At(h).Integrate(dt)
	}

	w.generateContacts()
	if len(w.contacts) == 0 {
		return nil
	}

	if w.autoIterations {
		w.resolver.Iterations = 2 * len(w.contacts)
	}
	w.resolver.Resolve(w.contacts, dt)
	return nil
}

func (w *World) generateContacts() {
	w.contacts = w.contacts[:0]
	for _, g := range w.generators {
		remaining := w.maxContacts - len(w.contacts)
		if remaining <= 0 {
			break
		}
		w.contacts = g.Generate(w.store, w.particles, w.contacts, remaining)
	}
}
