package force

import (
	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/particle"
)

type particleEntry struct {
	handle particle.Handle
	gen    ParticleGenerator
}

// ParticleRegistry is a flat list of (particle, generator) registrations.
// Several generators may target the same particle.
type ParticleRegistry struct {
	entries []particleEntry
}

func (r *ParticleRegistry) Add(h particle.Handle, g ParticleGenerator) {
	r.entries = append(r.entries, particleEntry{handle: h, gen: g})
}

// Remove erases the first registration matching both h and g.
func (r *ParticleRegistry) Remove(h particle.Handle, g ParticleGenerator) bool {
	for i, e := range r.entries {
		if e.handle == h && e.gen == g {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveParticle drops every registration targeting h.
func (r *ParticleRegistry) RemoveParticle(h particle.Handle) {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.handle != h {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

func (r *ParticleRegistry) Clear()   { r.entries = r.entries[:0] }
func (r *ParticleRegistry) Len() int { return len(r.entries) }

// UpdateForces runs every generator once in registration order. Generators
// accumulate into the particle's force; callers clear it between frames.
func (r *ParticleRegistry) UpdateForces(store *particle.Store, dt float64) {
	for _, e := range r.entries {
		e.gen.UpdateForce(store, e.handle, dt)
	}
}

type bodyEntry struct {
	handle body.Handle
	gen    BodyGenerator
}

// BodyRegistry is the rigid-body counterpart of ParticleRegistry.
type BodyRegistry struct {
	entries []bodyEntry
}

func (r *BodyRegistry) Add(h body.Handle, g BodyGenerator) {
	r.entries = append(r.entries, bodyEntry{handle: h, gen: g})
}

func (r *BodyRegistry) Remove(h body.Handle, g BodyGenerator) bool {
	for i, e := range r.entries {
		if e.handle == h && e.gen == g {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *BodyRegistry) RemoveBody(h body.Handle) {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.handle != h {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

func (r *BodyRegistry) Clear()   { r.entries = r.entries[:0] }
func (r *BodyRegistry) Len() int { return len(r.entries) }

func (r *BodyRegistry) UpdateForces(store *body.Store, dt float64) {
	for _, e := range r.entries {
		e.gen.UpdateForce(store, e.handle, dt)
	}
}
