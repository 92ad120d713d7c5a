package scenario

import (
	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
	"github.com/san-kum/physim/internal/sim"
)

// particleSystem exposes the tracked particles of a particle world.
type particleSystem struct {
	sim.Stepper
	store   *particle.Store
	tracked []particle.Handle
}

func (s *particleSystem) Observe() sim.Snapshot {
	snap := sim.Snapshot{
		Positions:  make([]linalg.Vec3, len(s.tracked)),
		Velocities: make([]linalg.Vec3, len(s.tracked)),
		Masses:     make([]float64, len(s.tracked)),
	}
	for i, h := range s.tracked {
		p := s.store.At(h)
		snap.Positions[i] = p.Pos
		snap.Velocities[i] = p.Vel
		snap.Masses[i] = p.Mass()
	}
	return snap
}

// bodySystem exposes the tracked bodies of a rigid world.
type bodySystem struct {
	sim.Stepper
	store   *body.Store
	tracked []body.Handle
}

func (s *bodySystem) Observe() sim.Snapshot {
	snap := sim.Snapshot{
		Positions:  make([]linalg.Vec3, len(s.tracked)),
		Velocities: make([]linalg.Vec3, len(s.tracked)),
		Masses:     make([]float64, len(s.tracked)),
	}
	for i, h := range s.tracked {
		b := s.store.At(h)
		snap.Positions[i] = b.Position()
		snap.Velocities[i] = b.Velocity()
		snap.Masses[i] = b.Mass()
	}
	return snap
}
