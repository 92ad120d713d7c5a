package scenario

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/collide"
	"github.com/san-kum/physim/internal/config"
	"github.com/san-kum/physim/internal/contact"
	"github.com/san-kum/physim/internal/force"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
	"github.com/san-kum/physim/internal/pbd"
	"github.com/san-kum/physim/internal/rigid"
	"github.com/san-kum/physim/internal/sim"
)

// floorRadius is large enough for the floor sphere to look flat at the
// scale of a scenario.
const floorRadius = 1000.0

func buildDrop(cfg *config.Config, _ *rand.Rand) (sim.System, error) {
	store, handles, err := spawn(cfg, row(cfg, cfg.Height))
	if err != nil {
		return nil, err
	}

	w := pbdWorld(cfg, store, handles)
	w.AddGenerator(planeGenerator(cfg))
	w.AddGenerator(pbd.NewCollisionGenerator(cfg.Stiffness))
	return &particleSystem{Stepper: w, store: store, tracked: handles}, nil
}

func buildRope(cfg *config.Config, _ *rand.Rand) (sim.System, error) {
	layout := make([]config.ParticleConfig, cfg.Count)
	for i := range layout {
		layout[i] = config.ParticleConfig{
			Pos:    linalg.Vec3{float64(i) * cfg.Spacing, cfg.Height, 0},
			Mass:   cfg.Mass,
			Radius: cfg.Radius,
			Fixed:  i == 0,
		}
	}
	store, handles, err := spawn(cfg, layout)
	if err != nil {
		return nil, err
	}
	if len(handles) < 2 {
		return nil, fmt.Errorf("%w: rope needs at least 2 particles, got %d", config.ErrInvalid, len(handles))
	}

	w := pbdWorld(cfg, store, handles)
	for i := 1; i < len(handles); i++ {
		a, b := handles[i-1], handles[i]
		length := store.At(b).Pos.Sub(store.At(a).Pos).Len()
		w.AddFixed(pbd.NewDistance(a, b, length, cfg.Stiffness))
	}
	return &particleSystem{Stepper: w, store: store, tracked: handles}, nil
}

func buildPile(cfg *config.Config, rng *rand.Rand) (sim.System, error) {
	layout := make([]config.ParticleConfig, cfg.Count)
	for i := range layout {
		jitter := func() float64 { return (rng.Float64() - 0.5) * cfg.Radius }
		layout[i] = config.ParticleConfig{
			Pos:    linalg.Vec3{jitter(), cfg.Height + float64(i)*2.2*cfg.Radius, jitter()},
			Mass:   cfg.Mass,
			Radius: cfg.Radius,
		}
	}
	store, handles, err := spawn(cfg, layout)
	if err != nil {
		return nil, err
	}

	w := pbdWorld(cfg, store, handles)
	w.AddGenerator(planeGenerator(cfg))
	w.AddGenerator(pbd.NewCollisionGenerator(cfg.Stiffness))
	return &particleSystem{Stepper: w, store: store, tracked: handles}, nil
}

func buildBounce(cfg *config.Config, _ *rand.Rand) (sim.System, error) {
	store, handles, err := spawn(cfg, row(cfg, cfg.Height))
	if err != nil {
		return nil, err
	}

	w := contactWorld(cfg, store, handles)
	w.AddGenerator(contact.NewGroundContacts(cfg.Plane.Normal, cfg.Plane.Offset, cfg.Restitution))
	w.AddGenerator(contact.NewSphereContacts(cfg.Restitution))
	return &particleSystem{Stepper: w, store: store, tracked: handles}, nil
}

func buildBridge(cfg *config.Config, _ *rand.Rand) (sim.System, error) {
	n := cfg.Count + 2
	layout := make([]config.ParticleConfig, n)
	for i := range layout {
		layout[i] = config.ParticleConfig{
			Pos:    linalg.Vec3{float64(i) * cfg.Spacing, cfg.Height, 0},
			Mass:   cfg.Mass,
			Radius: cfg.Radius,
			Fixed:  i == 0 || i == n-1,
		}
	}
	store, handles, err := spawn(cfg, layout)
	if err != nil {
		return nil, err
	}

	w := contactWorld(cfg, store, handles)
	for i := 1; i < len(handles); i++ {
		a, b := handles[i-1], handles[i]
		length := store.At(b).Pos.Sub(store.At(a).Pos).Len()
		w.AddGenerator(&contact.Cable{A: a, B: b, MaxLength: 1.05 * length, Restitution: cfg.Restitution})
	}
	w.AddGenerator(contact.NewGroundContacts(cfg.Plane.Normal, cfg.Plane.Offset, cfg.Restitution))
	return &particleSystem{Stepper: w, store: store, tracked: handles}, nil
}

func buildSpring(cfg *config.Config, _ *rand.Rand) (sim.System, error) {
	store, handles, err := spawn(cfg, row(cfg, 0))
	if err != nil {
		return nil, err
	}

	w := contactWorld(cfg, store, handles)
	drag := force.NewDrag(0.1, 0.01)
	for _, h := range handles {
		anchor := store.At(h).Pos.Add(linalg.Vec3{0, cfg.Height, 0})
		w.Forces().Add(h, force.NewAnchoredSpring(anchor, 100*cfg.Stiffness, 0.5*cfg.Height))
		w.Forces().Add(h, drag)
	}
	return &particleSystem{Stepper: w, store: store, tracked: handles}, nil
}

// buildSpheres sends a row of rigid spheres towards its centre. With
// gravity a fixed floor sphere is added below the plane.
func buildSpheres(cfg *config.Config, _ *rand.Rand) (sim.System, error) {
	layout := cfg.Particles
	if len(layout) == 0 {
		layout = row(cfg, cfg.Height)
		for i := range layout {
			if x := layout[i].Pos[0]; x != 0 {
				layout[i].Vel = linalg.Vec3{-math.Copysign(1, x), 0, 0}
			}
		}
	}

	store := body.NewStore(len(layout) + 1)
	w := rigid.NewWorld(store, cfg.Iterations)
	w.Restitution = cfg.Restitution
	gravity := force.NewBodyGravity(cfg.Gravity)

	tracked := make([]body.Handle, 0, len(layout))
	for i, pc := range layout {
		mass := pc.Mass
		if pc.Fixed {
			mass = math.Inf(1)
		}
		b, err := body.New(pc.Pos, mass)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		radius := cmp.Or(pc.Radius, cfg.Radius)
		if b.HasFiniteMass() {
			if err := b.SetInertiaTensor(body.SolidSphereInertia(mass, radius)); err != nil {
				return nil, fmt.Errorf("body %d: %w", i, err)
			}
		}
		b.SetVelocity(pc.Vel)
		b.LinearDamping = cfg.Damping
		b.AngularDamping = cfg.Damping

		h := store.Add(b)
		w.AddBody(h)
		w.Forces().Add(h, gravity)
		w.AddShape(collide.NewSphere(h, radius))
		tracked = append(tracked, h)
	}

	if cfg.Gravity != linalg.Zero {
		n := linalg.Normalize(cfg.Plane.Normal)
		floor, err := body.New(n.Mul(cfg.Plane.Offset-floorRadius), math.Inf(1))
		if err != nil {
			return nil, err
		}
		h := store.Add(floor)
		w.AddBody(h)
		w.AddShape(collide.NewSphere(h, floorRadius))
	}

	return &bodySystem{Stepper: w, store: store, tracked: tracked}, nil
}

// row lays the configured count of particles along x, centred on the
// origin, at height y.
func row(cfg *config.Config, y float64) []config.ParticleConfig {
	step := 2*cfg.Radius + cfg.Spacing
	x0 := -0.5 * step * float64(cfg.Count-1)
	out := make([]config.ParticleConfig, cfg.Count)
	for i := range out {
		out[i] = config.ParticleConfig{
			Pos:    linalg.Vec3{x0 + step*float64(i), y, 0},
			Mass:   cfg.Mass,
			Radius: cfg.Radius,
		}
	}
	return out
}

// spawn creates the particles of layout, or of cfg.Particles when the
// configuration lists them explicitly.
func spawn(cfg *config.Config, layout []config.ParticleConfig) (*particle.Store, []particle.Handle, error) {
	if len(cfg.Particles) > 0 {
		layout = cfg.Particles
	}

	store := particle.NewStore(len(layout))
	handles := make([]particle.Handle, 0, len(layout))
	for i, pc := range layout {
		mass := pc.Mass
		if pc.Fixed {
			mass = math.Inf(1)
		}
		p, err := particle.New(pc.Pos, mass)
		if err != nil {
			return nil, nil, fmt.Errorf("particle %d: %w", i, err)
		}
		p.Vel = pc.Vel
		p.Radius = cmp.Or(pc.Radius, cfg.Radius)
		p.Damping = cfg.Damping
		handles = append(handles, store.Add(p))
	}
	return store, handles, nil
}

func pbdWorld(cfg *config.Config, store *particle.Store, handles []particle.Handle) *pbd.World {
	w := pbd.NewWorld(store)
	if cfg.Iterations > 0 {
		w.SetIterations(cfg.Iterations)
	}
	gravity := force.NewGravity(cfg.Gravity)
	for _, h := range handles {
		w.AddParticle(h)
		w.Forces().Add(h, gravity)
	}
	return w
}

// contactWorld budgets contacts for every particle touching the ground
// and a few neighbours.
func contactWorld(cfg *config.Config, store *particle.Store, handles []particle.Handle) *contact.World {
	w := contact.NewWorld(store, max(16, 4*len(handles)), cfg.Iterations)
	gravity := force.NewGravity(cfg.Gravity)
	for _, h := range handles {
		w.AddParticle(h)
		w.Forces().Add(h, gravity)
	}
	return w
}

func planeGenerator(cfg *config.Config) *pbd.PlaneGenerator {
	n := linalg.Normalize(cfg.Plane.Normal)
	return pbd.NewPlaneGenerator(n.Mul(cfg.Plane.Offset), n, cfg.Stiffness)
}
