package force

import (
	"math"
	"testing"

	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

func newStore(t *testing.T, positions ...linalg.Vec3) *particle.Store {
	t.Helper()
	s := particle.NewStore(len(positions))
	for _, pos := range positions {
		p, err := particle.New(pos, 2)
		if err != nil {
			t.Fatal(err)
		}
		s.Add(p)
	}
	return s
}

func TestGravity(t *testing.T) {
	s := newStore(t, linalg.Zero)
	s.Add(particle.Particle{})

	g := NewGravity(linalg.Vec3{0, -10, 0})
	g.UpdateForce(s, 0, 0.1)
	g.UpdateForce(s, 1, 0.1)

	if !linalg.ApproxEqual(s.At(0).Force, linalg.Vec3{0, -20, 0}, 1e-12) {
		t.Errorf("expected weight of 2kg particle, got %v", s.At(0).Force)
	}
	if s.At(1).Force != linalg.Zero {
		t.Errorf("immovable particle received force %v", s.At(1).Force)
	}
}

func TestDrag(t *testing.T) {
	s := newStore(t, linalg.Zero)
	s.At(0).Vel = linalg.Vec3{2, 0, 0}

	NewDrag(1, 0.5).UpdateForce(s, 0, 0.1)

	if !linalg.ApproxEqual(s.At(0).Force, linalg.Vec3{-4, 0, 0}, 1e-12) {
		t.Errorf("expected drag -4, got %v", s.At(0).Force)
	}
}

func TestSprings(t *testing.T) {
	tests := []struct {
		name string
		gen  ParticleGenerator
		want linalg.Vec3
	}{
		{"spring stretched", NewSpring(1, 10, 1), linalg.Vec3{-10, 0, 0}},
		{"anchored compressed", NewAnchoredSpring(linalg.Vec3{1.5, 0, 0}, 10, 2), linalg.Vec3{-5, 0, 0}},
		{"bungee slack", NewAnchoredBungee(linalg.Vec3{1.5, 0, 0}, 10, 2), linalg.Zero},
		{"bungee at rest length", NewAnchoredBungee(linalg.Vec3{2, 0, 0}, 10, 2), linalg.Zero},
		{"bungee stretched", NewAnchoredBungee(linalg.Vec3{4, 0, 0}, 10, 2), linalg.Vec3{20, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t, linalg.Zero, linalg.Vec3{-2, 0, 0})
			tt.gen.UpdateForce(s, 0, 0.01)
			if !linalg.ApproxEqual(s.At(0).Force, tt.want, 1e-9) {
				t.Errorf("force = %v, want %v", s.At(0).Force, tt.want)
			}
		})
	}
}

func TestBuoyancy(t *testing.T) {
	b := NewBuoyancy(0.5, 2, 0, 1000)

	tests := []struct {
		y    float64
		want float64
	}{
		{1, 0},
		{-1, 2000},
		{0, 1000},
	}

	for _, tt := range tests {
		s := newStore(t, linalg.Vec3{0, tt.y, 0})
		b.UpdateForce(s, 0, 0.01)
		if math.Abs(s.At(0).Force[1]-tt.want) > 1e-9 {
			t.Errorf("y=%v: buoyancy = %f, want %f", tt.y, s.At(0).Force[1], tt.want)
		}
	}
}

func TestParticleRegistry(t *testing.T) {
	s := newStore(t, linalg.Zero, linalg.Zero)
	g := NewGravity(linalg.Vec3{0, -1, 0})

	var r ParticleRegistry
	r.Add(0, g)
	r.Add(0, g)
	r.Add(1, g)

	r.UpdateForces(s, 0.1)
	if s.At(0).Force[1] != -4 {
		t.Errorf("expected two gravity contributions (-4), got %f", s.At(0).Force[1])
	}

	if !r.Remove(1, g) {
		t.Error("expected registration to be removed")
	}
	if r.Remove(1, g) {
		t.Error("second removal should report missing")
	}
	if r.Remove(0, NewGravity(linalg.Vec3{0, -1, 0})) {
		t.Error("removal must match generator identity, not value")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 registrations, got %d", r.Len())
	}

	r.RemoveParticle(0)
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestBodyRegistry(t *testing.T) {
	store := body.NewStore(2)
	a, _ := body.New(linalg.Zero, 1)
	b, _ := body.New(linalg.Vec3{3, 0, 0}, 1)
	ha, hb := store.Add(a), store.Add(b)

	spring := &BodySpring{Other: hb, K: 2, RestLength: 1}
	gravity := NewBodyGravity(linalg.Vec3{0, -9.8, 0})

	var r BodyRegistry
	r.Add(ha, spring)
	r.Add(ha, gravity)
	r.UpdateForces(store, 0.01)

	want := linalg.Vec3{4, -9.8, 0}
	if !linalg.ApproxEqual(store.At(ha).Force(), want, 1e-9) {
		t.Errorf("force = %v, want %v", store.At(ha).Force(), want)
	}
	if store.At(ha).Torque() != linalg.Zero {
		t.Errorf("spring at centre of mass should not produce torque, got %v", store.At(ha).Torque())
	}

	if !r.Remove(ha, gravity) || r.Len() != 1 {
		t.Error("expected gravity registration removed")
	}
	r.RemoveBody(ha)
	if r.Len() != 0 {
		t.Error("expected registry empty")
	}
}
