package contact

import (
	"math"
	"testing"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

func newParticle(t *testing.T, pos, vel linalg.Vec3) *particle.Particle {
	t.Helper()
	p, err := particle.New(pos, 1)
	if err != nil {
		t.Fatal(err)
	}
	p.Vel = vel
	return &p
}

func TestSeparatingVelocity(t *testing.T) {
	a := newParticle(t, linalg.Zero, linalg.Vec3{1, 0, 0})
	b := newParticle(t, linalg.Vec3{1, 0, 0}, linalg.Vec3{-1, 0, 0})

	c := Contact{Participants: [2]Participant{a, b}, Normal: linalg.Vec3{-1, 0, 0}}
	if sv := c.SeparatingVelocity(); sv != -2 {
		t.Errorf("separating velocity = %f, want -2", sv)
	}

	c = Contact{Participants: [2]Participant{a, nil}, Normal: linalg.Vec3{-1, 0, 0}}
	if sv := c.SeparatingVelocity(); sv != -1 {
		t.Errorf("one-sided separating velocity = %f, want -1", sv)
	}
}

func TestResolve_Velocity(t *testing.T) {
	tests := []struct {
		name        string
		restitution float64
		massB       float64
		wantA       linalg.Vec3
		wantB       linalg.Vec3
	}{
		{"elastic equal masses swap", 1, 1, linalg.Vec3{-1, 0, 0}, linalg.Vec3{1, 0, 0}},
		{"inelastic equal masses stop", 0, 1, linalg.Zero, linalg.Zero},
		{"immovable other", 1, math.Inf(1), linalg.Vec3{-3, 0, 0}, linalg.Vec3{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newParticle(t, linalg.Zero, linalg.Vec3{1, 0, 0})
			b := newParticle(t, linalg.Vec3{1, 0, 0}, linalg.Vec3{-1, 0, 0})
			if err := b.SetMass(tt.massB); err != nil {
				t.Fatal(err)
			}

			contacts := []Contact{{
				Participants: [2]Participant{a, b},
				Normal:       linalg.Vec3{-1, 0, 0},
				Restitution:  tt.restitution,
			}}
			NewResolver(1).Resolve(contacts, 1.0/60)

			if !linalg.ApproxEqual(a.Vel, tt.wantA, 1e-12) {
				t.Errorf("a velocity = %v, want %v", a.Vel, tt.wantA)
			}
			if !linalg.ApproxEqual(b.Vel, tt.wantB, 1e-12) {
				t.Errorf("b velocity = %v, want %v", b.Vel, tt.wantB)
			}
		})
	}
}

func TestResolve_Bounce(t *testing.T) {
	p := newParticle(t, linalg.Zero, linalg.Vec3{0, -2, 0})
	contacts := []Contact{{
		Participants: [2]Participant{p, nil},
		Normal:       linalg.Up,
		Restitution:  0.5,
	}}

	r := NewResolver(4)
	r.Resolve(contacts, 1.0/60)

	if !linalg.ApproxEqual(p.Vel, linalg.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("velocity = %v, want (0,1,0)", p.Vel)
	}
	if r.IterationsUsed != 1 {
		t.Errorf("iterations used = %d, want 1", r.IterationsUsed)
	}
}

func TestResolve_RestingContactConverges(t *testing.T) {
	const dt = 1.0 / 60
	p := newParticle(t, linalg.Vec3{0, -0.01, 0}, linalg.Vec3{0, -2, 0})
	p.Acc = linalg.Vec3{0, -9.8, 0}
	r := NewResolver(10)

	for frame := range 50 {
		contacts := []Contact{{
			Participants: [2]Participant{p, nil},
			Normal:       linalg.Up,
			Penetration:  -p.Pos[1],
		}}
		r.Resolve(contacts, dt)

		if sv := contacts[0].SeparatingVelocity(); math.Abs(sv) > 1e-12 {
			t.Fatalf("frame %d: separating velocity %g after resolution", frame, sv)
		}
		if math.Abs(p.Pos[1]) > 1e-12 {
			t.Fatalf("frame %d: particle left the surface, y = %g", frame, p.Pos[1])
		}

		p.Vel = linalg.AddScaled(p.Vel, p.Acc, dt)
		p.Pos = linalg.AddScaled(p.Pos, p.Vel, dt)
	}
}

func TestResolve_MostSevereFirst(t *testing.T) {
	slow := newParticle(t, linalg.Zero, linalg.Vec3{0, -1, 0})
	fast := newParticle(t, linalg.Vec3{5, 0, 0}, linalg.Vec3{0, -3, 0})

	contacts := []Contact{
		{Participants: [2]Participant{slow, nil}, Normal: linalg.Up},
		{Participants: [2]Participant{fast, nil}, Normal: linalg.Up},
	}
	NewResolver(1).Resolve(contacts, 1.0/60)

	if fast.Vel != linalg.Zero {
		t.Errorf("expected the faster contact to be resolved first, velocity %v", fast.Vel)
	}
	if slow.Vel != (linalg.Vec3{0, -1, 0}) {
		t.Errorf("slower contact should be untouched with one iteration, velocity %v", slow.Vel)
	}
}

func TestResolve_AdjustsSharedPenetration(t *testing.T) {
	p := newParticle(t, linalg.Zero, linalg.Zero)
	contacts := []Contact{
		{Participants: [2]Participant{p, nil}, Normal: linalg.Up, Penetration: 0.2},
		{Participants: [2]Participant{p, nil}, Normal: linalg.Up, Penetration: 0.1},
	}

	NewResolver(1).Resolve(contacts, 1.0/60)

	if math.Abs(p.Pos[1]-0.2) > 1e-12 {
		t.Errorf("y = %f, want 0.2", p.Pos[1])
	}
	if math.Abs(contacts[0].Penetration) > 1e-12 {
		t.Errorf("resolved contact penetration = %f, want 0", contacts[0].Penetration)
	}
	if math.Abs(contacts[1].Penetration+0.1) > 1e-12 {
		t.Errorf("shared contact penetration = %f, want -0.1", contacts[1].Penetration)
	}
}

func TestResolve_SecondSlotSign(t *testing.T) {
	a := newParticle(t, linalg.Zero, linalg.Zero)
	b := newParticle(t, linalg.Vec3{0, 1, 0}, linalg.Zero)
	c := newParticle(t, linalg.Vec3{0, 2, 0}, linalg.Zero)

	contacts := []Contact{
		// b above a, pushing b upward
		{Participants: [2]Participant{b, a}, Normal: linalg.Up, Penetration: 0.2},
		// c above b; moving b up deepens this one
		{Participants: [2]Participant{c, b}, Normal: linalg.Up, Penetration: 0},
	}
	NewResolver(1).Resolve(contacts, 1.0/60)

	if math.Abs(contacts[1].Penetration-0.1) > 1e-12 {
		t.Errorf("penetration = %f, want 0.1", contacts[1].Penetration)
	}
}

func TestResolve_NothingToDo(t *testing.T) {
	p := newParticle(t, linalg.Zero, linalg.Vec3{0, 1, 0})
	contacts := []Contact{{Participants: [2]Participant{p, nil}, Normal: linalg.Up}}

	r := NewResolver(10)
	r.Resolve(contacts, 1.0/60)
	if r.IterationsUsed != 0 {
		t.Errorf("separating contact should not be resolved, used %d", r.IterationsUsed)
	}

	r.Resolve(nil, 1.0/60)
	if r.IterationsUsed != 0 {
		t.Error("empty contact list should use no iterations")
	}
}

func TestResolve_SkipsImmovableContacts(t *testing.T) {
	wallA := newParticle(t, linalg.Zero, linalg.Zero)
	wallB := newParticle(t, linalg.Vec3{0, 1, 0}, linalg.Zero)
	for _, w := range []*particle.Particle{wallA, wallB} {
		if err := w.SetMass(math.Inf(1)); err != nil {
			t.Fatal(err)
		}
	}
	p := newParticle(t, linalg.Vec3{3, -0.2, 0}, linalg.Zero)

	contacts := []Contact{
		{Participants: [2]Participant{wallB, wallA}, Normal: linalg.Up, Penetration: 0.5},
		{Participants: [2]Participant{p, nil}, Normal: linalg.Up, Penetration: 0.2},
	}
	r := NewResolver(10)
	r.Resolve(contacts, 1.0/60)

	if math.Abs(p.Pos[1]) > 1e-12 {
		t.Errorf("movable particle y = %f, want 0", p.Pos[1])
	}
	if r.IterationsUsed != 1 {
		t.Errorf("iterations used = %d, want 1", r.IterationsUsed)
	}
	if wallA.Pos != linalg.Zero || wallB.Pos != (linalg.Vec3{0, 1, 0}) {
		t.Errorf("immovable participants moved: %v, %v", wallA.Pos, wallB.Pos)
	}
}
