package particle

import (
	"errors"
	"math"

	"github.com/san-kum/physim/internal/linalg"
)

// DefaultDamping keeps a little energy loss so numerical error cannot add energy.
const DefaultDamping = 0.999

var (
	// ErrZeroMass is returned when a mass of exactly zero is set.
	ErrZeroMass = errors.New("particle: mass must be non-zero")

	// ErrNegativeMass is returned for negative masses or inverse masses.
	ErrNegativeMass = errors.New("particle: mass must be positive")
)

// Particle is a point mass. The zero value is an immovable particle at the
// origin; use New for a movable one.
type Particle struct {
	Pos   linalg.Vec3
	Vel   linalg.Vec3
	Acc   linalg.Vec3
	Force linalg.Vec3

	// P is the predicted position used by the position-based solver.
	P linalg.Vec3
	// Accum sums the corrections applied to P during one solver pass and N
	// counts them.
	Accum linalg.Vec3
	N     int

	Damping float64
	Radius  float64

	inverseMass float64
}

// New returns a particle at pos with the given mass and default damping.
func New(pos linalg.Vec3, mass float64) (Particle, error) {
	p := Particle{Pos: pos, P: pos, Damping: DefaultDamping}
	if err := p.SetMass(mass); err != nil {
		return Particle{}, err
	}
	return p, nil
}

// SetMass sets the mass. math.Inf(1) makes the particle immovable.
func (p *Particle) SetMass(mass float64) error {
	switch {
	case mass == 0:
		return ErrZeroMass
	case mass < 0 || math.IsNaN(mass):
		return ErrNegativeMass
	case math.IsInf(mass, 1):
		p.inverseMass = 0
	default:
		p.inverseMass = 1 / mass
	}
	return nil
}

// Mass returns the mass, or +Inf for an immovable particle.
func (p *Particle) Mass() float64 {
	if p.inverseMass == 0 {
		return math.Inf(1)
	}
	return 1 / p.inverseMass
}

func (p *Particle) InverseMass() float64 { return p.inverseMass }

func (p *Particle) HasFiniteMass() bool { return p.inverseMass > 0 }

func (p *Particle) AddForce(f linalg.Vec3) {
	p.Force = p.Force.Add(f)
}

// ClearAccumulators zeroes the force and acceleration of the frame.
func (p *Particle) ClearAccumulators() {
	p.Force = linalg.Zero
	p.Acc = linalg.Zero
}

// Integrate advances the particle by dt seconds. Velocity damping is
// exponential in dt so the decay does not depend on the frame rate. The
// force accumulator is left for the caller to clear.
func (p *Particle) Integrate(dt float64) {
	if p.inverseMass <= 0 || dt <= 0 {
		return
	}

	p.Pos = linalg.AddScaled(p.Pos, p.Vel, dt)
	p.Acc = linalg.AddScaled(p.Acc, p.Force, p.inverseMass)
	p.Vel = linalg.AddScaled(p.Vel, p.Acc, dt)
	p.Vel = p.Vel.Mul(math.Pow(p.Damping, dt))
}

// KineticEnergy is zero for immovable particles.
func (p *Particle) KineticEnergy() float64 {
	if p.inverseMass == 0 {
		return 0
	}
	return 0.5 * p.Vel.LenSqr() / p.inverseMass
}

// The accessors below let contact resolution treat particles and rigid
// bodies alike.

func (p *Particle) Position() linalg.Vec3          { return p.Pos }
func (p *Particle) SetPosition(v linalg.Vec3)      { p.Pos = v }
func (p *Particle) Velocity() linalg.Vec3          { return p.Vel }
func (p *Particle) SetVelocity(v linalg.Vec3)      { p.Vel = v }
func (p *Particle) FrameAcceleration() linalg.Vec3 { return p.Acc }
