package body

import (
	"errors"
	"math"

	"github.com/san-kum/physim/internal/linalg"
)

const DefaultDamping = 0.99

var (
	// ErrZeroMass is returned when a mass of exactly zero is set.
	ErrZeroMass = errors.New("body: mass must be non-zero")

	// ErrNegativeMass is returned for negative masses.
	ErrNegativeMass = errors.New("body: mass must be positive")

	// ErrSingularInertia is returned for inertia tensors that cannot be inverted.
	ErrSingularInertia = errors.New("body: inertia tensor is singular")
)

// RigidBody is a rigid body with linear and angular state. The zero value is
// immovable; use New for a movable body.
type RigidBody struct {
	position     linalg.Vec3
	orientation  linalg.Quat
	velocity     linalg.Vec3
	rotation     linalg.Vec3 // angular velocity
	acceleration linalg.Vec3

	LinearDamping  float64
	AngularDamping float64

	inverseMass         float64
	inverseInertia      linalg.Mat3 // body space
	inverseInertiaWorld linalg.Mat3
	transform           linalg.Mat4

	forceAccum   linalg.Vec3
	torqueAccum  linalg.Vec3
	lastFrameAcc linalg.Vec3
}

func New(pos linalg.Vec3, mass float64) (RigidBody, error) {
	b := RigidBody{
		position:       pos,
		orientation:    linalg.QuatIdent(),
		LinearDamping:  DefaultDamping,
		AngularDamping: DefaultDamping,
	}
	if err := b.SetMass(mass); err != nil {
		return RigidBody{}, err
	}
	b.CalculateDerivedData()
	return b, nil
}

// SetMass sets the mass. math.Inf(1) makes the body immovable.
func (b *RigidBody) SetMass(mass float64) error {
	switch {
	case mass == 0:
		return ErrZeroMass
	case mass < 0 || math.IsNaN(mass):
		return ErrNegativeMass
	case math.IsInf(mass, 1):
		b.inverseMass = 0
	default:
		b.inverseMass = 1 / mass
	}
	return nil
}

func (b *RigidBody) Mass() float64 {
	if b.inverseMass == 0 {
		return math.Inf(1)
	}
	return 1 / b.inverseMass
}

func (b *RigidBody) InverseMass() float64 { return b.inverseMass }
func (b *RigidBody) HasFiniteMass() bool  { return b.inverseMass > 0 }

// SetInertiaTensor sets the body-space inertia tensor.
func (b *RigidBody) SetInertiaTensor(inertia linalg.Mat3) error {
	if inertia.Det() == 0 {
		return ErrSingularInertia
	}
	b.inverseInertia = inertia.Inv()
	b.CalculateDerivedData()
	return nil
}

func (b *RigidBody) InverseInertiaWorld() linalg.Mat3 { return b.inverseInertiaWorld }

// SolidSphereInertia is the inertia tensor of a uniform solid sphere.
func SolidSphereInertia(mass, radius float64) linalg.Mat3 {
	return linalg.Ident3().Mul(0.4 * mass * radius * radius)
}

// CuboidInertia is the inertia tensor of a uniform box with the given half sizes.
func CuboidInertia(mass float64, half linalg.Vec3) linalg.Mat3 {
	x, y, z := 4*half[0]*half[0], 4*half[1]*half[1], 4*half[2]*half[2]
	k := mass / 12
	return linalg.Mat3{k * (y + z), 0, 0, 0, k * (x + z), 0, 0, 0, k * (x + y)}
}

func (b *RigidBody) Position() linalg.Vec3            { return b.position }
func (b *RigidBody) Velocity() linalg.Vec3            { return b.velocity }
func (b *RigidBody) SetVelocity(v linalg.Vec3)        { b.velocity = v }
func (b *RigidBody) AngularVelocity() linalg.Vec3     { return b.rotation }
func (b *RigidBody) Orientation() linalg.Quat         { return b.orientation }
func (b *RigidBody) Acceleration() linalg.Vec3        { return b.acceleration }
func (b *RigidBody) SetAcceleration(a linalg.Vec3)    { b.acceleration = a }
func (b *RigidBody) SetAngularVelocity(w linalg.Vec3) { b.rotation = w }
func (b *RigidBody) Transform() linalg.Mat4           { return b.transform }

// FrameAcceleration is the linear acceleration applied during the last
// integration, including accumulated force.
func (b *RigidBody) FrameAcceleration() linalg.Vec3 { return b.lastFrameAcc }

func (b *RigidBody) SetPosition(p linalg.Vec3) {
	b.position = p
	b.transform = linalg.Transform(b.position, b.orientation)
}

func (b *RigidBody) SetOrientation(q linalg.Quat) {
	b.orientation = q.Normalize()
	b.CalculateDerivedData()
}

// CalculateDerivedData recomputes the transform and world inverse inertia
// from position and orientation.
func (b *RigidBody) CalculateDerivedData() {
	if b.orientation == (linalg.Quat{}) {
		b.orientation = linalg.QuatIdent()
	}
	b.orientation = b.orientation.Normalize()
	b.transform = linalg.Transform(b.position, b.orientation)
	b.inverseInertiaWorld = linalg.WorldInverseInertia(b.inverseInertia, b.orientation)
}

// PointInWorldSpace converts a body-space point to world space.
func (b *RigidBody) PointInWorldSpace(local linalg.Vec3) linalg.Vec3 {
	return linalg.TransformPoint(b.transform, local)
}

func (b *RigidBody) AddForce(f linalg.Vec3) {
	b.forceAccum = b.forceAccum.Add(f)
}

func (b *RigidBody) AddTorque(t linalg.Vec3) {
	b.torqueAccum = b.torqueAccum.Add(t)
}

// AddForceAtPoint applies a world-space force at a world-space point,
// producing torque about the centre of mass.
func (b *RigidBody) AddForceAtPoint(f, point linalg.Vec3) {
	arm := point.Sub(b.position)
	b.forceAccum = b.forceAccum.Add(f)
	b.torqueAccum = b.torqueAccum.Add(arm.Cross(f))
}

// AddForceAtBodyPoint applies a world-space force at a body-space point.
func (b *RigidBody) AddForceAtBodyPoint(f, local linalg.Vec3) {
	b.AddForceAtPoint(f, b.PointInWorldSpace(local))
}

func (b *RigidBody) Force() linalg.Vec3  { return b.forceAccum }
func (b *RigidBody) Torque() linalg.Vec3 { return b.torqueAccum }

func (b *RigidBody) ClearAccumulators() {
	b.forceAccum = linalg.Zero
	b.torqueAccum = linalg.Zero
}

// Integrate advances the body by dt seconds on both the linear and the
// angular channel, then re-derives the transform.
func (b *RigidBody) Integrate(dt float64) {
	if b.inverseMass <= 0 || dt <= 0 {
		return
	}

	b.inverseInertiaWorld = linalg.WorldInverseInertia(b.inverseInertia, b.orientation)

	b.lastFrameAcc = linalg.AddScaled(b.acceleration, b.forceAccum, b.inverseMass)
	angularAcc := b.inverseInertiaWorld.Mul3x1(b.torqueAccum)

	b.velocity = linalg.AddScaled(b.velocity, b.lastFrameAcc, dt)
	b.rotation = linalg.AddScaled(b.rotation, angularAcc, dt)

	b.velocity = b.velocity.Mul(math.Pow(b.LinearDamping, dt))
	b.rotation = b.rotation.Mul(math.Pow(b.AngularDamping, dt))

	b.position = linalg.AddScaled(b.position, b.velocity, dt)
	b.orientation = linalg.AddScaledRotation(b.orientation, b.rotation, dt)

	b.CalculateDerivedData()
}

func (b *RigidBody) KineticEnergy() float64 {
	if b.inverseMass == 0 {
		return 0
	}
	return 0.5 * b.velocity.LenSqr() / b.inverseMass
}
