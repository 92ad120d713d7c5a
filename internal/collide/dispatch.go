package collide

import (
	"errors"
	"fmt"

	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/linalg"
)

var ErrNoAlgorithm = errors.New("collide: no algorithm registered for shape pair")

// Contact is a narrow-phase result. Normal is a unit vector pointing from
// the first body towards the second.
type Contact struct {
	Bodies      [2]body.Handle
	Point       linalg.Vec3
	Normal      linalg.Vec3
	Penetration float64
}

// Algorithm appends the contacts between a and b to out. The dispatcher
// guarantees a.Type() <= b.Type().
type Algorithm func(a, b Shape, out []Contact) []Contact

// Dispatcher maps an unordered pair of shape types to an Algorithm.
type Dispatcher struct {
	table [NumShapeTypes][NumShapeTypes]Algorithm
}

// NewDispatcher returns a dispatcher with every built-in algorithm registered.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{}
	d.Register(SphereType, SphereType, SphereSphere)
	return d
}

// Register stores alg for the unordered pair (a, b).
func (d *Dispatcher) Register(a, b ShapeType, alg Algorithm) {
	if a > b {
		a, b = b, a
	}
	d.table[a][b] = alg
}

// GenerateContacts runs the algorithm registered for the shapes' types,
// passing the shape with the lower type first.
func (d *Dispatcher) GenerateContacts(a, b Shape, out []Contact) ([]Contact, error) {
	if a.Type() > b.Type() {
		a, b = b, a
	}
	ta, tb := a.Type(), b.Type()
	if ta < 0 || tb >= NumShapeTypes {
		return out, fmt.Errorf("%w: %v/%v", ErrNoAlgorithm, ta, tb)
	}
	alg := d.table[ta][tb]
	if alg == nil {
		return out, fmt.Errorf("%w: %v/%v", ErrNoAlgorithm, ta, tb)
	}
	return alg(a, b, out), nil
}

// SphereSphere produces at most one contact at the midpoint between the
// centres. Coincident centres produce none since no normal is defined.
func SphereSphere(a, b Shape, out []Contact) []Contact {
	sa, sb := a.(*Sphere), b.(*Sphere)
	ca, cb := sa.Center(), sb.Center()

	mid := cb.Sub(ca)
	d := mid.Len()
	if d <= 0 || d >= sa.Radius+sb.Radius {
		return out
	}

	return append(out, Contact{
		Bodies:      [2]body.Handle{sa.Owner, sb.Owner},
		Point:       ca.Add(mid.Mul(0.5)),
		Normal:      mid.Mul(1 / d),
		Penetration: sa.Radius + sb.Radius - d,
	})
}

// Flip swaps the roles of the two bodies in c.
func (c Contact) Flip() Contact {
	c.Bodies[0], c.Bodies[1] = c.Bodies[1], c.Bodies[0]
	c.Normal = c.Normal.Mul(-1)
	return c
}
