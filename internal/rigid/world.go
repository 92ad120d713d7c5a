// Package rigid steps rigid bodies carrying collision shapes: force
// accumulation, integration, a sphere hierarchy broad phase, the narrow
// phase dispatcher and the sequential-impulse resolver.
//
// Collision response is linear only; contacts do not induce spin.
package rigid

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physim/internal/body"
	"github.com/san-kum/physim/internal/bvh"
	"github.com/san-kum/physim/internal/collide"
	"github.com/san-kum/physim/internal/contact"
	"github.com/san-kum/physim/internal/force"
)

var ErrInvalidStep = errors.New("rigid: invalid time step")

type World struct {
	// Restitution is applied to every generated contact.
	Restitution float64
	Dispatcher  *collide.Dispatcher

	store    *body.Store
	bodies   []body.Handle
	forces   force.BodyRegistry
	shapes   []collide.Shape
	tree     bvh.Tree[uint32, bvh.Sphere]
	resolver contact.Resolver

	pairs    []bvh.Pair[uint32]
	narrow   []collide.Contact
	contacts []contact.Contact

	autoIterations bool
}

// NewWorld creates a world over store. Zero iterations lets the resolver
// budget follow the contact count.
func NewWorld(store *body.Store, iterations int) *World {
	return &World{
		Dispatcher:     collide.NewDispatcher(),
		store:          store,
		resolver:       contact.Resolver{Iterations: iterations},
		autoIterations: iterations == 0,
	}
}

func (w *World) Store() *body.Store          { return w.store }
func (w *World) Bodies() []body.Handle       { return w.bodies }
func (w *World) Forces() *force.BodyRegistry { return &w.forces }
func (w *World) Shapes() []collide.Shape     { return w.shapes }
func (w *World) Resolver() *contact.Resolver { return &w.resolver }

// Contacts returns the contacts resolved during the last frame.
func (w *World) Contacts() []contact.Contact { return w.contacts }

func (w *World) AddBody(h body.Handle) {
	w.bodies = append(w.bodies, h)
}

// AddShape registers s and returns its broad-phase id.
func (w *World) AddShape(s collide.Shape) uint32 {
	w.shapes = append(w.shapes, s)
	id := uint32(len(w.shapes))
	s.Sync(w.store)
	w.tree.Insert(id, s.BoundingSphere())
	return id
}

// PrepareFrame clears force and torque accumulators.
func (w *World) PrepareFrame() {
	for _, h := range w.bodies {
		w.store.At(h).ClearAccumulators()
	}
}

// RunPhysics advances the world by dt seconds. It fails when the narrow
// phase meets a shape pair without a registered algorithm.
func (w *World) RunPhysics(dt float64) error {
	if dt == 0 {
		return nil
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}

	w.forces.UpdateForces(w.store, dt)
	for _, h := range w.bodies {
		w.store.At(h).Integrate(dt)
	}

	for i, s := range w.shapes {
		s.Sync(w.store)
		w.tree.Update(uint32(i+1), s.BoundingSphere())
	}

	if err := w.narrowPhase(); err != nil {
		return err
	}
	if len(w.contacts) == 0 {
		return nil
	}

	if w.autoIterations {
		w.resolver.Iterations = 2 * len(w.contacts)
	}
	w.resolver.Resolve(w.contacts, dt)
	return nil
}

func (w *World) narrowPhase() error {
	w.narrow = w.narrow[:0]
	w.pairs = w.tree.AppendPairs(w.pairs[:0])
	for _, p := range w.pairs {
		a, b := w.shapes[p.A-1], w.shapes[p.B-1]
		if a.Body() == b.Body() {
			continue
		}
		var err error
		w.narrow, err = w.Dispatcher.GenerateContacts(a, b, w.narrow)
		if err != nil {
			return fmt.Errorf("rigid: shapes %d and %d: %w", p.A, p.B, err)
		}
	}

	// Narrow-phase normals point from the first body to the second, the
	// resolver wants them pointing at its first participant.
	w.contacts = w.contacts[:0]
	for _, c := range w.narrow {
		a, b := w.store.At(c.Bodies[1]), w.store.At(c.Bodies[0])
		if a.InverseMass() == 0 && b.InverseMass() == 0 {
			continue
		}
		w.contacts = append(w.contacts, contact.Contact{
			Participants: [2]contact.Participant{a, b},
			Normal:       c.Normal,
			Restitution:  w.Restitution,
			Penetration:  c.Penetration,
		})
	}
	return nil
}
