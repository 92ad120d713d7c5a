package contact

import (
	"math"

	"github.com/san-kum/physim/internal/linalg"
)

// Resolver runs sequential-impulse passes over a set of contacts.
type Resolver struct {
	Iterations     int
	IterationsUsed int
}

func NewResolver(iterations int) *Resolver {
	return &Resolver{Iterations: iterations}
}

// Resolve handles one contact per pass, always the one with the most
// negative separating velocity among those still closing or penetrating.
// Contacts between immovable participants never qualify. It stops when no
// contact qualifies or after Iterations passes.
func (r *Resolver) Resolve(contacts []Contact, dt float64) {
	r.IterationsUsed = 0
	for r.IterationsUsed < r.Iterations {
		worst := len(contacts)
		lowest := math.MaxFloat64
		for i := range contacts {
			if contacts[i].totalInverseMass() <= 0 {
				continue
			}
			sv := contacts[i].SeparatingVelocity()
			if sv < lowest && (sv < 0 || contacts[i].Penetration > 0) {
				lowest = sv
				worst = i
			}
		}
		if worst == len(contacts) {
			break
		}

		resolved := &contacts[worst]
		resolved.resolve(dt)
		adjustPenetrations(contacts, resolved)

		r.IterationsUsed++
	}
}

// adjustPenetrations updates every contact sharing a participant with the
// resolved one, which includes the resolved contact itself.
func adjustPenetrations(contacts []Contact, resolved *Contact) {
	move := resolved.movement
	for i := range contacts {
		c := &contacts[i]
		for slot, sign := range [2]float64{-1, 1} {
			p := c.Participants[slot]
			if p == nil {
				continue
			}
			for k := range 2 {
				if q := resolved.Participants[k]; q != nil && q == p {
					c.Penetration += sign * linalg.Dot(move[k], c.Normal)
					break
				}
			}
		}
	}
}
