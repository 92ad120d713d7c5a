package contact

import (
	"slices"

	"github.com/san-kum/physim/internal/bvh"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

// Generator appends up to limit contacts to out. particles lists the
// handles owned by the calling world.
type Generator interface {
	Generate(store *particle.Store, particles []particle.Handle, out []Contact, limit int) []Contact
	generator()
}

// GroundContacts keeps particles on the positive side of the plane
// dot(x, Normal) = Offset, taking their radius into account.
type GroundContacts struct {
	Normal      linalg.Vec3
	Offset      float64
	Restitution float64
}

func NewGroundContacts(normal linalg.Vec3, offset, restitution float64) *GroundContacts {
	return &GroundContacts{Normal: linalg.Normalize(normal), Offset: offset, Restitution: restitution}
}

func (g *GroundContacts) Generate(store *particle.Store, particles []particle.Handle, out []Contact, limit int) []Contact {
	used := 0
	for _, h := range particles {
		if used >= limit {
			break
		}
		p := store.At(h)
		if !p.HasFiniteMass() {
			continue
		}
		dist := linalg.Dot(p.Pos, g.Normal) - g.Offset - p.Radius
		if dist >= 0 {
			continue
		}
		out = append(out, Contact{
			Participants: [2]Participant{p, nil},
			Normal:       g.Normal,
			Restitution:  g.Restitution,
			Penetration:  -dist,
		})
		used++
	}
	return out
}

// Cable is a link that only resists stretching beyond MaxLength.
type Cable struct {
	A, B        particle.Handle
	MaxLength   float64
	Restitution float64
}

func (c *Cable) Generate(store *particle.Store, _ []particle.Handle, out []Contact, limit int) []Contact {
	if limit <= 0 {
		return out
	}
	a, b := store.At(c.A), store.At(c.B)
	d := b.Pos.Sub(a.Pos)
	length := d.Len()
	if length < c.MaxLength || !(a.HasFiniteMass() || b.HasFiniteMass()) {
		return out
	}
	return append(out, Contact{
		Participants: [2]Participant{a, b},
		Normal:       linalg.Normalize(d),
		Restitution:  c.Restitution,
		Penetration:  length - c.MaxLength,
	})
}

// Rod holds two particles at exactly Length apart.
type Rod struct {
	A, B   particle.Handle
	Length float64
}

func (r *Rod) Generate(store *particle.Store, _ []particle.Handle, out []Contact, limit int) []Contact {
	if limit <= 0 {
		return out
	}
	a, b := store.At(r.A), store.At(r.B)
	d := b.Pos.Sub(a.Pos)
	length := d.Len()
	if length == r.Length || !(a.HasFiniteMass() || b.HasFiniteMass()) {
		return out
	}

	c := Contact{Participants: [2]Participant{a, b}}
	n := linalg.Normalize(d)
	if length > r.Length {
		c.Normal = n
		c.Penetration = length - r.Length
	} else {
		c.Normal = n.Mul(-1)
		c.Penetration = r.Length - length
	}
	return append(out, c)
}

// SphereContacts separates overlapping particles, treating each as a
// sphere of its radius. Candidate pairs come from a box hierarchy that is
// refreshed on every call.
type SphereContacts struct {
	Restitution float64

	tree    bvh.Tree[uint32, bvh.AABB]
	tracked []particle.Handle
	pairs   []bvh.Pair[uint32]
}

func NewSphereContacts(restitution float64) *SphereContacts {
	return &SphereContacts{Restitution: restitution}
}

func (s *SphereContacts) Generate(store *particle.Store, particles []particle.Handle, out []Contact, limit int) []Contact {
	s.sync(store, particles)

	used := 0
	s.pairs = s.tree.AppendPairs(s.pairs[:0])
	for _, pair := range s.pairs {
		if used >= limit {
			break
		}
		a := store.At(particle.Handle(pair.A - 1))
		b := store.At(particle.Handle(pair.B - 1))
		if !a.HasFiniteMass() && !b.HasFiniteMass() {
			continue
		}

		d := a.Pos.Sub(b.Pos)
		dist := d.Len()
		if dist <= 0 || dist >= a.Radius+b.Radius {
			continue
		}
		out = append(out, Contact{
			Participants: [2]Participant{a, b},
			Normal:       d.Mul(1 / dist),
			Restitution:  s.Restitution,
			Penetration:  a.Radius + b.Radius - dist,
		})
		used++
	}
	return out
}

// sync rebuilds the hierarchy when the particle set changed and otherwise
// moves every leaf to its particle's current position.
func (s *SphereContacts) sync(store *particle.Store, particles []particle.Handle) {
	if !slices.Equal(s.tracked, particles) {
		s.tree.Clear()
		s.tracked = append(s.tracked[:0], particles...)
		for _, h := range particles {
			s.tree.Insert(leafID(h), volumeOf(store.At(h)))
		}
		return
	}
	for _, h := range particles {
		s.tree.Update(leafID(h), volumeOf(store.At(h)))
	}
}

func leafID(h particle.Handle) uint32 { return uint32(h) + 1 }

func volumeOf(p *particle.Particle) bvh.AABB {
	return bvh.NewAABB(p.Pos, p.Radius)
}

func (*GroundContacts) generator() {}
func (*Cable) generator()          {}
func (*Rod) generator()            {}
func (*SphereContacts) generator() {}
