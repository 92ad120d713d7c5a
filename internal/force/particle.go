package force

import (
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
)

// ParticleGenerator adds force to one particle. The set of generators is
// closed to this package; all implementations are pointer types so
// registrations can be matched by identity.
type ParticleGenerator interface {
	UpdateForce(store *particle.Store, h particle.Handle, dt float64)
	particleGenerator()
}

// Gravity applies a constant acceleration scaled by mass.
type Gravity struct {
	G linalg.Vec3
}

func NewGravity(g linalg.Vec3) *Gravity { return &Gravity{G: g} }

func (g *Gravity) UpdateForce(store *particle.Store, h particle.Handle, _ float64) {
	p := store.At(h)
	if !p.HasFiniteMass() {
		return
	}
	p.AddForce(g.G.Mul(p.Mass()))
}

// Drag opposes velocity with k1*|v| + k2*|v|^2.
type Drag struct {
	K1, K2 float64
}

func NewDrag(k1, k2 float64) *Drag { return &Drag{K1: k1, K2: k2} }

func (d *Drag) UpdateForce(store *particle.Store, h particle.Handle, _ float64) {
	p := store.At(h)
	speed := p.Vel.Len()
	if speed == 0 {
		return
	}
	coeff := d.K1*speed + d.K2*speed*speed
	p.AddForce(p.Vel.Mul(-coeff / speed))
}

// Spring connects the particle to another particle.
type Spring struct {
	Other      particle.Handle
	K          float64
	RestLength float64
}

func NewSpring(other particle.Handle, k, rest float64) *Spring {
	return &Spring{Other: other, K: k, RestLength: rest}
}

func (s *Spring) UpdateForce(store *particle.Store, h particle.Handle, _ float64) {
	p := store.At(h)
	d := p.Pos.Sub(store.At(s.Other).Pos)
	p.AddForce(hooke(d, s.K, s.RestLength))
}

// AnchoredSpring connects the particle to a fixed point.
type AnchoredSpring struct {
	Anchor     linalg.Vec3
	K          float64
	RestLength float64
}

func NewAnchoredSpring(anchor linalg.Vec3, k, rest float64) *AnchoredSpring {
	return &AnchoredSpring{Anchor: anchor, K: k, RestLength: rest}
}

func (s *AnchoredSpring) UpdateForce(store *particle.Store, h particle.Handle, _ float64) {
	p := store.At(h)
	p.AddForce(hooke(p.Pos.Sub(s.Anchor), s.K, s.RestLength))
}

// AnchoredBungee only pulls when stretched past its rest length.
type AnchoredBungee struct {
	Anchor     linalg.Vec3
	K          float64
	RestLength float64
}

func NewAnchoredBungee(anchor linalg.Vec3, k, rest float64) *AnchoredBungee {
	return &AnchoredBungee{Anchor: anchor, K: k, RestLength: rest}
}

func (b *AnchoredBungee) UpdateForce(store *particle.Store, h particle.Handle, _ float64) {
	p := store.At(h)
	d := p.Pos.Sub(b.Anchor)
	if d.Len() <= b.RestLength {
		return
	}
	p.AddForce(hooke(d, b.K, b.RestLength))
}

// Buoyancy pushes a particle up out of a liquid whose surface is the plane
// y = WaterHeight. MaxDepth is the submersion depth at full buoyancy.
type Buoyancy struct {
	MaxDepth      float64
	Volume        float64
	WaterHeight   float64
	LiquidDensity float64
}

func NewBuoyancy(maxDepth, volume, waterHeight, density float64) *Buoyancy {
	return &Buoyancy{MaxDepth: maxDepth, Volume: volume, WaterHeight: waterHeight, LiquidDensity: density}
}

func (b *Buoyancy) UpdateForce(store *particle.Store, h particle.Handle, _ float64) {
	p := store.At(h)
	depth := p.Pos[1]

	if depth >= b.WaterHeight+b.MaxDepth {
		return
	}

	full := b.LiquidDensity * b.Volume
	if depth <= b.WaterHeight-b.MaxDepth {
		p.AddForce(linalg.Vec3{0, full, 0})
		return
	}

	submerged := (b.WaterHeight + b.MaxDepth - depth) / (2 * b.MaxDepth)
	p.AddForce(linalg.Vec3{0, full * submerged, 0})
}

// hooke returns the spring force for displacement d from the anchor end.
func hooke(d linalg.Vec3, k, rest float64) linalg.Vec3 {
	length := d.Len()
	if length == 0 {
		return linalg.Zero
	}
	return d.Mul(-k * (length - rest) / length)
}

func (*Gravity) particleGenerator()        {}
func (*Drag) particleGenerator()           {}
func (*Spring) particleGenerator()         {}
func (*AnchoredSpring) particleGenerator() {}
func (*AnchoredBungee) particleGenerator() {}
func (*Buoyancy) particleGenerator()       {}
