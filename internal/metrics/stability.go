package metrics

import (
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/sim"
)

// Stability is the fraction of frames in which every entity stayed inside a
// sphere around center and had finite coordinates. Immovable entities are
// not checked.
type Stability struct {
	center      linalg.Vec3
	radius2     float64
	escapes     int
	frames      int
	firstEscape int
}

func NewStability(center linalg.Vec3, radius float64) *Stability {
	s := &Stability{center: center, radius2: radius * radius}
	s.Reset()
	return s
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(snap sim.Snapshot) {
	if s.escaped(snap) {
		if s.firstEscape < 0 {
			s.firstEscape = s.frames
		}
		s.escapes++
	}
	s.frames++
}

func (s *Stability) escaped(snap sim.Snapshot) bool {
	for i, p := range snap.Positions {
		if !linalg.IsFiniteVec(p) {
			return true
		}
		if !hasFiniteMass(snap, i) {
			continue
		}
		if p.Sub(s.center).LenSqr() > s.radius2 {
			return true
		}
	}
	return false
}

func (s *Stability) Value() float64 {
	if s.frames == 0 {
		return 1
	}
	return 1 - float64(s.escapes)/float64(s.frames)
}

// FirstEscape is the index of the first observed frame that left the
// bound, or -1.
func (s *Stability) FirstEscape() int { return s.firstEscape }

func (s *Stability) Reset() {
	s.escapes, s.frames = 0, 0
	s.firstEscape = -1
}
