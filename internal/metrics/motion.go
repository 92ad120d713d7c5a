package metrics

import (
	"math"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/sim"
)

// MaxSpeed is the highest speed of any entity over the run.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(s sim.Snapshot) {
	for _, v := range s.Velocities {
		m.max = math.Max(m.max, v.Len())
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

// MinHeight is the lowest y coordinate reached by any movable entity. It
// catches particles tunnelling through floors.
type MinHeight struct {
	min  float64
	seen bool
}

func NewMinHeight() *MinHeight { return &MinHeight{} }

func (m *MinHeight) Name() string { return "min_height" }

func (m *MinHeight) Observe(s sim.Snapshot) {
	for i, p := range s.Positions {
		if math.IsInf(mass(s, i), 1) {
			continue
		}
		if !m.seen || p[1] < m.min {
			m.min = p[1]
			m.seen = true
		}
	}
}

func (m *MinHeight) Value() float64 { return m.min }

func (m *MinHeight) Reset() {
	m.min = 0
	m.seen = false
}

// stabilityRadius bounds the region a scenario is expected to stay in.
const stabilityRadius = 1e3

// Defaults returns the metrics recorded for every run.
func Defaults(gravity linalg.Vec3) []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(gravity),
		NewMaxSpeed(),
		NewMinHeight(),
		NewStability(linalg.Zero, stabilityRadius),
	}
}
