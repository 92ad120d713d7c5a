package metrics

import (
	"math"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/sim"
)

// KineticEnergy is the mean total kinetic energy over all observed frames.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s sim.Snapshot) {
	k.total += kinetic(s)
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}

// EnergyDrift tracks the largest relative change of mechanical energy
// (kinetic plus potential in a uniform gravity field) from the first frame.
type EnergyDrift struct {
	name          string
	gravity       linalg.Vec3
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity linalg.Vec3) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", gravity: gravity}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s sim.Snapshot) {
	energy := kinetic(s) + potential(s, e.gravity)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// kinetic skips immovable entities.
func kinetic(s sim.Snapshot) float64 {
	var ke float64
	for i, v := range s.Velocities {
		m := mass(s, i)
		if math.IsInf(m, 1) {
			continue
		}
		ke += 0.5 * m * v.LenSqr()
	}
	return ke
}

func potential(s sim.Snapshot, g linalg.Vec3) float64 {
	var pe float64
	for i, p := range s.Positions {
		m := mass(s, i)
		if math.IsInf(m, 1) {
			continue
		}
		pe -= m * linalg.Dot(g, p)
	}
	return pe
}

// mass defaults to 1 when the snapshot carries no masses.
func mass(s sim.Snapshot, i int) float64 {
	if i < len(s.Masses) {
		return s.Masses[i]
	}
	return 1
}

func hasFiniteMass(s sim.Snapshot, i int) bool {
	return !math.IsInf(mass(s, i), 1)
}
