package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/physim/internal/linalg"
)

var (
	// ErrInvalidConfig is returned for a non-positive dt or frame count.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrInvalidState indicates a snapshot containing NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")
)

// Stepper is a physics world driven one frame at a time.
type Stepper interface {
	PrepareFrame()
	RunPhysics(dt float64) error
}

// System is a Stepper whose tracked entities can be observed.
type System interface {
	Stepper
	Observe() Snapshot
}

// Snapshot is the observable state of the tracked entities at one instant.
// Masses are +Inf for immovable entities.
type Snapshot struct {
	Time       float64
	Positions  []linalg.Vec3
	Velocities []linalg.Vec3
	Masses     []float64
}

func (s Snapshot) Clone() Snapshot {
	c := Snapshot{Time: s.Time}
	c.Positions = append([]linalg.Vec3(nil), s.Positions...)
	c.Velocities = append([]linalg.Vec3(nil), s.Velocities...)
	c.Masses = append([]float64(nil), s.Masses...)
	return c
}

func (s Snapshot) Len() int { return len(s.Positions) }

func (s Snapshot) IsValid() bool {
	for i := range s.Positions {
		if !linalg.IsFiniteVec(s.Positions[i]) {
			return false
		}
	}
	for i := range s.Velocities {
		if !linalg.IsFiniteVec(s.Velocities[i]) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(frame int, s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(frame int, s Snapshot)

func (f ObserverFunc) OnFrame(frame int, s Snapshot) { f(frame, s) }

type Config struct {
	Dt     float64
	Frames int
	// ValidateState stops the run at the first non-finite snapshot.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{Dt: 1.0 / 60, Frames: 600, ValidateState: true}
}

// Duration is the simulated time covered by the configured frames.
func (c Config) Duration() float64 { return c.Dt * float64(c.Frames) }

type Result struct {
	Snapshots []Snapshot
	Metrics   map[string]float64
	FramesRun int
	Errors    []error
}

// Times returns the timestamps of the recorded snapshots.
func (r *Result) Times() []float64 {
	ts := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		ts[i] = s.Time
	}
	return ts
}

// Series returns one coordinate of one entity across the run.
func (r *Result) Series(entity, axis int) []float64 {
	out := make([]float64, 0, len(r.Snapshots))
	for _, s := range r.Snapshots {
		if entity < len(s.Positions) {
			out = append(out, s.Positions[entity][axis])
		}
	}
	return out
}

// FrameError wraps an error with the frame it occurred on.
type FrameError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
