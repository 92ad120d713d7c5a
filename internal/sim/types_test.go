package sim

import (
	"math"
	"testing"

	"github.com/san-kum/physim/internal/linalg"
)

func TestSnapshot_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		snap  Snapshot
		valid bool
	}{
		{"empty", Snapshot{}, true},
		{"normal", Snapshot{Positions: []linalg.Vec3{{1, 2, 3}}, Velocities: []linalg.Vec3{{0, 1, 0}}}, true},
		{"NaN position", Snapshot{Positions: []linalg.Vec3{{math.NaN(), 0, 0}}}, false},
		{"+Inf velocity", Snapshot{Velocities: []linalg.Vec3{{0, math.Inf(1), 0}}}, false},
		{"-Inf position", Snapshot{Positions: []linalg.Vec3{{0, 0, math.Inf(-1)}}}, false},
		{"infinite mass", Snapshot{Positions: []linalg.Vec3{{0, 0, 0}}, Masses: []float64{math.Inf(1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestSnapshot_Clone(t *testing.T) {
	s := Snapshot{Time: 1, Positions: []linalg.Vec3{{1, 2, 3}}, Velocities: []linalg.Vec3{{4, 5, 6}}, Masses: []float64{2}}
	c := s.Clone()

	c.Positions[0][0] = 99
	c.Masses[0] = 7
	if s.Positions[0][0] == 99 || s.Masses[0] == 7 {
		t.Error("Clone did not create an independent copy")
	}
	if c.Time != 1 || c.Len() != 1 {
		t.Errorf("unexpected clone %+v", c)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("DefaultConfig has invalid Dt")
	}
	if cfg.Frames <= 0 {
		t.Error("DefaultConfig has invalid Frames")
	}
	if math.Abs(cfg.Duration()-10) > 1e-9 {
		t.Errorf("expected 10s default duration, got %f", cfg.Duration())
	}
}

func TestFrameError(t *testing.T) {
	err := &FrameError{Time: 1.5, Frame: 150, Wrapped: ErrInvalidState}
	expected := "frame 150 (t=1.5000): sim: invalid state (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("FrameError.Error() = %q, want %q", err.Error(), expected)
	}
}
