package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/sim"
)

type stillSystem struct{ pos linalg.Vec3 }

func (s *stillSystem) PrepareFrame()              {}
func (s *stillSystem) RunPhysics(dt float64) error { return nil }
func (s *stillSystem) Observe() sim.Snapshot {
	return sim.Snapshot{Positions: []linalg.Vec3{s.pos}, Velocities: []linalg.Vec3{linalg.Zero}}
}

// heightMetric reports the last observed y coordinate.
type heightMetric struct{ y float64 }

func (h *heightMetric) Name() string            { return "height" }
func (h *heightMetric) Observe(s sim.Snapshot) { h.y = s.Positions[0][1] }
func (h *heightMetric) Value() float64          { return h.y }
func (h *heightMetric) Reset()                  { h.y = 0 }

func TestNewGridSearch(t *testing.T) {
	if _, err := NewGridSearch([]string{"a"}, nil); err == nil {
		t.Error("expected mismatch error")
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}); err == nil {
		t.Error("expected empty range error")
	}
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2, 3}, {4, 5}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 6 {
		t.Errorf("size = %d, want 6", g.Size())
	}
}

func TestSearch(t *testing.T) {
	g, _ := NewGridSearch([]string{"x", "y"}, [][]float64{{-1, 0, 1}, {3, -2, 5}})

	build := func(p map[string]float64) (sim.System, []sim.Metric, error) {
		// (x-0.4)^2 + y, minimized at x=0, y=-2
		v := (p["x"]-0.4)*(p["x"]-0.4) + p["y"]
		return &stillSystem{pos: linalg.Vec3{0, v, 0}}, []sim.Metric{&heightMetric{}}, nil
	}

	best, val, outcomes, err := g.Search(context.Background(), build, sim.Config{Dt: 0.1, Frames: 2}, "height")
	if err != nil {
		t.Fatal(err)
	}
	if best["x"] != 0 || best["y"] != -2 {
		t.Errorf("best = %v", best)
	}
	if math.Abs(val-(0.16-2)) > 1e-12 {
		t.Errorf("value = %f", val)
	}
	if len(outcomes) != 6 {
		t.Errorf("outcomes = %d, want 6", len(outcomes))
	}
}

func TestSearch_SkipsFailures(t *testing.T) {
	g, _ := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	boom := errors.New("boom")

	build := func(p map[string]float64) (sim.System, []sim.Metric, error) {
		if p["x"] == 1 {
			return nil, nil, boom
		}
		return &stillSystem{pos: linalg.Vec3{0, 7, 0}}, []sim.Metric{&heightMetric{}}, nil
	}

	best, val, outcomes, err := g.Search(context.Background(), build, sim.Config{Dt: 0.1, Frames: 1}, "height")
	if err != nil {
		t.Fatal(err)
	}
	if best["x"] != 2 || val != 7 {
		t.Errorf("best = %v (%f)", best, val)
	}
	if !errors.Is(outcomes[0].Err, boom) {
		t.Errorf("first outcome error = %v", outcomes[0].Err)
	}

	_, _, _, err = g.Search(context.Background(), build, sim.Config{Dt: 0.1, Frames: 1}, "missing")
	if !errors.Is(err, ErrNoCandidate) {
		t.Errorf("expected ErrNoCandidate, got %v", err)
	}
}

func TestSearch_Canceled(t *testing.T) {
	g, _ := NewGridSearch([]string{"x"}, [][]float64{{1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	build := func(map[string]float64) (sim.System, []sim.Metric, error) {
		t.Fatal("build should not be called")
		return nil, nil, nil
	}
	if _, _, _, err := g.Search(ctx, build, sim.Config{Dt: 0.1, Frames: 1}, "height"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
