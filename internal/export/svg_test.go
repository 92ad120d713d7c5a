package export

import (
	"strings"
	"testing"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/storage"
	"github.com/san-kum/physim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 2) != "" {
		t.Error("nil canvas should render nothing")
	}

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	out := CanvasToSVG(c, 2)
	if got := strings.Count(out, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if !strings.Contains(out, `width="8" height="8"`) {
		t.Error("expected an 8x8 image")
	}
	if !strings.Contains(out, `cx="1.0" cy="1.0"`) || !strings.Contains(out, `cx="7.0" cy="7.0"`) {
		t.Errorf("unexpected dot positions:\n%s", out)
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	traj := &storage.Trajectory{
		Times: []float64{0, 1, 2},
		Positions: [][]linalg.Vec3{
			{{0, 0, 0}, {1, 1, 0}},
			{{1, 0, 0}, {1, 2, 0}},
			{{2, 0, 0}, {1, 3, 0}},
		},
	}

	out := TrajectoryToSVG(traj, 100, 50)
	if got := strings.Count(out, "<path"); got != 2 {
		t.Errorf("expected a path per entity, got %d", got)
	}
	for _, color := range Palette[:2] {
		if !strings.Contains(out, color) {
			t.Errorf("missing stroke %s", color)
		}
	}
	if !strings.HasSuffix(out, "</svg>") {
		t.Error("svg not closed")
	}
}

func TestTrajectoryToSVG_TooShort(t *testing.T) {
	traj := &storage.Trajectory{
		Times:     []float64{0},
		Positions: [][]linalg.Vec3{{{0, 0, 0}}},
	}
	if TrajectoryToSVG(traj, 10, 10) != "" || TrajectoryToSVG(nil, 10, 10) != "" {
		t.Error("expected empty output")
	}
}
