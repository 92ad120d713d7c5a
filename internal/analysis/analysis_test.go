package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/physim/internal/linalg"
)

func sine(freq, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		n    int
	}{
		{"power of two", 2, 512},
		{"arbitrary length", 2, 500},
		{"slow", 0.5, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := 0.01
			freq, power, err := DominantFrequency(sine(tt.freq, dt, tt.n), dt)
			if err != nil {
				t.Fatal(err)
			}
			resolution := 1 / (float64(tt.n) * dt)
			if math.Abs(freq-tt.freq) > resolution {
				t.Errorf("frequency = %f, want %f ± %f", freq, tt.freq, resolution)
			}
			if power <= 0 {
				t.Error("expected positive power")
			}
		})
	}
}

func TestDominantFrequency_TooShort(t *testing.T) {
	if _, _, err := DominantFrequency([]float64{1, 2}, 0.1); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestPowerSpectrum_RemovesMean(t *testing.T) {
	ps := PowerSpectrum([]float64{5, 5, 5, 5, 5, 5, 5, 5})
	for k, v := range ps {
		if v > 1e-12 {
			t.Errorf("bin %d = %f, want 0 for a constant series", k, v)
		}
	}
	if len(ps) != 5 {
		t.Errorf("expected 5 bins, got %d", len(ps))
	}
}

func TestSeparationExponent(t *testing.T) {
	const rate = 0.8
	var times []float64
	var a, b [][]linalg.Vec3
	for i := 0; i < 50; i++ {
		ti := float64(i) * 0.1
		times = append(times, ti)
		a = append(a, []linalg.Vec3{{0, 0, 0}})
		b = append(b, []linalg.Vec3{{1e-3 * math.Exp(rate*ti), 0, 0}})
	}

	got, err := SeparationExponent(times, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-rate) > 1e-9 {
		t.Errorf("exponent = %f, want %f", got, rate)
	}
}

func TestSeparationExponent_Errors(t *testing.T) {
	same := [][]linalg.Vec3{{{1, 0, 0}}, {{2, 0, 0}}, {{3, 0, 0}}}
	if _, err := SeparationExponent([]float64{0, 1, 2}, same, same); !errors.Is(err, ErrSameStart) {
		t.Errorf("expected ErrSameStart, got %v", err)
	}
	if _, err := SeparationExponent([]float64{0}, same, same); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestVelocity(t *testing.T) {
	// y = t², dy/dt = 2t; central differences are exact for quadratics
	dt := 0.5
	series := []float64{0, 0.25, 1, 2.25}
	got := Velocity(series, dt)
	want := []float64{0.5, 1, 2, 2.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("v[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestPoincareSection(t *testing.T) {
	cross := []float64{-1, 1, -1, 3}
	xs := []float64{0, 10, 0, 20}
	ys := []float64{0, 2, 0, 4}

	s := NewPoincareSection(cross, xs, ys, 0)
	if len(s.Points) != 2 {
		t.Fatalf("expected 2 crossings, got %v", s.Points)
	}
	if s.Points[0] != (Point{5, 1}) {
		t.Errorf("first crossing = %v, want {5 1}", s.Points[0])
	}
	if s.Points[1] != (Point{5, 1}) {
		t.Errorf("second crossing = %v, want {5 1}", s.Points[1])
	}
}

func TestPhasePortraitToASCII(t *testing.T) {
	p := NewPhasePortrait([]float64{-1, 0, 1}, []float64{1, 0, -1})
	out := PhasePortraitToASCII(p, 20, 10)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	if strings.Count(out, "•") != 3 {
		t.Errorf("expected 3 points plotted:\n%s", out)
	}

	if PoincareSectionToASCII(&PoincareSection{}, 10, 5) != "No crossings detected" {
		t.Error("expected placeholder for empty section")
	}
}
