package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/physim/internal/linalg"
)

// ErrSameStart is returned when two runs cannot be told apart initially.
var ErrSameStart = errors.New("analysis: runs start from the same state")

// SeparationExponent estimates how fast two runs of the same scenario
// drift apart. It fits ln(d(t)/d(0)) against t by least squares, where
// d is the distance between the stacked entity positions of the runs. A
// positive value indicates sensitive dependence on the initial layout.
func SeparationExponent(times []float64, a, b [][]linalg.Vec3) (float64, error) {
	n := min(len(times), len(a), len(b))
	if n < 2 {
		return 0, ErrTooShort
	}

	d0 := separation(a[0], b[0])
	if d0 == 0 {
		return 0, ErrSameStart
	}

	var sumT, sumL, sumTT, sumTL float64
	count := 0
	for i := 1; i < n; i++ {
		sep := separation(a[i], b[i])
		if sep == 0 {
			continue
		}
		t, l := times[i]-times[0], math.Log(sep/d0)
		sumT += t
		sumL += l
		sumTT += t * t
		sumTL += t * l
		count++
	}
	if count < 2 {
		return 0, ErrTooShort
	}

	c := float64(count)
	denom := c*sumTT - sumT*sumT
	if denom == 0 {
		return 0, ErrTooShort
	}
	return (c*sumTL - sumT*sumL) / denom, nil
}

func separation(a, b []linalg.Vec3) float64 {
	sum := 0.0
	for i := range min(len(a), len(b)) {
		d := a[i].Sub(b[i])
		sum += linalg.Dot(d, d)
	}
	return math.Sqrt(sum)
}
