package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// ErrTooShort is returned when a series has too few samples to analyse.
var ErrTooShort = errors.New("analysis: series too short")

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data after removing its mean. Bin k corresponds to k/(len(data)*dt) Hz.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	spectrum := fft.FFTReal(detrend(data))
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// bin of a series sampled every dt seconds, with its magnitude.
func DominantFrequency(data []float64, dt float64) (freq, power float64, err error) {
	if len(data) < 4 {
		return 0, 0, ErrTooShort
	}
	ps := PowerSpectrum(data)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) / (float64(len(data)) * dt), ps[best], nil
}

func detrend(data []float64) []float64 {
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}
