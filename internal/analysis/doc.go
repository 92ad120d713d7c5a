// Package analysis provides post-run analysis of stored trajectories.
//
//   - [PowerSpectrum], [DominantFrequency]: oscillation content of one
//     coordinate, via the go-dsp FFT
//   - [SeparationExponent]: growth rate of the distance between two runs
//     started from nearby states
//   - [NewPhasePortrait], [NewPoincareSection]: 2D phase views with an
//     ASCII renderer
//
// # Sensitivity
//
// A positive separation exponent means small differences in the initial
// layout grow exponentially, as in a collapsing pile:
//
//	lambda, err := analysis.SeparationExponent(a.Times, a.Positions, b.Positions)
//	if err == nil && lambda > 0 {
//	    // runs diverge
//	}
package analysis
