// Package optim searches scenario parameters for the lowest metric value.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physim/internal/sim"
)

// ErrNoCandidate is returned when every grid point failed to build or run.
var ErrNoCandidate = errors.New("optim: no candidate completed")

// Build creates a system and its metrics for one grid point.
type Build func(params map[string]float64) (sim.System, []sim.Metric, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Outcome is the result of one grid point.
type Outcome struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs every grid point for cfg and returns the parameters with the
// smallest value of metricName. Points that fail to build or run, or do not
// report the metric, are skipped and recorded in the outcomes.
func (g *GridSearch) Search(ctx context.Context, build Build, cfg sim.Config, metricName string) (map[string]float64, float64, []Outcome, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	outcomes := make([]Outcome, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		o := Outcome{Params: params, Value: math.NaN()}
		o.Value, o.Err = run(ctx, build, params, cfg, metricName)
		outcomes = append(outcomes, o)
		if o.Err == nil && o.Value < best {
			best = o.Value
			bestParams = params
		}
	})
	if err != nil {
		return nil, 0, outcomes, err
	}
	if bestParams == nil {
		return nil, 0, outcomes, ErrNoCandidate
	}
	return bestParams, best, outcomes, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, build Build, params map[string]float64, cfg sim.Config, metricName string) (float64, error) {
	sys, metrics, err := build(params)
	if err != nil {
		return math.NaN(), err
	}

	d := sim.New(sys)
	for _, m := range metrics {
		d.AddMetric(m)
	}
	result, err := d.Run(ctx, cfg)
	if err != nil {
		return math.NaN(), err
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		return math.NaN(), fmt.Errorf("optim: metric %q not reported", metricName)
	}
	return val, nil
}
