package config

import (
	"fmt"
	"slices"
)

// params maps the sweepable scalar fields to setters. Integer fields are
// truncated.
var params = map[string]func(*Config, float64){
	"damping":     func(c *Config, v float64) { c.Damping = v },
	"restitution": func(c *Config, v float64) { c.Restitution = v },
	"stiffness":   func(c *Config, v float64) { c.Stiffness = v },
	"spacing":     func(c *Config, v float64) { c.Spacing = v },
	"radius":      func(c *Config, v float64) { c.Radius = v },
	"mass":        func(c *Config, v float64) { c.Mass = v },
	"height":      func(c *Config, v float64) { c.Height = v },
	"dt":          func(c *Config, v float64) { c.Dt = v },
	"iterations":  func(c *Config, v float64) { c.Iterations = int(v) },
	"count":       func(c *Config, v float64) { c.Count = int(v) },
	"gravity":     func(c *Config, v float64) { c.Gravity[1] = -v },
}

// SetParam sets a scalar field by name. gravity sets the downward
// acceleration along y.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalid, name)
	}
	set(c, v)
	return nil
}

// ParamNames lists the names SetParam accepts, sorted.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
