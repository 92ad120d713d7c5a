package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/physim/internal/linalg"
)

// ErrInvalid is wrapped by Validate.
var ErrInvalid = errors.New("config: invalid")

const (
	DefaultDt          = 1.0 / 60
	DefaultFrames      = 600
	DefaultIterations  = 4
	DefaultCount       = 5
	DefaultSpacing     = 0.5
	DefaultRadius      = 0.25
	DefaultMass        = 1.0
	DefaultRestitution = 0.5
	DefaultStiffness   = 1.0
)

type Config struct {
	Scenario    string      `yaml:"scenario"`
	Dt          float64     `yaml:"dt"`
	Frames      int         `yaml:"frames"`
	Seed        int64       `yaml:"seed"`
	Iterations  int         `yaml:"iterations"`
	Gravity     linalg.Vec3 `yaml:"gravity"`
	Damping     float64     `yaml:"damping"`
	Restitution float64     `yaml:"restitution"`
	Stiffness   float64     `yaml:"stiffness"`
	Count       int         `yaml:"count"`
	Spacing     float64     `yaml:"spacing"`
	Radius      float64     `yaml:"radius"`
	Mass        float64     `yaml:"mass"`
	Height      float64     `yaml:"height"`
	Plane       PlaneConfig `yaml:"plane"`
	// Particles, when set, replaces the scenario's generated layout.
	Particles []ParticleConfig `yaml:"particles,omitempty"`
}

type PlaneConfig struct {
	Normal linalg.Vec3 `yaml:"normal"`
	Offset float64     `yaml:"offset"`
}

type ParticleConfig struct {
	Pos    linalg.Vec3 `yaml:"pos"`
	Vel    linalg.Vec3 `yaml:"vel"`
	Mass   float64     `yaml:"mass"`
	Radius float64     `yaml:"radius"`
	// Fixed particles get infinite mass.
	Fixed bool `yaml:"fixed"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:    "drop",
		Dt:          DefaultDt,
		Frames:      DefaultFrames,
		Iterations:  DefaultIterations,
		Gravity:     linalg.Vec3{0, -9.8, 0},
		Damping:     0.999,
		Restitution: DefaultRestitution,
		Stiffness:   DefaultStiffness,
		Count:       DefaultCount,
		Spacing:     DefaultSpacing,
		Radius:      DefaultRadius,
		Mass:        DefaultMass,
		Height:      2,
		Plane: PlaneConfig{
			Normal: linalg.Up,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first field that cannot drive a simulation.
func (c *Config) Validate() error {
	switch {
	case c.Scenario == "":
		return fmt.Errorf("%w: scenario is empty", ErrInvalid)
	case !(c.Dt > 0) || !linalg.IsFinite(c.Dt):
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Dt)
	case c.Frames <= 0:
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalid, c.Frames)
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalid, c.Iterations)
	case c.Count < 0:
		return fmt.Errorf("%w: count must not be negative, got %d", ErrInvalid, c.Count)
	case c.Damping < 0 || c.Damping > 1:
		return fmt.Errorf("%w: damping must be in [0,1], got %v", ErrInvalid, c.Damping)
	case c.Restitution < 0 || c.Restitution > 1:
		return fmt.Errorf("%w: restitution must be in [0,1], got %v", ErrInvalid, c.Restitution)
	case c.Stiffness < 0 || c.Stiffness > 1:
		return fmt.Errorf("%w: stiffness must be in [0,1], got %v", ErrInvalid, c.Stiffness)
	case c.Radius < 0:
		return fmt.Errorf("%w: radius must not be negative, got %v", ErrInvalid, c.Radius)
	case !(c.Mass > 0):
		return fmt.Errorf("%w: mass must be positive, got %v", ErrInvalid, c.Mass)
	case c.Plane.Normal.Len() == 0:
		return fmt.Errorf("%w: plane normal is zero", ErrInvalid)
	}
	for i, p := range c.Particles {
		if !p.Fixed && !(p.Mass > 0) {
			return fmt.Errorf("%w: particle %d: mass must be positive, got %v", ErrInvalid, i, p.Mass)
		}
	}
	return nil
}

// Duration is the simulated time the configuration covers.
func (c *Config) Duration() float64 {
	return c.Dt * float64(c.Frames)
}

// Clone returns a deep copy, so presets can be overridden by flags.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Particles = append([]ParticleConfig(nil), c.Particles...)
	return &cp
}
