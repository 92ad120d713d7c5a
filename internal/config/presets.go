package config

import (
	"slices"

	"github.com/san-kum/physim/internal/linalg"
)

func preset(scenario string, apply func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Scenario = scenario
	apply(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"drop": {
		"single": preset("drop", func(c *Config) { c.Count = 1; c.Height = 3 }),
		"row":    preset("drop", func(c *Config) { c.Count = 8; c.Spacing = 0.75 }),
		"soft":   preset("drop", func(c *Config) { c.Count = 3; c.Stiffness = 0.3 }),
	},
	"rope": {
		"short": preset("rope", func(c *Config) { c.Count = 6 }),
		"long":  preset("rope", func(c *Config) { c.Count = 20; c.Spacing = 0.25; c.Iterations = 12 }),
		"limp":  preset("rope", func(c *Config) { c.Count = 10; c.Stiffness = 0.2 }),
	},
	"pile": {
		"small": preset("pile", func(c *Config) { c.Count = 8 }),
		"large": preset("pile", func(c *Config) { c.Count = 40; c.Iterations = 8; c.Frames = 900 }),
	},
	"bounce": {
		"elastic": preset("bounce", func(c *Config) { c.Count = 1; c.Restitution = 1; c.Height = 4 }),
		"dead":    preset("bounce", func(c *Config) { c.Count = 1; c.Restitution = 0 }),
		"crowd":   preset("bounce", func(c *Config) { c.Count = 10; c.Spacing = 0.4 }),
	},
	"bridge": {
		"cables": preset("bridge", func(c *Config) { c.Count = 8 }),
		"long":   preset("bridge", func(c *Config) { c.Count = 16; c.Spacing = 0.4; c.Frames = 1200 }),
	},
	"spring": {
		"gentle": preset("spring", func(c *Config) { c.Stiffness = 0.2; c.Height = 1 }),
		"stiff":  preset("spring", func(c *Config) { c.Stiffness = 1; c.Height = 0.5; c.Dt = 1.0 / 240; c.Frames = 2400 }),
	},
	"spheres": {
		"collide": preset("spheres", func(c *Config) { c.Count = 2; c.Restitution = 1; c.Gravity = linalg.Zero }),
		"stack":   preset("spheres", func(c *Config) { c.Count = 4; c.Restitution = 0.2 }),
	},
}

func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names for scenario in sorted order.
func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
