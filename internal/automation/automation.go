// Package automation runs scripted sequences of scenario runs described in
// YAML.
package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/physim/internal/config"
	"github.com/san-kum/physim/internal/sim"
)

// Script is a named list of runs.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single run. The configuration is layered like the CLI: the
// scenario defaults, then Preset, then Config, then the explicit fields.
type Step struct {
	Name     string             `yaml:"name"`
	Scenario string             `yaml:"scenario"`
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Dt       float64            `yaml:"dt"`
	Frames   int                `yaml:"frames"`
	Seed     *int64             `yaml:"seed"`
	Params   map[string]float64 `yaml:"params"`
	// Save stores the run when a Saver is configured.
	Save bool `yaml:"save"`
}

// Builder constructs systems; *scenario.Registry satisfies it.
type Builder interface {
	Build(cfg *config.Config) (sim.System, error)
	DefaultMetrics(cfg *config.Config) []sim.Metric
}

// Saver persists a run; *storage.Store satisfies it.
type Saver interface {
	Save(cfg *config.Config, result *sim.Result) (string, error)
}

// StepResult is the outcome of one step. RunID is empty for unsaved steps.
type StepResult struct {
	Name   string
	RunID  string
	Config *config.Config
	Result *sim.Result
}

// LoadScript loads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("%s: script has no steps", path)
	}
	return &script, nil
}

// Resolve builds the configuration for a step.
func (s Step) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Scenario != "" {
		cfg.Scenario = s.Scenario
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Scenario, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s for %s", s.Preset, cfg.Scenario)
		}
		cfg = p
	}
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		if s.Scenario != "" {
			loaded.Scenario = s.Scenario
		}
		cfg = loaded
	}

	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if s.Frames != 0 {
		cfg.Frames = s.Frames
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// Runner executes scripts.
type Runner struct {
	builder Builder
	saver   Saver
	logger  *log.Logger
}

// NewRunner returns a runner. saver may be nil, in which case no step is
// stored.
func NewRunner(builder Builder, saver Saver) *Runner {
	return &Runner{builder: builder, saver: saver, logger: log.New(io.Discard)}
}

func (r *Runner) SetLogger(logger *log.Logger) { r.logger = logger }

// Run executes every step in order and stops at the first failure,
// returning the results of the steps that completed.
func (r *Runner) Run(ctx context.Context, script *Script) ([]StepResult, error) {
	results := make([]StepResult, 0, len(script.Steps))

	for i, step := range script.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		r.logger.Info("running step", "step", fmt.Sprintf("%d/%d", i+1, len(script.Steps)), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		sys, err := r.builder.Build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		d := sim.New(sys)
		d.SetLogger(r.logger)
		for _, m := range r.builder.DefaultMetrics(cfg) {
			d.AddMetric(m)
		}

		result, err := d.Run(ctx, sim.Config{Dt: cfg.Dt, Frames: cfg.Frames, ValidateState: true})
		if err != nil {
			return results, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
		}

		sr := StepResult{Name: name, Config: cfg, Result: result}
		if step.Save && r.saver != nil {
			if sr.RunID, err = r.saver.Save(cfg, result); err != nil {
				return results, fmt.Errorf("step %d (%s) save: %w", i+1, name, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}
