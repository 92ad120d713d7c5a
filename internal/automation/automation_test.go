package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/physim/internal/config"
	"github.com/san-kum/physim/internal/scenario"
	"github.com/san-kum/physim/internal/storage"
)

const script = `
name: smoke
description: short runs of two scenarios
steps:
  - name: drop
    scenario: drop
    frames: 30
    save: true
  - scenario: bounce
    preset: dead
    frames: 20
    seed: 7
    params:
      restitution: 0.25
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "smoke" || len(s.Steps) != 2 {
		t.Fatalf("unexpected script %+v", s)
	}
	if s.Steps[1].Seed == nil || *s.Steps[1].Seed != 7 {
		t.Error("seed not parsed")
	}

	if _, err := LoadScript(writeScript(t, "name: empty\n")); err == nil {
		t.Error("expected error for a script without steps")
	}
	if _, err := LoadScript(writeScript(t, "steps: [oops")); err == nil {
		t.Error("expected parse error")
	}
}

func TestStepResolve(t *testing.T) {
	seed := int64(3)
	cfg, err := Step{Scenario: "bounce", Preset: "dead", Frames: 10, Seed: &seed, Params: map[string]float64{"stiffness": 0.5}}.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	want := config.GetPreset("bounce", "dead")
	if cfg.Restitution != want.Restitution || cfg.Frames != 10 || cfg.Seed != 3 || cfg.Stiffness != 0.5 {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := (Step{Scenario: "bounce", Preset: "nope"}).Resolve(); err == nil {
		t.Error("expected unknown preset error")
	}
	if _, err := (Step{Params: map[string]float64{"warp": 1}}).Resolve(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestRunnerRun(t *testing.T) {
	s, err := LoadScript(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := NewRunner(scenario.NewRegistry(), st).Run(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].RunID == "" || results[1].RunID != "" {
		t.Errorf("only the first step should be saved: %q %q", results[0].RunID, results[1].RunID)
	}
	if results[1].Name != "step2" || results[1].Config.Restitution != 0.25 {
		t.Errorf("unexpected second step %+v", results[1].Config)
	}
	if results[0].Result.FramesRun != 30 {
		t.Errorf("frames run = %d", results[0].Result.FramesRun)
	}

	runs, err := st.List()
	if err != nil || len(runs) != 1 || runs[0].ID != results[0].RunID {
		t.Errorf("stored runs = %v, %v", runs, err)
	}
}

func TestRunnerStopsOnFailure(t *testing.T) {
	s := &Script{Steps: []Step{
		{Scenario: "drop", Frames: 5},
		{Scenario: "volcano", Frames: 5},
		{Scenario: "drop", Frames: 5},
	}}

	results, err := NewRunner(scenario.NewRegistry(), nil).Run(context.Background(), s)
	if !errors.Is(err, scenario.ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected the completed step only, got %d", len(results))
	}
}
