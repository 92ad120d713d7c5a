package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Driver runs a System frame by frame, feeding metrics and observers.
type Driver struct {
	sys       System
	metrics   []Metric
	observers []Observer
	logger    *log.Logger
}

func New(sys System) *Driver {
	return &Driver{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.New(io.Discard),
	}
}

func (d *Driver) AddMetric(m Metric)           { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer)       { d.observers = append(d.observers, o) }
func (d *Driver) SetLogger(logger *log.Logger) { d.logger = logger }

// Run steps the system cfg.Frames times. Snapshots are recorded before the
// first frame and after every frame. A physics error ends the run and is
// returned wrapped in a FrameError together with the partial result.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Snapshots: make([]Snapshot, 0, cfg.Frames+1),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	t := 0.0
	snap := d.observe(t)
	result.Snapshots = append(result.Snapshots, snap)
	d.notify(0, snap)

	d.logger.Debug("run started", "dt", cfg.Dt, "frames", cfg.Frames, "entities", snap.Len())

	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			d.logger.Warn("run canceled", "frame", i)
			d.finish(result)
			return result, ctx.Err()
		default:
		}

		d.sys.PrepareFrame()
		if err := d.sys.RunPhysics(cfg.Dt); err != nil {
			ferr := &FrameError{Frame: i, Time: t, Wrapped: err}
			result.Errors = append(result.Errors, ferr)
			d.finish(result)
			return result, ferr
		}
		t += cfg.Dt

		snap = d.observe(t)
		if cfg.ValidateState && !snap.IsValid() {
			result.Errors = append(result.Errors, &FrameError{Frame: i, Time: t, Wrapped: ErrInvalidState})
			d.logger.Error("state diverged", "frame", i, "t", t)
			break
		}
		result.FramesRun++
		result.Snapshots = append(result.Snapshots, snap)
		d.notify(i+1, snap)
	}

	d.finish(result)
	d.logger.Debug("run finished", "frames", result.FramesRun, "errors", len(result.Errors))
	return result, nil
}

// RunWithCallback steps the system until the callback returns false, the
// context ends or cfg.Frames frames have run. Nothing is recorded.
func (d *Driver) RunWithCallback(ctx context.Context, cfg Config, callback func(frame int, s Snapshot) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	t := 0.0
	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(i, d.observe(t)) {
			return nil
		}

		d.sys.PrepareFrame()
		if err := d.sys.RunPhysics(cfg.Dt); err != nil {
			return &FrameError{Frame: i, Time: t, Wrapped: err}
		}
		t += cfg.Dt
	}
	return nil
}

func (d *Driver) observe(t float64) Snapshot {
	s := d.sys.Observe()
	s.Time = t
	return s
}

func (d *Driver) notify(frame int, s Snapshot) {
	for _, m := range d.metrics {
		m.Observe(s)
	}
	for _, o := range d.observers {
		o.OnFrame(frame, s)
	}
}

func (d *Driver) finish(result *Result) {
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, cfg.Frames)
	}
	return nil
}
