package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/physim/internal/analysis"
	"github.com/san-kum/physim/internal/automation"
	"github.com/san-kum/physim/internal/config"
	"github.com/san-kum/physim/internal/export"
	"github.com/san-kum/physim/internal/optim"
	"github.com/san-kum/physim/internal/scenario"
	"github.com/san-kum/physim/internal/sim"
	"github.com/san-kum/physim/internal/storage"
	"github.com/san-kum/physim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	dt         float64
	frames     int
	seed       int64
	iterations int
	configFile string
	preset     string
	// plot and analysis selection
	entity  int
	axis    int
	compare string
	svgFile string
	runs    int
	// sweep
	sweepParams []string
	metricName  string

	logger   = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "physim"})
	registry = scenario.NewRegistry()
)

// main registers the commands and flags, opens the scenario menu when no
// subcommand is given and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "physim",
		Short: "particle, rigid body and constraint physics lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			registry.SetLogger(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".physim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store its trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one coordinate of an entity over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addSelectFlags(plotCmd)

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "position against velocity for one coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	addSelectFlags(phaseCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis, optionally against a second run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	addSelectFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&compare, "compare", "", "run id to measure divergence against")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and trajectory as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also write the x/y paths to this SVG file")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the stored trajectory CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range registry.List() {
				fmt.Fprintf(w, "%s\t%s\n", name, registry.Describe(name))
			}
			return w.Flush()
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "benchmark a scenario across timesteps and seeds",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 4, "concurrent runs per timestep")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "grid search scenario parameters for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScenario,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "energy_drift", "metric to minimize")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a YAML script of scenario runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportCmd, exportCSVCmd, presetsCmd, scenariosCmd, liveCmd, benchCmd, sweepCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "solver iterations")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func addSelectFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&entity, "entity", 0, "entity index")
	cmd.Flags().IntVar(&axis, "axis", 1, "coordinate (0=x, 1=y, 2=z)")
}

// resolveConfig layers defaults, a preset, a config file and explicitly
// set flags, in that order. A config file replaces the preset.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Scenario = args[0]
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func driverConfig(cfg *config.Config) sim.Config {
	return sim.Config{Dt: cfg.Dt, Frames: cfg.Frames, ValidateState: true}
}

// signalContext is canceled on interrupt so long runs stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sys, err := registry.Build(cfg)
	if err != nil {
		return err
	}

	d := sim.New(sys)
	d.SetLogger(logger)
	for _, m := range registry.DefaultMetrics(cfg) {
		d.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running", "scenario", cfg.Scenario, "frames", cfg.Frames, "dt", cfg.Dt, "seed", cfg.Seed)
	start := time.Now()

	result, runErr := d.Run(ctx, driverConfig(cfg))
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Error("run stopped early", "err", runErr, "frames", result.FramesRun)
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.FramesRun)
	fmt.Println("\nmetrics:")
	for _, m := range registry.DefaultMetrics(cfg) {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}

	return runErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tFRAMES\tDT\tENTITIES\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.FramesRun,
			run.Frames,
			run.Dt,
			run.Entities,
			run.Seed,
		)
	}

	return w.Flush()
}

// loadSeries reads the selected coordinate of a stored run.
func loadSeries(st *storage.Store, runID string) (*storage.RunMetadata, *storage.Trajectory, []float64, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if axis < 0 || axis > 2 {
		return nil, nil, nil, fmt.Errorf("axis must be 0, 1 or 2, got %d", axis)
	}
	if entity < 0 || entity >= traj.Entities() {
		return nil, nil, nil, fmt.Errorf("entity %d out of range (run has %d)", entity, traj.Entities())
	}
	return meta, traj, traj.Series(entity, axis), nil
}

var axisNames = [3]string{"x", "y", "z"}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, _, data, err := loadSeries(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(data))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("entity %d %s vs time", entity, axisNames[axis])),
	)
	fmt.Println(graph)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, _, data, err := loadSeries(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	if len(data) < 3 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("entity %d: %s against d%s/dt\n\n", entity, axisNames[axis], axisNames[axis])

	portrait := analysis.NewPhasePortrait(data, analysis.Velocity(data, meta.Dt))
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, traj, data, err := loadSeries(st, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	freq, _, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(data)
	graph := asciigraph.Plot(ps[:max(len(ps)/4, 2)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (entity %d %s)", entity, axisNames[axis])),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	if compare == "" {
		return nil
	}
	other, err := st.LoadTrajectory(compare)
	if err != nil {
		return err
	}
	n := min(len(traj.Positions), len(other.Positions))
	exp, err := analysis.SeparationExponent(traj.Times[:n], traj.Positions[:n], other.Positions[:n])
	if err != nil {
		return err
	}
	fmt.Printf("separation exponent vs %s: %.4f /s\n", compare, exp)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if svgFile != "" {
		traj, err := st.LoadTrajectory(runID)
		if err != nil {
			return err
		}
		svg := export.TrajectoryToSVG(traj, 800, 600)
		if svg == "" {
			return fmt.Errorf("not enough frames to draw %s", runID)
		}
		if err := os.WriteFile(svgFile, []byte(svg), 0o644); err != nil {
			return err
		}
		logger.Info("svg written", "path", svgFile)
	}

	return st.ExportJSON(os.Stdout, runID)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	f, err := storage.New(dataDir).OpenTrajectory(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		return runMenu()
	}

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := liveModel(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func liveModel(cfg *config.Config) (viz.Model, error) {
	return viz.NewModel(cfg.Scenario, func() (sim.System, error) {
		return registry.Build(cfg)
	}, cfg.Dt)
}

func runMenu() error {
	items := make([]viz.MenuItem, 0, len(registry.List()))
	for _, name := range registry.List() {
		items = append(items, viz.MenuItem{
			Name:        name,
			Description: registry.Describe(name),
			Presets:     config.ListPresets(name),
		})
	}

	menu := viz.NewMenu(items, func(name, presetName string) (viz.Model, error) {
		cfg := config.DefaultConfig()
		cfg.Scenario = name
		if presetName != "" {
			cfg = config.GetPreset(name, presetName)
		}
		return liveModel(cfg)
	})

	_, err := tea.NewProgram(menu, tea.WithAltScreen()).Run()
	return err
}

func benchScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if runs < 1 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %s (%d runs per row)\n\n", cfg.Scenario, runs)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tFRAMES\tTIME\tFRAMES/SEC\tENERGY_DRIFT")

	for _, step := range []float64{1.0 / 30, 1.0 / 60, 1.0 / 120, 1.0 / 240} {
		c := cfg.Clone()
		c.Dt = step
		c.Frames = max(1, int(cfg.Duration()/step))

		start := time.Now()
		results, err := sim.NewEnsemble(registry.Factory(c), runs, c.Seed).Run(ctx, driverConfig(c))
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		total, drift := 0, 0.0
		for _, r := range results {
			total += r.FramesRun
			drift = max(drift, r.Metrics["energy_drift"])
		}

		fmt.Fprintf(w, "%.4fs\t%d\t%v\t%.0f\t%.2e\n",
			step, c.Frames, elapsed, float64(total)/elapsed.Seconds(), drift)
	}

	return w.Flush()
}

// parseSweep turns name=v1,v2 flags into grid axes.
func parseSweep(flags []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(flags))
	ranges := make([][]float64, 0, len(flags))
	for _, arg := range flags {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", arg)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value in --param %q: %w", arg, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %s)", strings.Join(config.ParamNames(), ", "))
	}
	names, ranges, err := parseSweep(sweepParams)
	if err != nil {
		return err
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	build := func(params map[string]float64) (sim.System, []sim.Metric, error) {
		c := cfg.Clone()
		for name, v := range params {
			if err := c.SetParam(name, v); err != nil {
				return nil, nil, err
			}
		}
		sys, err := registry.Build(c)
		if err != nil {
			return nil, nil, err
		}
		return sys, registry.DefaultMetrics(c), nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("sweeping", "scenario", cfg.Scenario, "points", grid.Size(), "metric", metricName)
	best, value, outcomes, err := grid.Search(ctx, build, driverConfig(cfg), metricName)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metricName))
	for _, o := range outcomes {
		row := make([]string, 0, len(names)+1)
		for _, name := range names {
			row = append(row, strconv.FormatFloat(o.Params[name], 'g', 6, 64))
		}
		if o.Err != nil {
			logger.Warn("grid point failed", "params", o.Params, "err", o.Err)
			row = append(row, "failed")
		} else {
			row = append(row, strconv.FormatFloat(o.Value, 'e', 3, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6e at %v\n", metricName, value, best)
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner := automation.NewRunner(registry, st)
	runner.SetLogger(logger)

	ctx, cancel := signalContext()
	defer cancel()

	results, err := runner.Run(ctx, script)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENARIO\tFRAMES\tRUN ID\tENERGY_DRIFT")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.3e\n", r.Name, r.Config.Scenario, r.Result.FramesRun, id, r.Result.Metrics["energy_drift"])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}
