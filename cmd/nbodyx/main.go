package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/san-kum/nbodyx/internal/config"
	"github.com/san-kum/nbodyx/internal/experiment"
	"github.com/san-kum/nbodyx/internal/logging"
	"github.com/san-kum/nbodyx/internal/storage"
	"github.com/san-kum/nbodyx/internal/viz"
	"github.com/spf13/cobra"
)

var (
	env        config.Env
	logger     zerolog.Logger
	dataDir    string
	preset     string
	configFile string
	integrator string
	dt         float64
	duration   float64
	noSave     bool

	sweepParticle int
	sweepKey      string
	sweepValues   string
	failFast      bool

	column string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "nbodyx",
		Short:         "n-body simulation with operator-split extras",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if env, err = config.LoadEnv(); err != nil {
				return err
			}
			if logger, err = logging.New("nbodyx", env.LogLevel, env.LogFormat, os.Stderr); err != nil {
				return err
			}
			if !cmd.Flags().Changed("data") {
				dataDir = env.DataDir
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "data", "data directory (default $NBODYX_DATA_DIR)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save its orbit log",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per value of a particle parameter",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepParticle, "particle", 0, "particle whose parameter is varied")
	sweepCmd.Flags().StringVar(&sweepKey, "key", "mass_loss_rate", "parameter name")
	sweepCmd.Flags().StringVar(&sweepValues, "values", "", "comma separated parameter values")
	sweepCmd.Flags().BoolVar(&failFast, "fail-fast", false, "cancel remaining runs after the first failure")
	_ = sweepCmd.MarkFlagRequired("values")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot an orbit log column against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "m", "column to plot (m, a, e, inc, node, peri, f)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	operatorsCmd := &cobra.Command{
		Use:   "operators",
		Short: "list built-in operators",
		RunE:  listOperators,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-16s %s, %d particles, t=%g\n", name, cfg.Integrator, len(cfg.Particles), cfg.Duration)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, listCmd, plotCmd, exportCmd, operatorsCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "kepler", "preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml or toml), overrides --preset")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration override")
}

// loadConfig resolves the preset or config file, then applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg,
		experiment.WithLogger(logger),
		experiment.WithProgress(func(p experiment.Progress) {
			logger.Info().
				Float64("t", p.T).
				Int("steps", p.Steps).
				Floats64("masses", p.Masses).
				Float64("a", p.Orbit.A).
				Float64("e", p.Orbit.E).
				Msg("progress")
		}),
	)
	defer exp.Close()

	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("name: %s\n", cfg.Name)
	fmt.Printf("integrator: %s\n", cfg.Integrator)
	fmt.Printf("steps: %d\n", res.Steps)
	fmt.Printf("final time: %.6g\n", res.FinalTime)
	for i, p := range res.Particles {
		fmt.Printf("  m[%d] = %.10g\n", i, p.M)
	}
	printMetrics(res.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(exp.Metadata(res), res.Samples)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The live view owns the terminal.
	exp := experiment.New(cfg, experiment.WithLogger(zerolog.Nop()))
	defer exp.Close()
	return viz.Run(cmd.Context(), exp)
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var values []float64
	for _, s := range strings.Split(sweepValues, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid sweep value %q: %w", s, err)
		}
		values = append(values, v)
	}

	cfgs, err := experiment.Vary(base, sweepParticle, sweepKey, values)
	if err != nil {
		return err
	}

	results, err := experiment.Sweep(cmd.Context(), cfgs,
		experiment.SweepOptions{Workers: env.Workers, FailFast: failFast},
		experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tT\tM[%d]\tSTATUS\n", strings.ToUpper(sweepKey), sweepParticle)
	for i, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%g\t-\t-\t-\t%v\n", values[i], r.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%d\t%.6g\t%.10g\tok\n",
			values[i],
			r.Result.Steps,
			r.Result.FinalTime,
			r.Result.Particles[sweepParticle].M,
		)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tTIME\tINTEG\tN\tDURATION\tSTEPS\tOPERATORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Particles,
			run.Duration,
			run.Steps,
			strings.Join(run.Operators, ","),
		)
	}

	return w.Flush()
}

var columns = map[string]func(storage.OrbitSample) float64{
	"m":    func(s storage.OrbitSample) float64 { return s.M },
	"a":    func(s storage.OrbitSample) float64 { return s.A },
	"e":    func(s storage.OrbitSample) float64 { return s.E },
	"inc":  func(s storage.OrbitSample) float64 { return s.Inc },
	"node": func(s storage.OrbitSample) float64 { return s.Node },
	"peri": func(s storage.OrbitSample) float64 { return s.Peri },
	"f":    func(s storage.OrbitSample) float64 { return s.F },
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	get, ok := columns[strings.ToLower(column)]
	if !ok {
		return fmt.Errorf("unknown column: %s", column)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = get(s)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d (t=%g..%g)\n\n", len(samples), samples[0].T, samples[len(samples)-1].T)
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(column+" vs time"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, samples)
}

func listOperators(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry().Operators()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSYMMETRY\tREQUIRES\tMISSING\tDESCRIPTION")
	for _, name := range reg.Names() {
		meta, err := reg.Describe(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			name,
			meta.Symmetry,
			strings.Join(meta.Required, ","),
			meta.Missing,
			meta.Description,
		)
	}
	return w.Flush()
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-18s %.6g\n", name, m[name])
	}
}
