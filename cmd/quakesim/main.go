package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/quakesim/internal/analysis"
	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/integrators"
	"github.com/san-kum/quakesim/internal/metrics"
	"github.com/san-kum/quakesim/internal/optim"
	"github.com/san-kum/quakesim/internal/sim"
	"github.com/san-kum/quakesim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	configFile  string
	preset      string
	integrator  string
	seed        uint64
	frames      int
	benchFrames int
	frameMs     int
	width       int
	showProm    bool
	series      string
	runs        int
	threshold   float64
	block       int
	sweepParams []string
	objective   string
	maximize    bool
)

// main registers the quakesim commands. With no subcommand it opens the
// interactive start screen.
func main() {
	rootCmd := &cobra.Command{
		Use:   "quakesim",
		Short: "spring-block earthquake simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(nil, newLogger())
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and plot the energy series",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	addLoopFlags(runCmd)
	runCmd.Flags().BoolVar(&showProm, "metrics", false, "print stepper counters after the run")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "spectrum and slip events of an energy series",
		RunE:  analyzeRun,
	}
	addConfigFlags(analyzeCmd)
	addLoopFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&series, "series", "kinetic", "series to analyze (kinetic, potential)")
	analyzeCmd.Flags().IntVar(&runs, "runs", 1, "independent runs with consecutive seeds")
	analyzeCmd.Flags().Float64Var(&threshold, "threshold", 1.0, "slip event threshold")

	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "stretch/velocity portrait of one block",
		RunE:  phasePlot,
	}
	addConfigFlags(phaseCmd)
	addLoopFlags(phaseCmd)
	phaseCmd.Flags().IntVar(&block, "block", 1, "block index (1-based)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over chain parameters",
		RunE:  sweepParameters,
	}
	addConfigFlags(sweepCmd)
	addLoopFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... ("+strings.Join(optim.Params(), ", ")+"), repeatable")
	sweepCmd.Flags().StringVar(&objective, "objective", "activity", "score ("+strings.Join(optim.Objectives, ", ")+")")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "pick the highest score instead of the lowest")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the integration schemes",
		RunE:  benchSchemes,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchFrames, "frames", 60, "frames per scheme")
	benchCmd.Flags().IntVar(&frameMs, "frame-ms", 16, "frame length in milliseconds")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			var custom *config.Config
			if configFile != "" || preset != "" || cmd.Flags().Changed("integrator") || cmd.Flags().Changed("seed") {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				custom = cfg
			}
			return viz.RunInteractive(custom, newLogger())
		},
	}
	addConfigFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBLOCKS\tINTEGRATOR\tDISTRIBUTION\tK_C\tDT")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.2f\t%g\n",
					name, cfg.Blocks, cfg.Integrator, cfg.Distribution, cfg.Kc, cfg.Dt)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
	addConfigFlags(configCmd)

	rootCmd.AddCommand(runCmd, analyzeCmd, phaseCmd, sweepCmd, benchCmd, liveCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "", "override integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "override friction seed (0 keeps the configured one)")
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&frames, "frames", 600, "frames to simulate")
	cmd.Flags().IntVar(&frameMs, "frame-ms", 16, "frame length in milliseconds")
	cmd.Flags().IntVar(&width, "width", 72, "history width in samples")
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig starts from the preset (or defaults), then the config file,
// then explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOnto(cfg, configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = config.Scheme(integrator)
	}
	if cmd.Flags().Changed("seed") && seed != 0 {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulator(cmd *cobra.Command, opts ...sim.Option) (*sim.Simulator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	logger.Debug("configuration loaded",
		slog.Int("blocks", cfg.Blocks),
		slog.String("integrator", string(cfg.Integrator)),
		slog.Uint64("seed", cfg.Seed),
	)
	return sim.New(cfg, append([]sim.Option{sim.WithLogger(logger)}, opts...)...)
}

func frameDuration() time.Duration { return time.Duration(frameMs) * time.Millisecond }

func runSimulation(cmd *cobra.Command, args []string) error {
	s, err := newSimulator(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if err := s.Run(ctx, frames, frameDuration()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	cfg := s.Config()
	c := s.Chain()
	fmt.Printf("%d blocks, %s, %d frames of %v in %v\n\n", c.Len(), cfg.Integrator, frames, frameDuration(), elapsed.Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tX\tV\tE\tFRICTION")
	for _, b := range c.Blocks() {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%.3f\n", b.Index, b.X, b.V, b.E, b.Friction)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nmax x: %.4f\n", c.MaxX())
	if err := s.Err(); err != nil {
		fmt.Printf("warning: %v\n", err)
	}

	type plot struct {
		name string
		data []float64
	}
	var plots []plot
	if h := s.Kinetic(); h != nil {
		plots = append(plots, plot{"kinetic energy", h.Series(width)})
	}
	if h := s.Potential(); h != nil {
		plots = append(plots, plot{"potential energy", h.Series(width)})
	}
	for _, p := range plots {
		if len(p.data) < 2 {
			continue
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(width),
			asciigraph.Caption(p.name),
		))
	}

	if showProm {
		fmt.Println()
		return printCounters()
	}
	return nil
}

// printCounters writes the quakesim_* families from the default registry.
func printCounters() error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "quakesim_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if m.GetGauge() != nil {
				v = m.GetGauge().GetValue()
			}
			fmt.Fprintf(w, "%s\t%g\n", mf.GetName(), v)
		}
	}
	return w.Flush()
}

func pickSeries(kinetic, potential []float64) ([]float64, error) {
	switch series {
	case "kinetic":
		if kinetic == nil {
			return nil, fmt.Errorf("kinetic energy is not tracked (plot setting)")
		}
		return kinetic, nil
	case "potential":
		if potential == nil {
			return nil, fmt.Errorf("potential energy is not tracked (plot setting)")
		}
		return potential, nil
	}
	return nil, fmt.Errorf("unknown series: %s", series)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	if runs > 1 {
		return analyzeEnsemble(cmd)
	}

	s, err := newSimulator(cmd, sim.WithMetric(metrics.NewMeanSpeed()))
	if err != nil {
		return err
	}
	if err := s.Run(context.Background(), frames, frameDuration()); err != nil {
		return err
	}
	if err := s.Err(); err != nil {
		return err
	}

	var kinetic, potential []float64
	if h := s.Kinetic(); h != nil {
		kinetic = h.Series(width)
	}
	if h := s.Potential(); h != nil {
		potential = h.Series(width)
	}
	data, err := pickSeries(kinetic, potential)
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return fmt.Errorf("no data: %d samples", len(data))
	}

	fps := 1 / frameDuration().Seconds()
	fmt.Printf("frequency analysis: %s energy, %d samples at %.1f hz\n\n", series, len(data), fps)

	ps := analysis.PowerSpectrum(analysis.Detrend(data))
	fmt.Println(asciigraph.Plot(ps[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+series+")"),
	))
	fmt.Println()

	freq, power := analysis.DominantFrequency(data, fps)
	fmt.Printf("dominant frequency: %.3f hz (power %.3g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	events := analysis.SlipEvents(data, threshold)
	fmt.Printf("\nslip events above %g: %d\n", threshold, len(events))
	counts := analysis.MagnitudeCounts(events)
	mags := make([]int, 0, len(counts))
	for m := range counts {
		mags = append(mags, m)
	}
	sort.Ints(mags)
	for _, m := range mags {
		fmt.Printf("  magnitude %d: %d\n", m, counts[m])
	}
	for _, m := range s.Metrics() {
		fmt.Printf("%s: %.4f\n", m.Name(), m.Value())
	}
	return nil
}

func analyzeEnsemble(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	seedStart := cfg.Seed
	if seedStart == 0 {
		seedStart = uint64(time.Now().UnixNano())
	}

	e := sim.NewEnsemble(cfg, runs, seedStart, func() []metrics.Metric {
		return []metrics.Metric{metrics.NewActivity(cfg.VEpsilon)}
	})
	results, err := e.Run(context.Background(), frames, frameDuration(), width)
	if err != nil {
		return err
	}

	fps := 1 / frameDuration().Seconds()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tMAX X\tACTIVITY\tEVENTS\tDOMINANT HZ")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%d\t%.4f\tdiverged\t-\t-\n", r.Seed, r.MaxX)
			continue
		}
		data, err := pickSeries(r.Kinetic, r.Potential)
		if err != nil {
			return err
		}
		freq, _ := analysis.DominantFrequency(data, fps)
		fmt.Fprintf(w, "%d\t%.4f\t%.3f\t%d\t%.3f\n",
			r.Seed, r.MaxX, r.Metrics["activity"], len(analysis.SlipEvents(data, threshold)), freq)
	}
	return w.Flush()
}

func phasePlot(cmd *cobra.Command, args []string) error {
	s, err := newSimulator(cmd)
	if err != nil {
		return err
	}

	portrait, err := analysis.TracePhase(context.Background(), s, block-1, frames, frameDuration())
	if err != nil {
		return err
	}
	if err := s.Err(); err != nil {
		return err
	}

	fmt.Printf("phase portrait: block %d (x: E-X, y: V)\n\n", portrait.Block)
	fmt.Print(portrait.ASCII(80, 24))
	return nil
}

func benchSchemes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %d blocks\n\n", cfg.Blocks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSUBSTEPS\tTIME\tSUBSTEPS/SEC\tMAX X")

	for _, name := range integrators.Names() {
		c := cfg.Clone()
		c.Integrator = config.Scheme(name)
		s, err := sim.New(c, sim.WithLogger(newLogger()))
		if err != nil {
			return err
		}

		start := time.Now()
		for i := 0; i < benchFrames; i++ {
			s.Advance(frameDuration())
		}
		elapsed := time.Since(start)

		rate := float64(s.Substeps()) / elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%.4f\n",
			name, s.Substeps(), elapsed.Round(time.Microsecond), rate, s.Chain().MaxX())
	}

	return w.Flush()
}

func parseSweep(args []string) ([]string, [][]float64, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("at least one --param is required")
	}
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || list == "" {
			return nil, nil, fmt.Errorf("invalid --param %q, want name=v1,v2", arg)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid value in --param %q: %w", arg, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sweepParameters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseSweep(sweepParams)
	if err != nil {
		return err
	}
	eval, err := optim.SimEvaluator(cfg, frames, frameDuration(), objective, maximize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, score, points, err := optim.NewGridSearch(names, ranges).Search(ctx, eval)
	if err != nil {
		return err
	}
	if maximize {
		score = -score
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(objective))
	for _, p := range points {
		v := p.Value
		if maximize {
			v = -v
		}
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", p.Params[name])
		}
		fmt.Fprintf(w, "%.4f\n", v)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.4f at", objective, score)
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best[name])
	}
	fmt.Println()
	return nil
}
