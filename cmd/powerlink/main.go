package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/powerlink/internal/config"
	"github.com/san-kum/powerlink/internal/scenario"
	"github.com/san-kum/powerlink/internal/storage"
	"github.com/san-kum/powerlink/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir       string
	verbose       bool
	dt            float64
	duration      float64
	maxMinorSteps int
	tolerance     float64
	noSave        bool
	plotNode      string
	interval      time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "powerlink",
		Short:         "electrical power network simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".powerlink", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	runCmd := &cobra.Command{
		Use:   "run [preset|file]...",
		Short: "run one or more networks",
		Long:  "Run networks named by preset (family/name, e.g. ips/failover) or YAML file. Several arguments run concurrently.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runNetworks,
	}
	addSolverFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot node potentials of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotNode, "node", "", "plot only this node")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list preset networks",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	watchCmd := &cobra.Command{
		Use:   "watch [preset|file]",
		Short: "step a network live in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  watchNetwork,
	}
	addSolverFlags(watchCmd)
	watchCmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "wall-clock delay per major step")

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a starter network file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [preset|file]...",
		Short: "check network descriptions without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, arg := range args {
				cfg, err := resolve(arg)
				if err == nil {
					err = cfg.Validate()
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", arg, err))
					continue
				}
				fmt.Printf("%s: ok\n", arg)
			}
			return errors.Join(errs...)
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, presetsCmd, watchCmd, initCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "major step")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&maxMinorSteps, "max-minor-steps", config.DefaultMaxMinorSteps, "minor steps per major step")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultConvergenceTolerance, "convergence tolerance (V)")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolve loads a network by preset name or file path.
func resolve(arg string) (*config.Config, error) {
	if family, name, ok := strings.Cut(arg, "/"); ok {
		if cfg := config.GetPreset(family, name); cfg != nil {
			c := *cfg
			return &c, nil
		}
	}
	if _, err := os.Stat(arg); err != nil {
		return nil, fmt.Errorf("unknown preset or file: %s (families: %v)", arg, config.ListFamilies())
	}
	cfg, err := config.Load(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applySolverFlags overrides file values with flags given on the command
// line.
func applySolverFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("dt") {
		cfg.Solver.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Solver.Duration = duration
	}
	if cmd.Flags().Changed("max-minor-steps") {
		cfg.Solver.MaxMinorSteps = maxMinorSteps
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Solver.ConvergenceTolerance = tolerance
	}
}

func runNetworks(cmd *cobra.Command, args []string) error {
	cfgs := make([]*config.Config, 0, len(args))
	for _, arg := range args {
		cfg, err := resolve(arg)
		if err != nil {
			return err
		}
		applySolverFlags(cmd, cfg)
		cfgs = append(cfgs, cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d network(s)...\n", len(cfgs))
	start := time.Now()

	results, err := scenario.RunAll(ctx, cfgs, nil, newLogger())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}

	for i, result := range results {
		cfg := cfgs[i]
		fmt.Println(viz.Summary(cfg.Name, result))
		if noSave {
			continue
		}
		runID, err := st.Save(cfg.Name, cfg.Solver, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("completed in %v\n", elapsed)
	return nil
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tSTEPS\tTRIPS\tERRORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			len(run.Trips),
			len(run.Errors),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	p, err := st.LoadPotentials(runID)
	if err != nil {
		return err
	}

	if len(p.Values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(p.Values))

	nodes := p.Nodes
	if plotNode != "" {
		if p.Series(plotNode) == nil {
			return fmt.Errorf("unknown node %q (nodes: %v)", plotNode, p.Nodes)
		}
		nodes = []string{plotNode}
	}

	for _, node := range nodes {
		graph := asciigraph.Plot(p.Series(node),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(node+" potential (V)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	for _, tr := range meta.Trips {
		fmt.Printf("trip t=%.3f %s\n", tr.Time, tr.Link)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	families := config.ListFamilies()
	if len(args) == 1 {
		if config.ListPresets(args[0]) == nil {
			fmt.Printf("no presets for family: %s\n", args[0])
			return nil
		}
		families = args
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, family := range families {
		for _, name := range config.ListPresets(family) {
			cfg := config.GetPreset(family, name)
			fmt.Fprintf(w, "%s/%s\t%s\n", family, name, cfg.Description)
		}
	}
	return w.Flush()
}

func watchNetwork(cmd *cobra.Command, args []string) error {
	cfg, err := resolve(args[0])
	if err != nil {
		return err
	}
	applySolverFlags(cmd, cfg)

	// The TUI owns the terminal; diagnostics go only to stderr when asked for.
	logger := slog.New(slog.DiscardHandler)
	if verbose {
		logger = newLogger()
	}

	sc, err := scenario.Build(cfg, nil, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewWatchModel(sc, interval))
	_, err = p.Run()
	return err
}
