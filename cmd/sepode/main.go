package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/config"
	"github.com/san-kum/sepode/internal/logging"
)

var (
	cfg *config.Config

	configFile string
	envFile    string
	dataDir    string
	logLevel   string
	logFormat  string

	// problem overrides
	preset     string
	k          float64
	y0         float64
	tStart     float64
	tEnd       float64
	h          float64
	integrator string

	noSave  bool
	csvOut  string
	jsonOut string
	svgOut  string
	levels  int
)

// main registers the sepode commands and executes the root command, exiting
// with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sepode",
		Short:         "compare the analytical and euler solutions of dy/dt = -k*y",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with SEPODE_* overrides")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a comparison, print the table and save it",
		Args:  cobra.NoArgs,
		RunE:  runComparison,
	}
	addProblemFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	evalCmd := &cobra.Command{
		Use:   "eval [t...]",
		Short: "evaluate the analytical solution at arbitrary times",
		Args:  cobra.MinimumNArgs(1),
		RunE:  evalExact,
	}
	addProblemFlags(evalCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the error table of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&csvOut, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the comparison and error charts as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "comparison.svg", "output file")

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "halve h repeatedly and report the observed order",
		Args:  cobra.NoArgs,
		RunE:  runConvergence,
	}
	addProblemFlags(convergeCmd)
	convergeCmd.Flags().IntVar(&levels, "levels", 6, fmt.Sprintf("number of refinement levels (at most %d)", analysis.MaxLevels))

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "reveal a comparison point by point",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addProblemFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available problem presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name).ProblemDef()
				fmt.Fprintf(out, "  %-10s %s\n", name, p.String())
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, evalCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, convergeCmd, liveCmd, presetsCmd)
	return rootCmd
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset problem")
	cmd.Flags().Float64Var(&k, "k", config.DefaultK, "decay rate")
	cmd.Flags().Float64Var(&y0, "y0", config.DefaultY0, "initial value")
	cmd.Flags().Float64Var(&tStart, "t-start", config.DefaultTStart, "interval start")
	cmd.Flags().Float64Var(&tEnd, "t-end", config.DefaultTEnd, "interval end")
	cmd.Flags().Float64Var(&h, "h", config.DefaultH, "step size")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
}

// loadConfig resolves defaults < config file < preset < environment < flags.
func loadConfig(cmd *cobra.Command) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Problem = p
	}

	if err := config.LoadEnv(envFile); err != nil {
		return err
	}
	cfg.ApplyEnv()

	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("k") {
		cfg.Problem.K = k
	}
	if flags.Changed("y0") {
		cfg.Problem.Y0 = y0
	}
	if flags.Changed("t-start") {
		cfg.Problem.TStart = tStart
	}
	if flags.Changed("t-end") {
		cfg.Problem.TEnd = tEnd
	}
	if flags.Changed("h") {
		cfg.Problem.H = h
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}

	slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()))
	return nil
}
