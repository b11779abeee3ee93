package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/export"
	"github.com/san-kum/sepode/internal/integrators"
	"github.com/san-kum/sepode/internal/ode"
	"github.com/san-kum/sepode/internal/sim"
	"github.com/san-kum/sepode/internal/storage"
	"github.com/san-kum/sepode/internal/viz"
)

func openStore() (*storage.Store, error) {
	store := storage.New(cfg.DataDir).WithLogger(slog.Default())
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

func newSimulator() (*sim.Simulator, error) {
	stepper, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	return sim.New(stepper), nil
}

func runComparison(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	simulator, err := newSimulator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	p := cfg.ProblemDef()
	slog.Debug("running comparison", "problem", p.String(), "integrator", cfg.Integrator)

	result, err := simulator.Run(ctx, p)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.RenderReport(p, result.Report))

	if noSave {
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	runID, err := store.Save(result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	slog.Info("run saved", "id", runID, "points", result.Report.Len(), "elapsed", result.Elapsed)
	fmt.Fprintf(out, "\nsaved: %s\n", runID)
	return nil
}

func evalExact(cmd *cobra.Command, args []string) error {
	p := cfg.ProblemDef()
	exact := p.Exact()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", arg, err)
		}
		fmt.Fprintf(out, "y(%g) = %.10f\n", t, exact.Evaluate(t))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	runs, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tK\tY0\tINTERVAL\tH\tPOINTS\tMAX ABS\tMAX REL %")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t[%g, %g]\t%g\t%d\t%.6f\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Problem.K,
			run.Problem.Y0,
			run.Problem.TStart,
			run.Problem.TEnd,
			run.Problem.H,
			run.Points,
			run.Summary.MaxAbsError,
			run.Summary.MaxRelErrorPercent,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *analysis.Report, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	meta, report, err := store.LoadReport(runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load run: %w", err)
	}
	return meta, report, nil
}

// approxSeries rebuilds the integrated series from stored rows.
func approxSeries(r *analysis.Report) ode.Series {
	s := make(ode.Series, len(r.Rows))
	for i, row := range r.Rows {
		s[i] = ode.Point{T: row.T, Y: row.Approx}
	}
	return s
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, report, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  %s\n\n", meta.ID, meta.Integrator, meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, viz.RenderReport(meta.Problem, report))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, report, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.PlotComparison(meta.Problem, approxSeries(report), cfg.Plot.Width, cfg.Plot.Height, cfg.Plot.Samples))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.PlotErrors(report, cfg.Plot.Width, cfg.Plot.Height))
	return nil
}

// output returns path opened for writing, or stdout when path is empty.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, report, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := output(cmd, csvOut)
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, report.Rows, 8); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	if csvOut != "" {
		slog.Info("exported", "run", args[0], "format", "csv", "path", csvOut)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, report, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := output(cmd, jsonOut)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, report); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	if jsonOut != "" {
		slog.Info("exported", "run", args[0], "format", "json", "path", jsonOut)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, report, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := output(cmd, svgOut)
	if err != nil {
		return err
	}

	// SVG pixels per terminal cell
	width, height := cfg.Plot.Width*10, cfg.Plot.Height*25
	if err := export.WriteReportSVG(w, meta.Problem, approxSeries(report), report, width, height, cfg.Plot.Samples); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	if svgOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", svgOut)
	}
	return nil
}

func runConvergence(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if levels < 1 || levels > analysis.MaxLevels {
		return fmt.Errorf("--levels must be in [1, %d], got %d", analysis.MaxLevels, levels)
	}
	stepper, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	bar := progressbar.NewOptions(levels,
		progressbar.OptionSetDescription("refining h"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	p := cfg.ProblemDef()
	results, err := analysis.Convergence(ctx, p, stepper, levels, func(l analysis.Level) {
		_ = bar.Add(1)
		slog.Debug("level done", "h", l.H, "points", l.Points, "max_abs", l.MaxAbsError)
	})
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("convergence study failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.TitleStyle.Render(fmt.Sprintf("convergence  %s", p.String())))
	fmt.Fprintln(out, viz.RenderConvergence(results))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	simulator, err := newSimulator()
	if err != nil {
		return err
	}

	model := viz.NewLiveModel(simulator, cfg.ProblemDef(), cfg.Plot.Width, cfg.Plot.Height, cfg.Plot.Samples)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	_, err = prog.Run()
	return err
}
