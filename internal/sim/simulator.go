package sim

import (
	"context"
	"time"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/integrators"
	"github.com/san-kum/sepode/internal/ode"
)

// Simulator runs one analytical-vs-numerical comparison per call. It holds no
// state between runs beyond its configuration.
type Simulator struct {
	stepper   integrators.Stepper
	observers []Observer
}

func New(stepper integrators.Stepper) *Simulator {
	if stepper == nil {
		stepper = integrators.NewEuler()
	}
	return &Simulator{
		stepper:   stepper,
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run builds the grid, integrates, evaluates the exact solution on the same
// grid, and analyzes the pair.
func (s *Simulator) Run(ctx context.Context, p ode.Problem) (*Result, error) {
	start := time.Now()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	grid, err := p.Grid()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The exact series is independent of the stepping, so evaluate it alongside.
	exactCh := make(chan ode.Series, 1)
	go func() {
		exactCh <- p.Exact().EvaluateSeries(grid)
	}()

	approx, err := integrators.IntegrateGrid(s.stepper, p.Derivative(), grid, p.Y0)
	exact := <-exactCh
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := analysis.Analyze(grid, exact, approx)
	if err != nil {
		return nil, err
	}

	for i, row := range report.Rows {
		for _, obs := range s.observers {
			obs.OnPoint(i, row.T, row.Exact, row.Approx)
		}
	}

	return &Result{
		Problem:    p,
		Integrator: s.stepper.Name(),
		Grid:       grid,
		Exact:      exact,
		Approx:     approx,
		Report:     report,
		Elapsed:    time.Since(start),
	}, nil
}
