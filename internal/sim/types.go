package sim

import (
	"time"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/ode"
)

// Observer receives every compared grid point in order.
type Observer interface {
	OnPoint(i int, t, exact, approx float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(i int, t, exact, approx float64)

func (f ObserverFunc) OnPoint(i int, t, exact, approx float64) { f(i, t, exact, approx) }

// Result holds everything one comparison run produced.
type Result struct {
	Problem    ode.Problem
	Integrator string
	Grid       ode.Grid
	Exact      ode.Series
	Approx     ode.Series
	Report     *analysis.Report
	Elapsed    time.Duration
}
