package integrators

import (
	"fmt"

	"github.com/san-kum/sepode/internal/ode"
)

// Stepper advances a scalar solution by one fixed step.
type Stepper interface {
	Name() string
	Order() int
	Step(f ode.Func, t, y, h float64) float64
}

// Integrate runs s over n grid points. The first sample is the initial
// condition; each following sample takes exactly one step. Step times are
// derived from the index so they stay on the grid built by ode.BuildGrid.
func Integrate(s Stepper, f ode.Func, tStart, y0, h float64, n int) (ode.Series, error) {
	if !(h > 0) {
		return nil, fmt.Errorf("%w: h=%g", ode.ErrInvalidStep, h)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: n=%d", ode.ErrInvalidGrid, n)
	}
	if f == nil {
		return nil, ode.ErrNilDerivative
	}

	out := make(ode.Series, n)
	t, y := tStart, y0
	out[0] = ode.Point{T: t, Y: y}

	for i := 1; i < n; i++ {
		y = s.Step(f, t, y, h)
		t = ode.StepTime(tStart, h, i)
		out[i] = ode.Point{T: t, Y: y}
	}

	return out, nil
}

// IntegrateGrid runs s over every point of g.
func IntegrateGrid(s Stepper, f ode.Func, g ode.Grid, y0 float64) (ode.Series, error) {
	return Integrate(s, f, g.Start(), y0, g.Step(), g.Len())
}
