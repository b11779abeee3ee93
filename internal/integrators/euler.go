package integrators

import "github.com/san-kum/sepode/internal/ode"

// Euler is the explicit first-order method y_{n+1} = y_n + h·f(t_n, y_n).
// Local truncation error is O(h²), global error O(h).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }
func (e *Euler) Order() int   { return 1 }

func (e *Euler) Step(f ode.Func, t, y, h float64) float64 {
	return y + h*f(t, y)
}

// Integrate produces n samples starting at (tStart, y0).
func (e *Euler) Integrate(f ode.Func, tStart, y0, h float64, n int) (ode.Series, error) {
	return Integrate(e, f, tStart, y0, h, n)
}
