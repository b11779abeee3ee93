package ode

import "math"

// parallelThreshold is the grid size above which EvaluateSeries fans out.
const parallelThreshold = 4096

// Solution is anything that can be evaluated in closed form at arbitrary t.
type Solution interface {
	Evaluate(t float64) float64
}

// Decay is the closed-form solution of dy/dt = -k·y with y(T0) = Y0, obtained
// by separation of variables: dy/y = -k dt, ln|y| = -k·t + C, so
// y = Y0·e^(-k·(t-T0)).
type Decay struct {
	K  float64
	Y0 float64
	T0 float64
}

// NewDecay returns the solution anchored at t = 0.
func NewDecay(k, y0 float64) Decay {
	return Decay{K: k, Y0: y0}
}

// Evaluate returns Y0·e^(-k·(t-T0)). Non-finite parameters propagate into the result.
func (d Decay) Evaluate(t float64) float64 {
	return d.Y0 * math.Exp(-d.K*(t-d.T0))
}

// EvaluateSeries samples the solution at every grid point.
func (d Decay) EvaluateSeries(g Grid) Series {
	return EvaluateSeries(d, g)
}

func (d Decay) Derivative() Func {
	k := d.K
	return func(t, y float64) float64 {
		return -k * y
	}
}

// EvaluateSeries samples any closed-form solution on g. Points are independent,
// so large grids are split across workers.
func EvaluateSeries(s Solution, g Grid) Series {
	out := make(Series, g.Len())
	ParallelFor(g.Len(), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			t := g.At(i)
			out[i] = Point{T: t, Y: s.Evaluate(t)}
		}
	})
	return out
}
