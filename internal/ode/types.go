package ode

import "fmt"

// Func is the right-hand side of dy/dt = f(t, y).
type Func func(t, y float64) float64

// Point is one sample of a solution.
type Point struct {
	T float64 `json:"t"`
	Y float64 `json:"y"`
}

// Series is an ordered sequence of samples aligned to a Grid.
type Series []Point

func (s Series) Clone() Series {
	c := make(Series, len(s))
	copy(c, s)
	return c
}

func (s Series) Times() []float64 {
	ts := make([]float64, len(s))
	for i, p := range s {
		ts[i] = p.T
	}
	return ts
}

func (s Series) Values() []float64 {
	ys := make([]float64, len(s))
	for i, p := range s {
		ys[i] = p.Y
	}
	return ys
}

// Last returns the final sample, or the zero Point for an empty series.
func (s Series) Last() Point {
	if len(s) == 0 {
		return Point{}
	}
	return s[len(s)-1]
}

// Problem is the immutable definition of a decay comparison run.
type Problem struct {
	K      float64 `json:"k"`
	Y0     float64 `json:"y0"`
	TStart float64 `json:"t_start"`
	TEnd   float64 `json:"t_end"`
	H      float64 `json:"h"`
}

func DefaultProblem() Problem {
	return Problem{
		K:      0.5,
		Y0:     2.0,
		TStart: 0.0,
		TEnd:   1.0,
		H:      0.2,
	}
}

func (p Problem) Validate() error {
	if !(p.H > 0) {
		return fmt.Errorf("%w: h=%g", ErrInvalidStep, p.H)
	}
	if !(p.TEnd > p.TStart) {
		return fmt.Errorf("%w: interval [%g, %g] is empty", ErrInvalidGrid, p.TStart, p.TEnd)
	}
	return nil
}

// Grid builds the time grid covering [TStart, TEnd] with step H.
func (p Problem) Grid() (Grid, error) {
	return BuildGrid(p.TStart, p.TEnd, p.H)
}

// Exact returns the closed-form solution through (TStart, Y0).
func (p Problem) Exact() Decay {
	return Decay{K: p.K, Y0: p.Y0, T0: p.TStart}
}

// Derivative returns the right-hand side f(t, y) = -k·y.
func (p Problem) Derivative() Func {
	return p.Exact().Derivative()
}

// WithStep returns a copy of p using step h.
func (p Problem) WithStep(h float64) Problem {
	p.H = h
	return p
}

func (p Problem) String() string {
	return fmt.Sprintf("dy/dt = %g*y, y(%g) = %g, t in [%g, %g], h = %g", -p.K, p.TStart, p.Y0, p.TStart, p.TEnd, p.H)
}
