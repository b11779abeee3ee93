package ode

import (
	"fmt"
	"math"
)

// TimeTolerance bounds how far two time coordinates may differ and still be
// treated as the same grid point. It scales with the magnitude of the times.
const TimeTolerance = 1e-9

// Grid is an immutable, equally spaced sequence of time values.
type Grid struct {
	times []float64
	start float64
	h     float64
}

// BuildGrid returns the grid tStart, tStart+h, ... covering [tStart, tEnd].
// The interval is assumed to be a whole multiple of h; the point count is
// round((tEnd-tStart)/h) + 1.
func BuildGrid(tStart, tEnd, h float64) (Grid, error) {
	if !(h > 0) {
		return Grid{}, fmt.Errorf("%w: h=%g", ErrInvalidStep, h)
	}
	if !(tEnd > tStart) {
		return Grid{}, fmt.Errorf("%w: interval [%g, %g] is empty", ErrInvalidGrid, tStart, tEnd)
	}
	steps := math.Round((tEnd - tStart) / h)
	if math.IsInf(steps, 0) || math.IsNaN(steps) || steps > math.MaxInt32 {
		return Grid{}, fmt.Errorf("%w: interval [%g, %g] with h=%g", ErrInvalidGrid, tStart, tEnd, h)
	}
	return NewGrid(tStart, h, int(steps)+1)
}

// NewGrid returns a grid of n points starting at tStart with spacing h.
func NewGrid(tStart, h float64, n int) (Grid, error) {
	if !(h > 0) {
		return Grid{}, fmt.Errorf("%w: h=%g", ErrInvalidStep, h)
	}
	if n <= 0 {
		return Grid{}, fmt.Errorf("%w: n=%d", ErrInvalidGrid, n)
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = StepTime(tStart, h, i)
	}
	return Grid{times: times, start: tStart, h: h}, nil
}

// StepTime returns the time of step n, computed from the index.
func StepTime(tStart, h float64, n int) float64 {
	return tStart + float64(n)*h
}

func (g Grid) Len() int       { return len(g.times) }
func (g Grid) Step() float64  { return g.h }
func (g Grid) Start() float64 { return g.start }

func (g Grid) At(i int) float64 {
	return g.times[i]
}

func (g Grid) End() float64 {
	if len(g.times) == 0 {
		return g.start
	}
	return g.times[len(g.times)-1]
}

// Times returns a copy of the grid's time values.
func (g Grid) Times() []float64 {
	c := make([]float64, len(g.times))
	copy(c, g.times)
	return c
}

// TimesEqual reports whether a and b denote the same grid time.
func TimesEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= TimeTolerance*scale
}
