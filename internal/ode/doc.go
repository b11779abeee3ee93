// Package ode provides the core types for comparing analytical and numerical
// solutions of first-order ordinary differential equations.
//
// The package defines:
//
//   - [Problem]: immutable problem definition (decay rate, initial value, interval, step)
//   - [Grid]: equally spaced time samples shared read-only by both solvers
//   - [Series]: ordered (t, y) samples produced by a solver
//   - [Func]: pluggable right-hand side dy/dt = f(t, y)
//   - [Decay]: closed-form solution y(t) = y0·e^(-k·(t-t0)) of dy/dt = -k·y
//
// # Example
//
//	p := ode.DefaultProblem()
//	grid, _ := p.Grid()
//	exact := p.Exact().EvaluateSeries(grid)
//
// # Grid Times
//
// Grid times are derived from the step index as tStart + n·h rather than by
// repeated addition, so long grids do not drift off their nominal samples.
package ode
