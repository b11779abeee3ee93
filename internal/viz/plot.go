package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/ode"
)

// ExactCurve samples the closed-form solution at n evenly spaced points.
func ExactCurve(p ode.Problem, n int) []float64 {
	if n < 2 {
		n = 2
	}
	exact := p.Exact()
	ys := make([]float64, n)
	span := p.TEnd - p.TStart
	for i := range ys {
		ys[i] = exact.Evaluate(p.TStart + span*float64(i)/float64(n-1))
	}
	return ys
}

// PlotComparison draws the exact curve and the Euler approximation.
func PlotComparison(p ode.Problem, approx ode.Series, width, height, samples int) string {
	if len(approx) < 2 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{ExactCurve(p, samples), approx.Values()},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("exact (blue) vs euler h=%g (red), t in [%g, %g]", p.H, p.TStart, p.TEnd)),
	)
}

// PlotErrors draws the absolute error and the relative error as a fraction.
// Undefined relative entries are left as gaps.
func PlotErrors(r *analysis.Report, width, height int) string {
	if r.Len() < 2 {
		return ""
	}
	rel, _ := r.RelErrors()
	for i := range rel {
		if !math.IsNaN(rel[i]) {
			rel[i] /= 100
		}
	}
	return asciigraph.PlotMany(
		[][]float64{r.AbsErrors(), rel},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Magenta),
		asciigraph.Caption(fmt.Sprintf("abs error (green), rel error (magenta) | max abs %.4f, max rel %.2f%%",
			r.MaxAbsError, r.MaxRelErrorPercent)),
	)
}
