package export

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/ode"
)

// Trace is one curve of a chart.
type Trace struct {
	Name    string
	Color   string
	X, Y    []float64
	Markers bool
}

const (
	ColorExact    = "#3b82f6"
	ColorEuler    = "#ef4444"
	ColorAbsError = "#22c55e"
	ColorRelError = "#d946ef"
)

type bounds struct {
	minX, maxX, minY, maxY float64
}

func traceBounds(traces []Trace) (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	found := false
	for _, tr := range traces {
		for i := range tr.X {
			if i >= len(tr.Y) || !finite(tr.X[i]) || !finite(tr.Y[i]) {
				continue
			}
			found = true
			b.minX = math.Min(b.minX, tr.X[i])
			b.maxX = math.Max(b.maxX, tr.X[i])
			b.minY = math.Min(b.minY, tr.Y[i])
			b.maxY = math.Max(b.maxY, tr.Y[i])
		}
	}
	if !found {
		return b, false
	}

	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	if b.maxX == b.minX {
		b.minX -= rangeX * 0.5
		b.maxX += rangeX * 0.5
	}
	return b, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ChartSVG renders traces into a width x height SVG line chart. Non-finite
// samples are skipped and split the line.
func ChartSVG(title string, traces []Trace, width, height int) string {
	b, ok := traceBounds(traces)
	if !ok {
		return ""
	}

	const pad = 40.0
	plotW := float64(width) - 2*pad
	plotH := float64(height) - 2*pad
	px := func(x float64) float64 { return pad + (x-b.minX)/(b.maxX-b.minX)*plotW }
	py := func(y float64) float64 { return pad + plotH - (y-b.minY)/(b.maxY-b.minY)*plotH }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<text x="%d" y="20" font-family="sans-serif" font-size="14" text-anchor="middle">%s</text>
<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#cccccc"/>
`, width, height, width, height, width/2, html.EscapeString(title), pad, pad, plotW, plotH))

	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10">%.3g</text>
<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%.3g</text>
<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%.3g</text>
<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%.3g</text>
`, pad, pad+plotH+14, b.minX, pad+plotW, pad+plotH+14, b.maxX, pad-4, pad+plotH, b.minY, pad-4, pad+8, b.maxY))

	for n, tr := range traces {
		var path strings.Builder
		pen := false
		for i := range tr.X {
			if i >= len(tr.Y) || !finite(tr.X[i]) || !finite(tr.Y[i]) {
				pen = false
				continue
			}
			cmd := "L"
			if !pen {
				cmd = "M"
				pen = true
			}
			path.WriteString(fmt.Sprintf("%s%.1f,%.1f ", cmd, px(tr.X[i]), py(tr.Y[i])))
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="%s"/>
`, tr.Color, strings.TrimSpace(path.String())))

		if tr.Markers {
			for i := range tr.X {
				if i >= len(tr.Y) || !finite(tr.X[i]) || !finite(tr.Y[i]) {
					continue
				}
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, px(tr.X[i]), py(tr.Y[i]), tr.Color))
			}
		}

		ly := pad + 14 + float64(n)*14
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="11" fill="%s" text-anchor="end">%s</text>
`, pad+plotW-6, ly, tr.Color, html.EscapeString(tr.Name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ComparisonTraces returns the exact curve sampled at samples points over
// the problem interval plus the Euler points.
func ComparisonTraces(p ode.Problem, approx ode.Series, samples int) []Trace {
	if samples < 2 {
		samples = 2
	}
	exact := p.Exact()
	xs := make([]float64, samples)
	ys := make([]float64, samples)
	span := p.TEnd - p.TStart
	for i := range xs {
		xs[i] = p.TStart + span*float64(i)/float64(samples-1)
		ys[i] = exact.Evaluate(xs[i])
	}

	return []Trace{
		{Name: "exact", Color: ColorExact, X: xs, Y: ys},
		{Name: fmt.Sprintf("euler (h = %g)", p.H), Color: ColorEuler, X: approx.Times(), Y: approx.Values(), Markers: true},
	}
}

// ErrorTraces returns the absolute and relative (fraction) error curves.
// Undefined relative entries become gaps.
func ErrorTraces(r *analysis.Report) []Trace {
	ts := make([]float64, r.Len())
	rel := make([]float64, r.Len())
	for i, row := range r.Rows {
		ts[i] = row.T
		if pct, ok := row.RelError.Percent(); ok {
			rel[i] = pct / 100
		} else {
			rel[i] = math.NaN()
		}
	}

	return []Trace{
		{Name: "absolute error", Color: ColorAbsError, X: ts, Y: r.AbsErrors(), Markers: true},
		{Name: "relative error", Color: ColorRelError, X: ts, Y: rel, Markers: true},
	}
}

// WriteReportSVG writes the comparison chart stacked above the error chart.
func WriteReportSVG(w io.Writer, p ode.Problem, approx ode.Series, r *analysis.Report, width, height, samples int) error {
	top := ChartSVG("exact vs euler", ComparisonTraces(p, approx, samples), width, height/2)
	bottom := ChartSVG(fmt.Sprintf("error: max abs %.4f | max rel %.2f%%", r.MaxAbsError, r.MaxRelErrorPercent),
		ErrorTraces(r), width, height/2)

	_, err := fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">
<g>%s</g>
<g transform="translate(0,%d)">%s</g>
</svg>
`, width, height, stripProlog(top), height/2, stripProlog(bottom))
	return err
}

func stripProlog(svg string) string {
	if i := strings.Index(svg, "?>"); i >= 0 {
		return strings.TrimSpace(svg[i+2:])
	}
	return svg
}
