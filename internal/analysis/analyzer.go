package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/sepode/internal/ode"
)

// Row is one grid point of an error report.
type Row struct {
	T        float64  `json:"t"`
	Exact    float64  `json:"y_exact"`
	Approx   float64  `json:"y_euler"`
	AbsError float64  `json:"abs_error"`
	RelError Relative `json:"rel_error_percent"`
}

// Report is the pointwise comparison of two series plus summary metrics.
// It is built once by Analyze and never modified afterwards.
type Report struct {
	Rows                []Row   `json:"rows"`
	MaxAbsError         float64 `json:"max_abs_error"`
	MaxAbsIndex         int     `json:"max_abs_index"`
	MeanAbsError        float64 `json:"mean_abs_error"`
	MaxRelErrorPercent  float64 `json:"max_rel_error_percent"`
	MeanRelErrorPercent float64 `json:"mean_rel_error_percent"`
	UndefinedCount      int     `json:"undefined_count"`
}

func (r *Report) Len() int { return len(r.Rows) }

// AbsErrors returns the absolute error sequence.
func (r *Report) AbsErrors() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.AbsError
	}
	return out
}

// RelErrors returns the relative error sequence in percent. Undefined
// entries are reported as NaN and flagged in the second slice.
func (r *Report) RelErrors() ([]float64, []bool) {
	vals := make([]float64, len(r.Rows))
	defined := make([]bool, len(r.Rows))
	for i, row := range r.Rows {
		if pct, ok := row.RelError.Percent(); ok {
			vals[i] = pct
			defined[i] = true
		} else {
			vals[i] = math.NaN()
		}
	}
	return vals, defined
}

// Analyze zips the exact and approximate series on grid g into a Report.
// Both series must have g's length and g's time coordinates.
func Analyze(g ode.Grid, exact, approx ode.Series) (*Report, error) {
	if err := checkAligned(g, exact, approx); err != nil {
		return nil, err
	}

	rows := make([]Row, len(exact))
	r := &Report{MaxAbsIndex: -1}

	sumAbs, sumRel := 0.0, 0.0
	defined := 0
	for i := range exact {
		ye, ya := exact[i].Y, approx[i].Y
		abs := math.Abs(ye - ya)
		rel := RelativeError(ye, ya)

		rows[i] = Row{T: g.At(i), Exact: ye, Approx: ya, AbsError: abs, RelError: rel}

		sumAbs += abs
		if r.MaxAbsIndex < 0 || abs > r.MaxAbsError {
			r.MaxAbsError = abs
			r.MaxAbsIndex = i
		}

		pct, ok := rel.Percent()
		if !ok {
			r.UndefinedCount++
			continue
		}
		if defined == 0 || pct > r.MaxRelErrorPercent {
			r.MaxRelErrorPercent = pct
		}
		sumRel += pct
		defined++
	}

	if defined == 0 {
		return nil, fmt.Errorf("%w: all %d entries undefined", ode.ErrNoDefinedRelativeError, len(rows))
	}

	r.Rows = rows
	r.MeanAbsError = sumAbs / float64(len(rows))
	r.MeanRelErrorPercent = sumRel / float64(defined)
	return r, nil
}

func checkAligned(g ode.Grid, exact, approx ode.Series) error {
	if len(exact) != len(approx) || len(exact) != g.Len() {
		return fmt.Errorf("%w: grid has %d points, exact %d, approx %d",
			ode.ErrMisalignedSeries, g.Len(), len(exact), len(approx))
	}
	if len(exact) == 0 {
		return fmt.Errorf("%w: empty series", ode.ErrMisalignedSeries)
	}
	for i := range exact {
		t := g.At(i)
		if !ode.TimesEqual(exact[i].T, t) || !ode.TimesEqual(approx[i].T, t) {
			return fmt.Errorf("%w: point %d at t=%g has exact t=%g, approx t=%g",
				ode.ErrMisalignedSeries, i, t, exact[i].T, approx[i].T)
		}
	}
	return nil
}
