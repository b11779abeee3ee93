package analysis

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/sepode/internal/integrators"
	"github.com/san-kum/sepode/internal/ode"
)

// Level is one refinement of a convergence study.
type Level struct {
	H            float64 `json:"h"`
	Points       int     `json:"points"`
	MaxAbsError  float64 `json:"max_abs_error"`
	MeanAbsError float64 `json:"mean_abs_error"`
	// Ratio is MaxAbsError over the previous level's; zero on the first level.
	Ratio float64 `json:"ratio"`
	// Order is the observed order log2(1/Ratio); zero on the first level.
	Order float64 `json:"order"`
}

// Compare integrates p with s on p's grid and analyzes it against the exact solution.
func Compare(p ode.Problem, s integrators.Stepper) (ode.Grid, ode.Series, ode.Series, *Report, error) {
	if err := p.Validate(); err != nil {
		return ode.Grid{}, nil, nil, nil, err
	}
	g, err := p.Grid()
	if err != nil {
		return ode.Grid{}, nil, nil, nil, err
	}
	approx, err := integrators.IntegrateGrid(s, p.Derivative(), g, p.Y0)
	if err != nil {
		return ode.Grid{}, nil, nil, nil, err
	}
	exact := p.Exact().EvaluateSeries(g)
	report, err := Analyze(g, exact, approx)
	if err != nil {
		return ode.Grid{}, nil, nil, nil, err
	}
	return g, exact, approx, report, nil
}

// MaxLevels bounds a convergence study; each level doubles the point count.
const MaxLevels = 20

// Convergence halves p.H levels-1 times and reports how the maximum absolute
// error shrinks. Levels of a registered integrator run concurrently, each on
// its own stepper; any other stepper runs its levels one after another.
// onLevel, when set, is called once per finished level (in completion order,
// never concurrently).
func Convergence(ctx context.Context, p ode.Problem, s integrators.Stepper, levels int, onLevel func(Level)) ([]Level, error) {
	if levels < 1 || levels > MaxLevels {
		return nil, fmt.Errorf("convergence: levels must be in [1, %d], got %d", MaxLevels, levels)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]Level, levels)
	errs := make([]error, levels)

	var mu sync.Mutex
	runLevel := func(idx int, stepper integrators.Stepper) {
		if err := ctx.Err(); err != nil {
			errs[idx] = err
			return
		}

		h := p.H / math.Pow(2, float64(idx))
		g, _, _, report, err := Compare(p.WithStep(h), stepper)
		if err != nil {
			errs[idx] = err
			return
		}

		results[idx] = Level{
			H:            h,
			Points:       g.Len(),
			MaxAbsError:  report.MaxAbsError,
			MeanAbsError: report.MeanAbsError,
		}

		if onLevel != nil {
			mu.Lock()
			onLevel(results[idx])
			mu.Unlock()
		}
	}

	// Steppers are not required to be safe for concurrent use.
	if _, err := integrators.Get(s.Name()); err != nil {
		for i := 0; i < levels; i++ {
			runLevel(i, s)
		}
	} else {
		var wg sync.WaitGroup
		for i := 0; i < levels; i++ {
			stepper, _ := integrators.Get(s.Name())
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				runLevel(idx, stepper)
			}(i)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for i := 1; i < levels; i++ {
		prev := results[i-1].MaxAbsError
		if prev == 0 {
			continue
		}
		results[i].Ratio = results[i].MaxAbsError / prev
		if results[i].Ratio > 0 {
			results[i].Order = math.Log2(1 / results[i].Ratio)
		}
	}

	return results, nil
}
