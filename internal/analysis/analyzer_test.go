package analysis_test

import (
	"context"
	"encoding/json"
	"math"
	"runtime"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/integrators"
	"github.com/san-kum/sepode/internal/ode"
)

func referenceSeries() (ode.Grid, ode.Series, ode.Series) {
	p := ode.DefaultProblem()
	g, err := p.Grid()
	Expect(err).NotTo(HaveOccurred())

	approx, err := integrators.NewEuler().Integrate(p.Derivative(), p.TStart, p.Y0, p.H, g.Len())
	Expect(err).NotTo(HaveOccurred())

	return g, p.Exact().EvaluateSeries(g), approx
}

func constantSeries(g ode.Grid, y float64) ode.Series {
	s := make(ode.Series, g.Len())
	for i := range s {
		s[i] = ode.Point{T: g.At(i), Y: y}
	}
	return s
}

// exclusiveStepper is an unregistered Euler stepper that counts overlapping calls.
type exclusiveStepper struct {
	active   int32
	overlaps int32
}

func (s *exclusiveStepper) Name() string { return "exclusive-euler" }
func (s *exclusiveStepper) Order() int   { return 1 }

func (s *exclusiveStepper) Step(f ode.Func, t, y, h float64) float64 {
	if atomic.AddInt32(&s.active, 1) > 1 {
		atomic.AddInt32(&s.overlaps, 1)
	}
	defer atomic.AddInt32(&s.active, -1)
	runtime.Gosched()
	return y + h*f(t, y)
}

var _ = Describe("Analyze", func() {
	Context("on the reference decay scenario", func() {
		var report *analysis.Report

		BeforeEach(func() {
			g, exact, approx := referenceSeries()
			var err error
			report, err = analysis.Analyze(g, exact, approx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces one row per grid point", func() {
			Expect(report.Rows).To(HaveLen(6))
			Expect(report.Rows[0].AbsError).To(BeZero())
			Expect(report.Rows[5].T).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("reports the exact value at t = 1", func() {
			Expect(report.Rows[5].Exact).To(BeNumerically("~", 1.213061319, 1e-6))
			Expect(report.Rows[5].Approx).To(BeNumerically("~", 1.18098, 1e-9))
		})

		It("reports the maximum absolute error at the last point", func() {
			Expect(report.MaxAbsError).To(BeNumerically("~", 0.0320813194, 1e-9))
			Expect(report.MaxAbsIndex).To(Equal(5))
			Expect(report.MeanAbsError).To(BeNumerically("~", 0.0185490325, 1e-9))
		})

		It("reports relative error in percent", func() {
			Expect(report.MaxRelErrorPercent).To(BeNumerically("~", 2.6446576864, 1e-8))
			pct, ok := report.Rows[1].RelError.Percent()
			Expect(ok).To(BeTrue())
			Expect(pct).To(BeNumerically("~", 0.5346173732, 1e-8))
			Expect(report.UndefinedCount).To(BeZero())
		})

		It("has a non-decreasing error sequence", func() {
			errs := report.AbsErrors()
			for i := 1; i < len(errs); i++ {
				Expect(errs[i]).To(BeNumerically(">=", errs[i-1]))
			}
		})

		It("is bit-identical across repeated runs", func() {
			g, exact, approx := referenceSeries()
			again, err := analysis.Analyze(g, exact, approx)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(report))
		})
	})

	Context("with misaligned series", func() {
		It("fails on mismatched lengths without a partial report", func() {
			g, exact, approx := referenceSeries()
			report, err := analysis.Analyze(g, exact, approx[:5])
			Expect(err).To(MatchError(ode.ErrMisalignedSeries))
			Expect(report).To(BeNil())
		})

		It("fails when a series does not match the grid length", func() {
			g, exact, approx := referenceSeries()
			report, err := analysis.Analyze(g, exact[:4], approx[:4])
			Expect(err).To(MatchError(ode.ErrMisalignedSeries))
			Expect(report).To(BeNil())
		})

		It("fails on diverging time coordinates", func() {
			g, exact, approx := referenceSeries()
			shifted := approx.Clone()
			shifted[3].T += 1e-3
			report, err := analysis.Analyze(g, exact, shifted)
			Expect(err).To(MatchError(ode.ErrMisalignedSeries))
			Expect(report).To(BeNil())
		})

		It("tolerates rounding-level time differences", func() {
			g, exact, approx := referenceSeries()
			nudged := approx.Clone()
			nudged[3].T += 1e-12
			_, err := analysis.Analyze(g, exact, nudged)
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not modify its inputs", func() {
			g, exact, approx := referenceSeries()
			exactCopy, approxCopy := exact.Clone(), approx.Clone()
			_, err := analysis.Analyze(g, exact, approx)
			Expect(err).NotTo(HaveOccurred())
			Expect(exact).To(Equal(exactCopy))
			Expect(approx).To(Equal(approxCopy))
		})
	})

	Context("when the exact value is zero", func() {
		var g ode.Grid

		BeforeEach(func() {
			var err error
			g, err = ode.NewGrid(0, 0.5, 3)
			Expect(err).NotTo(HaveOccurred())
		})

		It("treats 0/0 as a defined zero", func() {
			report, err := analysis.Analyze(g, constantSeries(g, 0), constantSeries(g, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(report.MaxRelErrorPercent).To(BeZero())
			pct, ok := report.Rows[0].RelError.Percent()
			Expect(ok).To(BeTrue())
			Expect(pct).To(BeZero())
		})

		It("marks nonzero/0 as undefined and skips it in the maximum", func() {
			exact := constantSeries(g, 1)
			exact[1].Y = 0
			approx := constantSeries(g, 0.9)

			report, err := analysis.Analyze(g, exact, approx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Rows[1].RelError.IsUndefined()).To(BeTrue())
			Expect(report.Rows[1].RelError.String()).To(Equal("undefined"))
			Expect(report.UndefinedCount).To(Equal(1))
			Expect(report.MaxRelErrorPercent).To(BeNumerically("~", 10, 1e-9))
			Expect(report.MaxAbsError).To(BeNumerically("~", 0.9, 1e-12))

			vals, defined := report.RelErrors()
			Expect(defined).To(Equal([]bool{true, false, true}))
			Expect(math.IsNaN(vals[1])).To(BeTrue())
		})

		It("fails when every relative error is undefined", func() {
			report, err := analysis.Analyze(g, constantSeries(g, 0), constantSeries(g, 1))
			Expect(err).To(MatchError(ode.ErrNoDefinedRelativeError))
			Expect(report).To(BeNil())
		})
	})
})

var _ = Describe("Relative", func() {
	It("encodes undefined as JSON null", func() {
		data, err := json.Marshal([]analysis.Relative{analysis.Defined(1.5), analysis.Undefined})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("[1.5,null]"))

		var back []analysis.Relative
		Expect(json.Unmarshal(data, &back)).To(Succeed())
		Expect(back[1].IsUndefined()).To(BeTrue())
		pct, ok := back[0].Percent()
		Expect(ok).To(BeTrue())
		Expect(pct).To(Equal(1.5))
	})

	It("refuses to encode a non-finite percentage", func() {
		_, err := json.Marshal(analysis.Defined(math.Inf(1)))
		Expect(err).To(MatchError(ContainSubstring("no JSON encoding")))
	})
})

var _ = Describe("Convergence", func() {
	It("roughly halves the error when h is halved", func() {
		levels, err := analysis.Convergence(context.Background(), ode.DefaultProblem(), integrators.NewEuler(), 2, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(levels).To(HaveLen(2))
		Expect(levels[0].Points).To(Equal(6))
		Expect(levels[1].Points).To(Equal(11))
		Expect(levels[1].MaxAbsError).To(BeNumerically("~", 0.0155874409, 1e-9))
		Expect(levels[1].Ratio).To(BeNumerically(">=", 0.4))
		Expect(levels[1].Ratio).To(BeNumerically("<=", 0.6))
	})

	It("observes first-order convergence over several levels", func() {
		seen := 0
		levels, err := analysis.Convergence(context.Background(), ode.DefaultProblem(), integrators.NewEuler(), 5, func(analysis.Level) { seen++ })
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal(5))
		Expect(levels[0].Ratio).To(BeZero())
		for _, l := range levels[1:] {
			Expect(l.Order).To(BeNumerically("~", 1.0, 0.1))
		}
	})

	It("converges on an interval that does not start at zero", func() {
		p := ode.DefaultProblem()
		p.TStart, p.TEnd = 1, 2

		levels, err := analysis.Convergence(context.Background(), p, integrators.NewEuler(), 3, nil)
		Expect(err).NotTo(HaveOccurred())
		for _, l := range levels[1:] {
			Expect(l.Ratio).To(BeNumerically(">=", 0.4))
			Expect(l.Ratio).To(BeNumerically("<=", 0.6))
		}

		_, _, _, report, err := analysis.Compare(p, integrators.NewEuler())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows[0].AbsError).To(BeZero())
	})

	It("rejects a non-positive level count", func() {
		_, err := analysis.Convergence(context.Background(), ode.DefaultProblem(), integrators.NewEuler(), 0, nil)
		Expect(err).To(HaveOccurred())
	})

	It("rejects more than MaxLevels levels", func() {
		_, err := analysis.Convergence(context.Background(), ode.DefaultProblem(), integrators.NewEuler(), analysis.MaxLevels+1, nil)
		Expect(err).To(MatchError(ContainSubstring("levels must be in")))
	})

	It("never shares an unregistered stepper between levels", func() {
		stepper := &exclusiveStepper{}
		levels, err := analysis.Convergence(context.Background(), ode.DefaultProblem(), stepper, 4, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(atomic.LoadInt32(&stepper.overlaps)).To(BeZero())

		reference, err := analysis.Convergence(context.Background(), ode.DefaultProblem(), integrators.NewEuler(), 4, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(levels).To(Equal(reference))
	})

	It("stops on a canceled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := analysis.Convergence(ctx, ode.DefaultProblem(), integrators.NewEuler(), 3, nil)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("propagates an invalid step", func() {
		_, err := analysis.Convergence(context.Background(), ode.DefaultProblem().WithStep(0), integrators.NewEuler(), 2, nil)
		Expect(err).To(MatchError(ode.ErrInvalidStep))
	})
})
