// Package analysis compares a numerical solution against a closed-form one.
//
// The package provides:
//
//   - [Analyze]: pointwise absolute and relative error between two aligned series
//   - [Report]: per-point rows plus max and mean summaries
//   - [Relative]: relative error that may be [Undefined] when the exact value is zero
//   - [Convergence]: repeated step halving to observe the method's global order
//
// # Relative Error at Zero
//
// When the exact value is zero the relative error is 0 if the approximation is
// also zero and [Undefined] otherwise. Undefined entries never count as zero
// and are skipped by the relative summaries:
//
//	if pct, ok := row.RelError.Percent(); ok {
//	    fmt.Printf("%.4f%%\n", pct)
//	}
package analysis
