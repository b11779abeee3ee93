package ode

import "errors"

// Domain errors for integration and error analysis. Every one of them is a
// caller contract violation; none is transient.
var (
	// ErrInvalidStep indicates a step size that is not strictly positive.
	ErrInvalidStep = errors.New("ode: step size must be positive")

	// ErrInvalidGrid indicates a non-positive point count or an empty interval.
	ErrInvalidGrid = errors.New("ode: grid must contain at least one point")

	// ErrMisalignedSeries indicates series whose lengths or time coordinates disagree.
	ErrMisalignedSeries = errors.New("ode: series are not aligned on the same grid")

	// ErrNoDefinedRelativeError indicates every relative error entry is undefined.
	ErrNoDefinedRelativeError = errors.New("ode: no defined relative error")

	// ErrNilDerivative indicates a missing right-hand side function.
	ErrNilDerivative = errors.New("ode: derivative function is nil")
)
