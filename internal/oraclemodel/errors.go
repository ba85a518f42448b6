package oraclemodel

import "fmt"

// InvalidInputError reports a numeric field that is NaN, negative where
// disallowed, or a configuration value that violates its stated bound.
// Fatal to the tick, not to the process.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// InsufficientObservationsError reports that fewer than one venue price
// arrived for the tick. The filter state is left unchanged.
type InsufficientObservationsError struct {
	VenueCount int
}

func (e *InsufficientObservationsError) Error() string {
	return fmt.Sprintf("insufficient observations: got %d venue prices, need at least 1", e.VenueCount)
}

// NumericalInstabilityError reports that the innovation covariance S was
// singular during a Kalman update. The caller may reseed via Reseed.
type NumericalInstabilityError struct {
	Op     string
	Reason string
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("numerical instability in %s: %s", e.Op, e.Reason)
}
