package oraclemodel

import "github.com/google/uuid"

// ConfidenceInterval is a (lo, hi) bound with lo <= hi.
type ConfidenceInterval struct {
	Lo float64
	Hi float64
}

// TruePriceEstimate is the per-tick output of the orchestrator.
type TruePriceEstimate struct {
	Price             float64
	Std               float64
	CI95              ConfidenceInterval
	DeviationZScore   float64
	SpotMedian        float64
	Regime            Regime
	Timestamp         int64 // unix seconds
	DataHash          [32]byte

	// RobustSpotMedian is a reliability-weighted, trimmed-median diagnostic.
	// It is distinct from SpotMedian and must never be substituted for it.
	RobustSpotMedian float64

	// CorrelationID ties an estimate to the tick that produced it, for log
	// correlation across components.
	CorrelationID uuid.UUID
}

// DeviationPercent is the deviation of the spot median from the True Price,
// expressed as a percentage. Zero when Price is zero.
func (e TruePriceEstimate) DeviationPercent() float64 {
	if e.Price == 0 {
		return 0
	}
	return (e.SpotMedian - e.Price) / e.Price * 100
}

// IsSpotAboveTrue reports whether the spot median sits above the True Price.
func (e TruePriceEstimate) IsSpotAboveTrue() bool {
	return e.SpotMedian > e.Price
}
