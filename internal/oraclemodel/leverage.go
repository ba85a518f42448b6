package oraclemodel

import "math"

// LeverageState is the per-tick derivatives-market snapshot: open interest,
// funding, liquidations and leverage ratio for one venue or aggregate.
type LeverageState struct {
	OpenInterest        float64 // USD, >= 0
	FundingRate         float64 // per 8h
	LongLiquidations1h  float64 // USD, >= 0
	ShortLiquidations1h float64 // USD, >= 0
	LeverageRatio       float64 // >= 0
	OIChange5m          float64 // fractional
}

// Validate enforces that every field is finite and every magnitude field is
// non-negative.
func (s LeverageState) Validate() error {
	for field, v := range map[string]float64{
		"OpenInterest":        s.OpenInterest,
		"LongLiquidations1h":  s.LongLiquidations1h,
		"ShortLiquidations1h": s.ShortLiquidations1h,
		"LeverageRatio":       s.LeverageRatio,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{Field: "LeverageState." + field, Reason: "must be finite"}
		}
		if v < 0 {
			return &InvalidInputError{Field: "LeverageState." + field, Reason: "must be >= 0"}
		}
	}
	if math.IsNaN(s.FundingRate) || math.IsInf(s.FundingRate, 0) {
		return &InvalidInputError{Field: "LeverageState.FundingRate", Reason: "must be finite"}
	}
	if math.IsNaN(s.OIChange5m) || math.IsInf(s.OIChange5m, 0) {
		return &InvalidInputError{Field: "LeverageState.OIChange5m", Reason: "must be finite"}
	}
	return nil
}

// TotalLiquidations1h is a derived accessor, never stored state.
func (s LeverageState) TotalLiquidations1h() float64 {
	return s.LongLiquidations1h + s.ShortLiquidations1h
}

// LiquidationImbalance is positive when more longs than shorts were
// liquidated. It is defined (non-zero denominator) only when
// TotalLiquidations1h > 0; otherwise it is 0 by convention.
func (s LeverageState) LiquidationImbalance() float64 {
	total := s.TotalLiquidations1h()
	if total == 0 {
		return 0
	}
	return (s.LongLiquidations1h - s.ShortLiquidations1h) / total
}

// IsFundingExtreme reports whether the funding rate exceeds 0.1% per 8h.
func (s LeverageState) IsFundingExtreme() bool {
	return math.Abs(s.FundingRate) > 0.001
}

// LeverageStress is a five-component composite leverage-stress score.
type LeverageStress struct {
	Score                float64
	OIComponent          float64
	FundingComponent     float64
	LiquidationComponent float64
	DivergenceComponent  float64
	USDTComponent        float64
}

// NewLeverageStress combines five [0,1] components into a weighted,
// clamped composite score.
func NewLeverageStress(oi, funding, liq, divergence, usdt float64) LeverageStress {
	score := 0.20*oi + 0.20*funding + 0.25*liq + 0.10*divergence + 0.25*usdt
	return LeverageStress{
		Score:                Clamp(score, 0, 1),
		OIComponent:          oi,
		FundingComponent:     funding,
		LiquidationComponent: liq,
		DivergenceComponent:  divergence,
		USDTComponent:        usdt,
	}
}

// IsHighStress reports whether the composite score exceeds 0.7.
func (s LeverageStress) IsHighStress() bool {
	return s.Score > 0.7
}

// CascadeDirection is the squeeze direction of an active cascade.
type CascadeDirection string

const (
	DirectionNone          CascadeDirection = ""
	DirectionLongSqueeze   CascadeDirection = "long_squeeze"
	DirectionShortSqueeze  CascadeDirection = "short_squeeze"
)

// CascadeDetection is the result of a five-signal liquidation-cascade check.
type CascadeDetection struct {
	IsCascade  bool
	Confidence float64
	Direction  CascadeDirection
}
