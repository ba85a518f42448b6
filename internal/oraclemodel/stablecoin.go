package oraclemodel

import "math"

// PriceDirection is the coarse 24h price direction accompanying a stablecoin
// flow snapshot.
type PriceDirection string

const (
	PriceUp      PriceDirection = "up"
	PriceDown    PriceDirection = "down"
	PriceNeutral PriceDirection = "neutral"
)

// StablecoinFlowData is the raw, per-tick snapshot produced by the flow
// collaborator. HourlyFlows is right-padded with zeros by the caller when
// fewer than 24 samples exist.
type StablecoinFlowData struct {
	USDTMintVolume24h     float64
	USDTDerivativesFlow   float64
	USDTSpotFlow          float64
	USDTHourlyFlows       []float64 // length <= 24, most recent last

	USDCMintVolume24h  float64
	USDCSpotFlow       float64
	USDCCustodyFlow    float64
	USDCDefiFlow       float64
	USDCBurnVolume24h  float64 // >= 0

	PriceReturn24h  float64
	PriceDirection  PriceDirection
}

// Validate enforces finiteness, non-negativity, and the hourly-flow length
// bound.
func (d StablecoinFlowData) Validate() error {
	nonNegative := map[string]float64{
		"USDTMintVolume24h":   d.USDTMintVolume24h,
		"USDTDerivativesFlow": d.USDTDerivativesFlow,
		"USDTSpotFlow":        d.USDTSpotFlow,
		"USDCMintVolume24h":   d.USDCMintVolume24h,
		"USDCSpotFlow":        d.USDCSpotFlow,
		"USDCCustodyFlow":     d.USDCCustodyFlow,
		"USDCDefiFlow":        d.USDCDefiFlow,
		"USDCBurnVolume24h":   d.USDCBurnVolume24h,
	}
	for field, v := range nonNegative {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{Field: "StablecoinFlowData." + field, Reason: "must be finite"}
		}
		if v < 0 {
			return &InvalidInputError{Field: "StablecoinFlowData." + field, Reason: "must be >= 0"}
		}
	}
	if len(d.USDTHourlyFlows) > 24 {
		return &InvalidInputError{Field: "StablecoinFlowData.USDTHourlyFlows", Reason: "must have length <= 24"}
	}
	switch d.PriceDirection {
	case PriceUp, PriceDown, PriceNeutral, "":
	default:
		return &InvalidInputError{Field: "StablecoinFlowData.PriceDirection", Reason: "must be up, down, or neutral"}
	}
	return nil
}

// PaddedHourlyFlows returns USDTHourlyFlows right-padded with zeros to
// length 24.
func (d StablecoinFlowData) PaddedHourlyFlows() []float64 {
	out := make([]float64, 24)
	copy(out, d.USDTHourlyFlows)
	return out
}

// USDTImpact is the derived impact of USDT flows on the True Price model.
type USDTImpact struct {
	VolatilityMultiplier       float64 // [v_base, v_max]
	TrustReduction             float64 // [0, 1]
	ManipulationProbAdjustment float64 // [0, 0.3]
}

// USDCRegimeSignal classifies USDC flow behavior.
type USDCRegimeSignal string

const (
	USDCTrend        USDCRegimeSignal = "TREND"
	USDCManipulation USDCRegimeSignal = "MANIPULATION"
	USDCUncertain    USDCRegimeSignal = "UNCERTAIN"
)

// USDCImpact is the derived impact of USDC flows on the True Price model.
type USDCImpact struct {
	DriftConfidenceAdjustment float64 // [-0.1, 0.1]
	RegimeSignal              USDCRegimeSignal
	Confidence                float64 // [0, 1]
}

// FlowRatio is the USDT/USDC dominance indicator.
type FlowRatio struct {
	Ratio                   float64
	USDTDominant            bool
	USDCDominant            bool
	ManipulationProbability float64 // [0, 1]
}

// NewFlowRatio computes the ratio, dominance flags, and manipulation
// probability from the two aggregate flow totals. usdtThreshold is the
// ratio above which USDT dominates (default 2.0) and usdcThreshold the
// ratio below which USDC dominates (default 0.5); with usdtThreshold >
// usdcThreshold the two flags are mutually exclusive.
func NewFlowRatio(usdtTotal, usdcTotal, usdtThreshold, usdcThreshold float64) FlowRatio {
	const epsilon = 1e-10
	ratio := usdtTotal / (usdcTotal + epsilon)
	return FlowRatio{
		Ratio:                   ratio,
		USDTDominant:            ratio > usdtThreshold,
		USDCDominant:            ratio < usdcThreshold,
		ManipulationProbability: Sigmoid(1.5 * (ratio - usdtThreshold)),
	}
}

// Sigmoid is the standard logistic function used throughout the stablecoin
// and signal components.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// StablecoinState is the complete derived stablecoin state consumed by the
// Kalman covariance manager, leverage-stress calculator, cascade detector,
// regime classifier, and signal generator.
type StablecoinState struct {
	USDTImpact USDTImpact
	USDCImpact USDCImpact
	FlowRatio  FlowRatio
}
