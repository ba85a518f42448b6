package stablecoin

import (
	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// Analyzer is the stablecoin flow analyzer. Analyze is pure, total, and
// deterministic.
type Analyzer struct {
	cfg  config.StablecoinConfig
	usdt usdtModel
	usdc usdcModel
}

// NewAnalyzer builds an Analyzer from the oracle's stablecoin configuration.
func NewAnalyzer(cfg config.StablecoinConfig) *Analyzer {
	return &Analyzer{
		cfg:  cfg,
		usdt: usdtModel{cfg: cfg},
		usdc: usdcModel{cfg: cfg},
	}
}

// Analyze computes the complete stablecoin state from raw flow data and an
// optional concurrent leverage snapshot (used only for the OI correlation
// term in the USDT model).
func (a *Analyzer) Analyze(
	flow oraclemodel.StablecoinFlowData,
	leverage *oraclemodel.LeverageState,
) oraclemodel.StablecoinState {
	return oraclemodel.StablecoinState{
		USDTImpact: a.usdt.computeImpact(flow, leverage),
		USDCImpact: a.usdc.computeImpact(flow),
		FlowRatio:  a.computeFlowRatio(flow),
	}
}

func (a *Analyzer) computeFlowRatio(flow oraclemodel.StablecoinFlowData) oraclemodel.FlowRatio {
	usdtTotal := flow.USDTDerivativesFlow + flow.USDTSpotFlow
	usdcTotal := flow.USDCSpotFlow + flow.USDCCustodyFlow + flow.USDCDefiFlow
	return oraclemodel.NewFlowRatio(usdtTotal, usdcTotal,
		a.cfg.ManipulationRatioThreshold, a.cfg.TrendRatioThreshold)
}

// KalmanAdjustments are the three outputs the covariance manager consumes
// from a StablecoinState.
type KalmanAdjustments struct {
	ObservationNoiseMult   float64
	ProcessNoiseMult       float64
	VenueWeightAdjustments map[string]float64
}

// hardcodedVenueWeights is the literal named-venue table used by default.
// VenueWeightAdjustments additionally honors the rule-based fallback for
// any venue descriptor not named here, so the list stays extensible.
var hardcodedVenueWeights = map[string]float64{
	"binance":  0.5,
	"bybit":    0.5,
	"okx":      0.6,
	"coinbase": 1.2,
	"kraken":   1.2,
}

// KalmanAdjustmentsFor derives the Kalman filter parameter adjustments from
// a StablecoinState. venues supplies the descriptors needed to extend the
// venue-weight table beyond the hard-coded names via the
// (has_derivatives, usdc_primary) rule.
func KalmanAdjustmentsFor(state oraclemodel.StablecoinState, venues []oraclemodel.VenueDescriptor) KalmanAdjustments {
	processMult := 1.0
	if state.USDCImpact.RegimeSignal == oraclemodel.USDCTrend {
		processMult = 1 + 0.2*state.USDCImpact.DriftConfidenceAdjustment
	}

	weights := map[string]float64{}
	if state.FlowRatio.USDTDominant {
		for _, v := range venues {
			if w, ok := hardcodedVenueWeights[v.Name]; ok {
				weights[v.Name] = w
				continue
			}
			weights[v.Name] = venueWeightRule(v)
		}
	}

	return KalmanAdjustments{
		ObservationNoiseMult:   state.USDTImpact.VolatilityMultiplier,
		ProcessNoiseMult:       processMult,
		VenueWeightAdjustments: weights,
	}
}

// venueWeightRule is the extensible, non-hard-coded fallback: derivatives-
// heavy venues are penalized in proportion to their derivatives ratio;
// USDC-primary spot venues are boosted.
func venueWeightRule(v oraclemodel.VenueDescriptor) float64 {
	switch {
	case v.HasDerivatives:
		return oraclemodel.Clamp(0.6-0.1*v.DerivativesRatio, 0.5, 0.6)
	case v.USDCPrimary:
		return 1.2
	default:
		return 1.0
	}
}
