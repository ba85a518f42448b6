// Package cascade detects liquidation cascades from a weighted combination
// of open-interest, liquidation, price/volume, funding, and stablecoin
// signals, and estimates the probability one is imminent but not yet
// active.
package cascade

import (
	"math"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// Detector is the five-signal liquidation-cascade detector.
type Detector struct {
	cfg config.CascadeConfig
}

// NewDetector builds a Detector from cascade configuration.
func NewDetector(cfg config.CascadeConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Detect combines the five normalized signals with their fixed weights and
// reports whether the composite confidence crosses the cascade threshold.
func (d *Detector) Detect(
	state oraclemodel.LeverageState,
	priceReturn5m float64,
	spotVolume5m float64,
	stable oraclemodel.StablecoinState,
) oraclemodel.CascadeDetection {
	oiDrop := math.Min(1, math.Abs(state.OIChange5m)/0.05)
	liqSpike := math.Min(1, state.TotalLiquidations1h()/(5*d.cfg.TypicalLiquidationVolume))
	divergence := priceVolumeDivergence(priceReturn5m, spotVolume5m)

	var fundingAlignment float64
	if state.FundingRate*priceReturn5m > 0 {
		fundingAlignment = math.Min(1, math.Abs(state.FundingRate)*100)
	}

	stablePressure := stable.FlowRatio.ManipulationProbability

	confidence := 0.25*oiDrop + 0.30*liqSpike + 0.15*divergence + 0.10*fundingAlignment + 0.20*stablePressure

	isCascade := confidence > d.cfg.CascadeThreshold
	direction := oraclemodel.DirectionNone
	if isCascade {
		if state.LongLiquidations1h > state.ShortLiquidations1h {
			direction = oraclemodel.DirectionLongSqueeze
		} else {
			direction = oraclemodel.DirectionShortSqueeze
		}
	}

	return oraclemodel.CascadeDetection{
		IsCascade:  isCascade,
		Confidence: confidence,
		Direction:  direction,
	}
}

// priceVolumeDivergence measures how far the observed price move exceeds
// what the 5-minute volume would typically explain. Zero when there is no
// volume to normalize against.
func priceVolumeDivergence(priceReturn5m, spotVolume5m float64) float64 {
	if spotVolume5m == 0 {
		return 0
	}
	expected := math.Min(0.02, spotVolume5m/1e9)
	actual := math.Abs(priceReturn5m)
	if expected == 0 {
		return 0
	}
	ratio := actual / expected
	return oraclemodel.Clamp((ratio-1)/4, 0, 1)
}

// PrecascadeRiskCalculator estimates the probability a cascade is imminent
// but not yet active, from proximity to a liquidation cluster, order-book
// thinness, and funding extremity. Purely additive diagnostic: it never
// overrides the priority-ordered regime classification.
type PrecascadeRiskCalculator struct{}

// ComputeRisk returns a [0,1] precascade risk score. distanceToCluster is
// the fractional price distance to the nearest known liquidation cluster
// (0 = at the cluster); orderbookThinness is in [0,1] (1 = very thin).
func (PrecascadeRiskCalculator) ComputeRisk(
	state oraclemodel.LeverageState,
	distanceToCluster float64,
	orderbookThinness float64,
	stable oraclemodel.StablecoinState,
) float64 {
	proximity := math.Max(0, 1-distanceToCluster/0.05)
	fundingRisk := math.Min(1, math.Abs(state.FundingRate)/0.001)

	oiRisk := 0.2
	if state.LeverageRatio > 20 {
		oiRisk = 0.5
	}

	thinness := oraclemodel.Clamp(orderbookThinness, 0, 1)

	usdtRisk := 0.0
	if stable.FlowRatio.USDTDominant {
		usdtRisk = 0.8
	}

	risk := 0.30*proximity + 0.20*fundingRisk + 0.15*oiRisk + 0.15*thinness + 0.20*usdtRisk
	return math.Min(1, risk)
}
