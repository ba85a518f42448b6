// Package signal generates a directional trading signal from the filter's
// deviation z-score, the classified regime, the leverage-stress score, and
// the stablecoin flow state.
package signal

import (
	"math"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

var regimeManipulationMult = map[oraclemodel.RegimeType]float64{
	oraclemodel.RegimeCascade:       1.5,
	oraclemodel.RegimeManipulation:  1.8,
	oraclemodel.RegimeHighLeverage:  1.3,
	oraclemodel.RegimeNormal:        1.0,
	oraclemodel.RegimeLowVolatility: 0.7,
	oraclemodel.RegimeTrend:         0.5,
}

var regimeReversionAdjustment = map[oraclemodel.RegimeType]float64{
	oraclemodel.RegimeCascade:       0.1,
	oraclemodel.RegimeManipulation:  0.1,
	oraclemodel.RegimeHighLeverage:  0.05,
	oraclemodel.RegimeNormal:        0,
	oraclemodel.RegimeLowVolatility: -0.1,
	oraclemodel.RegimeTrend:         -0.2,
}

var regimeTimeframeMult = map[oraclemodel.RegimeType]float64{
	oraclemodel.RegimeCascade:       0.25,
	oraclemodel.RegimeManipulation:  0.5,
	oraclemodel.RegimeHighLeverage:  0.75,
	oraclemodel.RegimeNormal:        1.0,
	oraclemodel.RegimeLowVolatility: 1.5,
	oraclemodel.RegimeTrend:         3.0,
}

// Generator is the trading-signal generator.
type Generator struct {
	cfg config.SignalConfig
}

// NewGenerator builds a Generator from signal configuration.
func NewGenerator(cfg config.SignalConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate returns the neutral signal when |z| < min_zscore_threshold,
// otherwise a fully-populated directional signal. regimeName is the label
// attached to both neutral and directional signals for downstream logging.
func (g *Generator) Generate(
	z float64,
	spotMedian, truePrice float64,
	regime oraclemodel.Regime,
	stress oraclemodel.LeverageStress,
	stable oraclemodel.StablecoinState,
) oraclemodel.Signal {
	if math.Abs(z) < g.cfg.MinZScoreThreshold {
		return oraclemodel.NeutralSignal(string(regime.Type))
	}

	direction := oraclemodel.SignalShort
	if z < 0 {
		direction = oraclemodel.SignalLong
	}

	manip := g.manipulationProbability(z, regime, stress, stable)
	reversion := g.reversionProbability(manip, stable)
	reversion = adjustReversionForRegime(reversion, regime)
	confidence := g.confidence(z, stable)

	return oraclemodel.Signal{
		Type:                    direction,
		Confidence:              confidence,
		ReversionProbability:    reversion,
		ManipulationProbability: manip,
		ZScore:                  z,
		RegimeName:              string(regime.Type),
		Targets:                 g.targets(spotMedian, truePrice, stable),
		Timeframe:               g.timeframe(z, regime, stable),
		StopLoss:                g.stopLoss(spotMedian, z, regime, stable),
	}
}

func (g *Generator) manipulationProbability(
	z float64,
	regime oraclemodel.Regime,
	stress oraclemodel.LeverageStress,
	stable oraclemodel.StablecoinState,
) float64 {
	base := oraclemodel.Sigmoid(2 * (math.Abs(z) - 2))
	regimeMult := regimeManipulationMult[regime.Type]
	if regimeMult == 0 {
		regimeMult = 1.0
	}
	stressMult := 1 + 0.5*stress.Score

	stableMult := 1.0
	switch {
	case stable.FlowRatio.USDTDominant:
		stableMult = 1.5
	case stable.FlowRatio.USDCDominant:
		stableMult = 0.6
	}

	return math.Min(0.95, base*regimeMult*stressMult*stableMult)
}

func (g *Generator) reversionProbability(manip float64, stable oraclemodel.StablecoinState) float64 {
	switch {
	case stable.FlowRatio.USDTDominant:
		return 0.6 + 0.35*manip
	case stable.FlowRatio.USDCDominant:
		return 0.3 + 0.3*manip
	default:
		return 0.5 + 0.4*manip
	}
}

func adjustReversionForRegime(reversion float64, regime oraclemodel.Regime) float64 {
	return oraclemodel.Clamp(reversion+regimeReversionAdjustment[regime.Type], 0.2, 0.95)
}

func (g *Generator) confidence(z float64, stable oraclemodel.StablecoinState) float64 {
	base := math.Min(0.95, g.cfg.BaseConfidence+g.cfg.ZScoreConfidenceScale*(math.Abs(z)-1.5))
	clarity := math.Min(math.Abs(stable.FlowRatio.Ratio-1), 3)
	return math.Min(0.95, base*(1+0.1*clarity))
}

// targets builds the four probabilistic reversion targets T1..T4, strictly
// monotone in signal direction (descending for SHORT, ascending for LONG).
func (g *Generator) targets(spotMedian, truePrice float64, stable oraclemodel.StablecoinState) []oraclemodel.Target {
	deviation := spotMedian - truePrice

	stableMult := 1.0
	switch {
	case stable.FlowRatio.USDTDominant:
		stableMult = 1.2
	case stable.FlowRatio.USDCDominant:
		stableMult = 0.7
	}

	target := func(price, baseProb, cap float64, label string) oraclemodel.Target {
		return oraclemodel.Target{
			Price:       price,
			Probability: math.Min(cap, baseProb*stableMult),
			Label:       label,
		}
	}

	return []oraclemodel.Target{
		target(spotMedian-0.50*deviation, 0.70, 0.95, "T1_50pct"),
		target(spotMedian-0.75*deviation, 0.50, 0.80, "T2_75pct"),
		target(truePrice, 0.35, 0.60, "T3_full"),
		target(truePrice-0.25*deviation, 0.15, 0.30, "T4_overshoot"),
	}
}

func (g *Generator) timeframe(z float64, regime oraclemodel.Regime, stable oraclemodel.StablecoinState) oraclemodel.Timeframe {
	zMult := math.Max(0.5, 2-0.3*math.Abs(z))

	regimeMult := regimeTimeframeMult[regime.Type]
	if regimeMult == 0 {
		regimeMult = 1.0
	}

	stableMult := 1.0
	switch {
	case stable.FlowRatio.USDTDominant:
		stableMult = 0.7
	case stable.FlowRatio.USDCDominant:
		stableMult = 1.5
	}

	hours := g.cfg.BaseReversionHours * zMult * regimeMult * stableMult
	return oraclemodel.Timeframe{
		ExpectedHours: hours,
		RangeHours:    [2]float64{0.5 * hours, 2 * hours},
		Confidence:    0.7,
	}
}

func (g *Generator) stopLoss(spotMedian, z float64, regime oraclemodel.Regime, stable oraclemodel.StablecoinState) float64 {
	pct := 0.02
	switch regime.Type {
	case oraclemodel.RegimeCascade, oraclemodel.RegimeManipulation:
		pct *= 1.5
	case oraclemodel.RegimeTrend:
		pct *= 1.3
	}
	if stable.FlowRatio.USDTDominant {
		pct *= 1.2
	}
	if z > 0 {
		// SHORT: stop sits above spot.
		return spotMedian * (1 + pct)
	}
	// LONG: stop sits below spot.
	return spotMedian * (1 - pct)
}
