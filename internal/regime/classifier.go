// Package regime classifies the current market regime from cascade
// detection, stablecoin flow state, leverage stress, and annualized
// volatility, using a fixed priority order.
package regime

import (
	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// Classifier evaluates the priority-ordered rule set; Classify is a pure
// function of its inputs, so the same inputs always yield the same label.
type Classifier struct {
	cfg config.RegimeConfig
}

// NewClassifier builds a Classifier from regime configuration.
func NewClassifier(cfg config.RegimeConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify runs the first-match-wins rule chain:
// CASCADE > MANIPULATION > TREND > HIGH_LEVERAGE > LOW_VOLATILITY > NORMAL.
func (c *Classifier) Classify(
	cascadeDet oraclemodel.CascadeDetection,
	stress oraclemodel.LeverageStress,
	stable oraclemodel.StablecoinState,
	volatilityAnnualized float64,
) oraclemodel.Regime {
	if cascadeDet.IsCascade {
		return oraclemodel.NewCascadeRegime(cascadeDet.Confidence)
	}
	if stable.FlowRatio.ManipulationProbability > c.cfg.ManipulationProbThreshold {
		return oraclemodel.NewManipulationRegime(stable.FlowRatio.ManipulationProbability)
	}
	if stable.USDCImpact.RegimeSignal == oraclemodel.USDCTrend && stable.FlowRatio.USDCDominant {
		return oraclemodel.NewTrendRegime(stable.USDCImpact.Confidence)
	}
	if stress.Score > c.cfg.LeverageStressHigh {
		return oraclemodel.NewHighLeverageRegime(stress.Score)
	}
	if volatilityAnnualized < c.cfg.VolatilityLowThreshold {
		confidence := 1 - volatilityAnnualized/c.cfg.VolatilityLowThreshold
		return oraclemodel.NewLowVolatilityRegime(confidence)
	}
	return oraclemodel.NewNormalRegime(0.8)
}
