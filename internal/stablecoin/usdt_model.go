// Package stablecoin classifies USDT versus USDC flow pressure and produces
// the covariance modifiers and venue-weight adjustments the Kalman filter
// consumes.
package stablecoin

import (
	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// usdtModel computes the impact of USDT flows: a pure volatility amplifier
// and trust reducer, never a direct driver of the True Price level.
type usdtModel struct {
	cfg config.StablecoinConfig
}

func normalize(value, typical float64) float64 {
	if typical == 0 {
		return 0
	}
	return oraclemodel.Clamp(value/typical, 0, 2)
}

// oiCorrelation estimates the correlation between recent USDT flow spikes
// and OI movement. This is a coarse proxy; callers with high-resolution OI
// history may substitute a true lagged cross-correlation.
func oiCorrelation(hourlyFlows []float64, oiChange5m float64) float64 {
	if len(hourlyFlows) < 5 {
		return 0.0
	}
	n := len(hourlyFlows)
	recent := hourlyFlows[n-4:]
	var recentSum, totalSum float64
	for _, v := range recent {
		recentSum += v
	}
	for _, v := range hourlyFlows {
		totalSum += v
	}
	recentMean := recentSum / float64(len(recent))
	overallMean := totalSum/float64(n) + 1e-10

	if recentMean <= overallMean*1.5 {
		return 0.0
	}
	switch {
	case oiChange5m > 0.01:
		return 0.8
	case oiChange5m > 0:
		return 0.5
	default:
		return 0.2
	}
}

func (m usdtModel) computeImpact(
	flow oraclemodel.StablecoinFlowData,
	leverage *oraclemodel.LeverageState,
) oraclemodel.USDTImpact {
	mintNorm := normalize(flow.USDTMintVolume24h, m.cfg.USDTTypicalMintVolume)
	derivNorm := normalize(flow.USDTDerivativesFlow, m.cfg.USDTTypicalDerivativesFlow)

	oiCorr := 0.0
	if leverage != nil && len(flow.USDTHourlyFlows) > 0 {
		oiCorr = oiCorrelation(flow.USDTHourlyFlows, leverage.OIChange5m)
	}

	derivRatio := flow.USDTDerivativesFlow / (flow.USDTDerivativesFlow + flow.USDTSpotFlow + 1)

	volMult := m.cfg.USDTVolatilityMultBase +
		0.5*mintNorm +
		0.3*derivRatio +
		0.2*max(0, oiCorr)
	volMult = oraclemodel.Clamp(volMult, m.cfg.USDTVolatilityMultBase, m.cfg.USDTVolatilityMultMax)

	trustReduction := oraclemodel.Clamp(0.5*(volMult-1.0), 0, 1)
	manipAdjustment := oraclemodel.Clamp(0.2*derivNorm, 0, 0.3)

	return oraclemodel.USDTImpact{
		VolatilityMultiplier:       volMult,
		TrustReduction:             trustReduction,
		ManipulationProbAdjustment: manipAdjustment,
	}
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
