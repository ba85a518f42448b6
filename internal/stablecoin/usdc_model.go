package stablecoin

import (
	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// usdcModel computes the impact of USDC flows: a capital-confirming,
// trend-validating signal that never directly moves the True Price level.
type usdcModel struct {
	cfg config.StablecoinConfig
}

func (m usdcModel) computeImpact(flow oraclemodel.StablecoinFlowData) oraclemodel.USDCImpact {
	spotNorm := normalize(flow.USDCSpotFlow, m.cfg.USDCTypicalSpotFlow)
	custodyNorm := normalize(flow.USDCCustodyFlow, m.cfg.USDCTypicalCustodyFlow)
	defiNorm := normalize(flow.USDCDefiFlow, 1e8)

	capitalScore := oraclemodel.Clamp(0.5*spotNorm+0.3*custodyNorm+0.2*defiNorm, 0, 1)

	driftAdj := 0.0
	switch flow.PriceDirection {
	case oraclemodel.PriceUp:
		if flow.USDCMintVolume24h > m.cfg.USDCTypicalSpotFlow {
			driftAdj = min(m.cfg.USDCDriftConfidenceMax, 0.1*capitalScore)
		}
	case oraclemodel.PriceDown:
		if flow.USDCBurnVolume24h > 0 {
			driftAdj = min(m.cfg.USDCDriftConfidenceMax, 0.1*capitalScore)
		}
	}

	signal, confidence := regimeSignal(flow)

	return oraclemodel.USDCImpact{
		DriftConfidenceAdjustment: driftAdj,
		RegimeSignal:              signal,
		Confidence:                confidence,
	}
}

func regimeSignal(flow oraclemodel.StablecoinFlowData) (oraclemodel.USDCRegimeSignal, float64) {
	usdcFlow := flow.USDCSpotFlow + flow.USDCCustodyFlow + flow.USDCDefiFlow
	usdtFlow := flow.USDTDerivativesFlow + flow.USDTSpotFlow

	const epsilon = 1e-10
	usdcRatio := usdcFlow / (usdcFlow + usdtFlow + epsilon)

	switch {
	case usdcRatio > 0.6:
		return oraclemodel.USDCTrend, usdcRatio
	case usdcRatio < 0.3:
		return oraclemodel.USDCManipulation, 1 - usdcRatio
	default:
		return oraclemodel.USDCUncertain, 0.5
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
