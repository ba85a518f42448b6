package stablecoin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

func defaultAnalyzer() *Analyzer {
	return NewAnalyzer(config.DefaultConfig().Stablecoin)
}

func TestAnalyzeUSDTDominantManipulation(t *testing.T) {
	a := defaultAnalyzer()
	flow := oraclemodel.StablecoinFlowData{
		USDTMintVolume24h:   1.5e9,
		USDTDerivativesFlow: 1.2e9,
		USDTSpotFlow:        1e8,
		USDCMintVolume24h:   5e7,
		USDCSpotFlow:        2e7,
	}
	state := a.Analyze(flow, nil)

	assert.True(t, state.FlowRatio.USDTDominant)
	assert.False(t, state.FlowRatio.USDCDominant)
	assert.Greater(t, state.FlowRatio.ManipulationProbability, 0.7)
	assert.GreaterOrEqual(t, state.USDTImpact.VolatilityMultiplier, 1.0)
	assert.LessOrEqual(t, state.USDTImpact.VolatilityMultiplier, 3.0)
}

func TestAnalyzeUSDCConfirmedTrend(t *testing.T) {
	a := defaultAnalyzer()
	flow := oraclemodel.StablecoinFlowData{
		USDCSpotFlow:        4e8,
		USDCMintVolume24h:   4e8,
		USDTDerivativesFlow: 2e7,
		PriceDirection:      oraclemodel.PriceUp,
	}
	state := a.Analyze(flow, nil)

	assert.Equal(t, oraclemodel.USDCTrend, state.USDCImpact.RegimeSignal)
	assert.True(t, state.FlowRatio.USDCDominant)
	assert.Greater(t, state.USDCImpact.DriftConfidenceAdjustment, 0.0)
}

func TestUSDTImpactVolatilityMultiplierBounds(t *testing.T) {
	a := defaultAnalyzer()
	flow := oraclemodel.StablecoinFlowData{
		USDTMintVolume24h:   50e9,
		USDTDerivativesFlow: 50e9,
		USDTSpotFlow:        1,
	}
	state := a.Analyze(flow, nil)
	assert.LessOrEqual(t, state.USDTImpact.VolatilityMultiplier, 3.0)
	assert.GreaterOrEqual(t, state.USDTImpact.VolatilityMultiplier, 1.0)
}

func TestKalmanAdjustmentsForUSDTDominantVenuePenalties(t *testing.T) {
	venues := config.DefaultConfig().Venues
	descriptors := make([]oraclemodel.VenueDescriptor, len(venues))
	for i, v := range venues {
		descriptors[i] = oraclemodel.VenueDescriptor{
			Name: v.Name, BaseReliability: v.BaseReliability,
			HasDerivatives: v.HasDerivatives, DerivativesRatio: v.DerivativesRatio,
			IsDecentralized: v.IsDecentralized, USDCPrimary: v.USDCPrimary,
		}
	}

	state := oraclemodel.StablecoinState{
		FlowRatio: oraclemodel.FlowRatio{USDTDominant: true},
		USDCImpact: oraclemodel.USDCImpact{RegimeSignal: oraclemodel.USDCUncertain},
		USDTImpact: oraclemodel.USDTImpact{VolatilityMultiplier: 2.0},
	}

	adj := KalmanAdjustmentsFor(state, descriptors)
	require.Contains(t, adj.VenueWeightAdjustments, "binance")
	assert.Equal(t, 0.5, adj.VenueWeightAdjustments["binance"])
	assert.Equal(t, 1.2, adj.VenueWeightAdjustments["coinbase"])
	assert.Equal(t, 2.0, adj.ObservationNoiseMult)
}

func TestKalmanAdjustmentsForEmptyWhenNotUSDTDominant(t *testing.T) {
	state := oraclemodel.StablecoinState{FlowRatio: oraclemodel.FlowRatio{USDTDominant: false}}
	adj := KalmanAdjustmentsFor(state, nil)
	assert.Empty(t, adj.VenueWeightAdjustments)
}
