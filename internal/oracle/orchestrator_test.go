package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	o, err := New(config.DefaultConfig())
	require.NoError(t, err)
	return o
}

func TestUpdateRejectsEmptyVenuePrices(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.Update(map[string]float64{}, oraclemodel.LeverageState{}, oraclemodel.StablecoinFlowData{}, nil, nil, 0, 0, 0.2)
	require.Error(t, err)
	var insufficient *oraclemodel.InsufficientObservationsError
	assert.ErrorAs(t, err, &insufficient)
}

func TestUpdateRejectsInvalidLeverageState(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.Update(map[string]float64{"binance": 30000}, oraclemodel.LeverageState{OpenInterest: -1}, oraclemodel.StablecoinFlowData{}, nil, nil, 0, 0, 0.2)
	require.Error(t, err)
	var invalid *oraclemodel.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestUpdateCalmMarketYieldsNeutralSignal(t *testing.T) {
	o := newTestOrchestrator(t)
	prices := map[string]float64{"binance": 30000, "coinbase": 30010, "okx": 30005}
	leverageState := oraclemodel.LeverageState{
		OpenInterest:        5e9,
		FundingRate:         1e-4,
		LongLiquidations1h:  1e6,
		ShortLiquidations1h: 1e6,
	}
	flow := oraclemodel.StablecoinFlowData{USDTMintVolume24h: 1e8, USDCMintVolume24h: 2e8}

	estimate, err := o.Update(prices, leverageState, flow, nil, nil, 0, 0, 0.2)
	require.NoError(t, err)
	assert.LessOrEqual(t, estimate.CI95.Lo, estimate.Price)
	assert.GreaterOrEqual(t, estimate.CI95.Hi, estimate.Price)

	sig, err := o.GenerateSignal()
	require.NoError(t, err)
	assert.True(t, sig.IsNeutral())
}

func TestUpdateUSDTDominantManipulationScenario(t *testing.T) {
	o := newTestOrchestrator(t)
	leverageState := oraclemodel.LeverageState{OpenInterest: 5e9, FundingRate: 1e-4}
	flow := oraclemodel.StablecoinFlowData{USDTMintVolume24h: 1e8, USDCMintVolume24h: 2e8}

	_, err := o.Update(map[string]float64{"binance": 30000, "coinbase": 30000, "okx": 30000}, leverageState, flow, nil, nil, 0, 0, 0.2)
	require.NoError(t, err)

	manipFlow := oraclemodel.StablecoinFlowData{
		USDTMintVolume24h:   1.5e9,
		USDTDerivativesFlow: 1.2e9,
		USDCMintVolume24h:   5e7,
	}
	estimate, err := o.Update(map[string]float64{"binance": 30500, "coinbase": 30100, "okx": 30150}, leverageState, manipFlow, nil, nil, 0, 0, 0.2)
	require.NoError(t, err)
	assert.Equal(t, oraclemodel.RegimeManipulation, estimate.Regime.Type)

	sig, err := o.GenerateSignal()
	require.NoError(t, err)
	if !sig.IsNeutral() {
		assert.Equal(t, oraclemodel.SignalShort, sig.Type)
	}
}

func TestUpdateRejectsNonPositiveVenuePrice(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.Update(map[string]float64{"binance": -30000}, oraclemodel.LeverageState{}, oraclemodel.StablecoinFlowData{}, nil, nil, 0, 0, 0.2)
	require.Error(t, err)
	var invalid *oraclemodel.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestUpdateRejectsUnknownVenuesOnly(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.Update(map[string]float64{"ftx": 30000}, oraclemodel.LeverageState{}, oraclemodel.StablecoinFlowData{}, nil, nil, 0, 0, 0.2)
	require.Error(t, err)
	var insufficient *oraclemodel.InsufficientObservationsError
	assert.ErrorAs(t, err, &insufficient)
}

func TestUpdateRejectsOutOfBoundOrderbookQuality(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.Update(map[string]float64{"binance": 30000}, oraclemodel.LeverageState{}, oraclemodel.StablecoinFlowData{},
		nil, map[string]float64{"binance": 1.5}, 0, 0, 0.2)
	require.Error(t, err)
	var invalid *oraclemodel.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestUpdateLiquidationCascadeScenario(t *testing.T) {
	o := newTestOrchestrator(t)
	calmLeverage := oraclemodel.LeverageState{OpenInterest: 5e9, FundingRate: 1e-4}
	calmFlow := oraclemodel.StablecoinFlowData{USDTMintVolume24h: 1e8, USDCMintVolume24h: 2e8}
	for i := 0; i < 5; i++ {
		_, err := o.Update(map[string]float64{"binance": 30000, "coinbase": 30000, "okx": 30000}, calmLeverage, calmFlow, nil, nil, 0, 1e9, 0.3)
		require.NoError(t, err)
	}

	cascadeLeverage := oraclemodel.LeverageState{
		OpenInterest:        5e9,
		FundingRate:         -2e-3,
		LongLiquidations1h:  3.5e8,
		ShortLiquidations1h: 5e7,
		OIChange5m:          -0.08,
	}
	cascadeFlow := oraclemodel.StablecoinFlowData{
		USDTMintVolume24h:   1.5e9,
		USDTDerivativesFlow: 1.2e9,
		USDCMintVolume24h:   5e7,
	}
	estimate, err := o.Update(map[string]float64{"binance": 28200, "coinbase": 28210, "okx": 28190},
		cascadeLeverage, cascadeFlow, nil, nil, -0.06, 1e9, 0.3)
	require.NoError(t, err)
	assert.Equal(t, oraclemodel.RegimeCascade, estimate.Regime.Type)
	assert.Greater(t, estimate.Regime.Confidence, 0.7)

	sig, err := o.GenerateSignal()
	require.NoError(t, err)
	if !sig.IsNeutral() {
		assert.Equal(t, oraclemodel.SignalLong, sig.Type)
		// stop sits at least 3% below spot in a cascade
		assert.LessOrEqual(t, sig.StopLoss, estimate.SpotMedian*0.97)
	}
}

func TestUpdateMonotonicTimestamp(t *testing.T) {
	o := newTestOrchestrator(t)
	prices := map[string]float64{"binance": 30000}
	leverageState := oraclemodel.LeverageState{}
	flow := oraclemodel.StablecoinFlowData{}

	first, err := o.Update(prices, leverageState, flow, nil, nil, 0, 0, 0.2)
	require.NoError(t, err)
	second, err := o.Update(prices, leverageState, flow, nil, nil, 0, 0, 0.2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.Timestamp, first.Timestamp)
}

func TestGenerateSignalBeforeUpdateErrors(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.GenerateSignal()
	require.Error(t, err)
}

func TestPrecascadeRiskBeforeUpdateErrors(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.PrecascadeRisk(0.1, 0.5)
	require.Error(t, err)
}

func TestReseedRateLimited(t *testing.T) {
	o := newTestOrchestrator(t)
	require.NoError(t, o.Reseed(context.Background(), 30000))
	err := o.Reseed(context.Background(), 31000)
	require.Error(t, err)
}

type failingPriceSource struct{}

func (failingPriceSource) RealizedPrice(ctx context.Context) (float64, error) {
	return 0, errors.New("unavailable")
}

func TestUpdateFromSourcesDegradesFailingCollaboratorToAbsent(t *testing.T) {
	o := newTestOrchestrator(t)
	estimate, err := o.UpdateFromSources(context.Background(),
		map[string]float64{"binance": 30000}, oraclemodel.LeverageState{}, oraclemodel.StablecoinFlowData{},
		failingPriceSource{}, nil, 0, 0, 0.2)
	require.NoError(t, err)
	assert.Greater(t, estimate.Price, 0.0)
}
