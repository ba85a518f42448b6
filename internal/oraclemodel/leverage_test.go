package oraclemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeverageStateDerivedFields(t *testing.T) {
	s := LeverageState{LongLiquidations1h: 7, ShortLiquidations1h: 3}
	require.NoError(t, s.Validate())
	assert.Equal(t, 10.0, s.TotalLiquidations1h())
	assert.InDelta(t, 0.4, s.LiquidationImbalance(), 1e-9)
}

func TestLeverageStateLiquidationImbalanceZeroTotal(t *testing.T) {
	s := LeverageState{}
	assert.Equal(t, 0.0, s.LiquidationImbalance())
}

func TestLeverageStateValidateRejectsNegative(t *testing.T) {
	s := LeverageState{OpenInterest: -1}
	err := s.Validate()
	require.Error(t, err)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestLeverageStateIsFundingExtreme(t *testing.T) {
	assert.True(t, LeverageState{FundingRate: 0.002}.IsFundingExtreme())
	assert.False(t, LeverageState{FundingRate: 0.0005}.IsFundingExtreme())
}

func TestNewLeverageStressClampsAndWeights(t *testing.T) {
	s := NewLeverageStress(1, 1, 1, 1, 1)
	assert.Equal(t, 1.0, s.Score)
	assert.True(t, s.IsHighStress())

	s2 := NewLeverageStress(0, 0, 0, 0, 0)
	assert.Equal(t, 0.0, s2.Score)
	assert.False(t, s2.IsHighStress())

	// weighted composite: 0.2*0 + 0.2*0 + 0.25*1 + 0.1*0 + 0.25*0 = 0.25
	s3 := NewLeverageStress(0, 0, 1, 0, 0)
	assert.InDelta(t, 0.25, s3.Score, 1e-9)
}

func TestLeverageStressComponentsAllInUnitRange(t *testing.T) {
	for _, s := range []LeverageStress{
		NewLeverageStress(0, 0, 0, 0, 0),
		NewLeverageStress(1, 1, 1, 1, 1),
		NewLeverageStress(0.3, 0.9, 0.1, 0.6, 0.4),
	} {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
	}
}
