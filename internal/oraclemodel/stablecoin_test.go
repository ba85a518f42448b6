package oraclemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowRatioDominanceMutualExclusion(t *testing.T) {
	dominant := NewFlowRatio(300, 100, 2.0, 0.5) // ratio = 3 > 2
	assert.True(t, dominant.USDTDominant)
	assert.False(t, dominant.USDCDominant)
	assert.Greater(t, dominant.Ratio, 2.0)

	confirming := NewFlowRatio(10, 100, 2.0, 0.5) // ratio = 0.1 < 0.5
	assert.True(t, confirming.USDCDominant)
	assert.False(t, confirming.USDTDominant)
	assert.Less(t, confirming.Ratio, 0.5)

	mixed := NewFlowRatio(100, 100, 2.0, 0.5) // ratio = 1
	assert.False(t, mixed.USDTDominant)
	assert.False(t, mixed.USDCDominant)
}

func TestFlowRatioManipulationProbabilityMonotone(t *testing.T) {
	low := NewFlowRatio(50, 100, 2.0, 0.5)
	high := NewFlowRatio(500, 100, 2.0, 0.5)
	assert.Less(t, low.ManipulationProbability, high.ManipulationProbability)
	assert.GreaterOrEqual(t, low.ManipulationProbability, 0.0)
	assert.LessOrEqual(t, high.ManipulationProbability, 1.0)
}

func TestPaddedHourlyFlowsRightPads(t *testing.T) {
	d := StablecoinFlowData{USDTHourlyFlows: []float64{1, 2, 3}}
	padded := d.PaddedHourlyFlows()
	assert.Len(t, padded, 24)
	assert.Equal(t, []float64{1, 2, 3}, padded[:3])
	assert.Equal(t, 0.0, padded[23])
}

func TestStablecoinFlowDataValidateRejectsOverlongHourly(t *testing.T) {
	flows := make([]float64, 25)
	d := StablecoinFlowData{USDTHourlyFlows: flows}
	assert.Error(t, d.Validate())
}
