package leverage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

func defaultCalculator() *Calculator {
	return NewCalculator(config.DefaultConfig().LeverageStress)
}

func TestCalculateColdStartUsesAbsoluteThresholds(t *testing.T) {
	c := defaultCalculator()
	state := oraclemodel.LeverageState{OpenInterest: 5e9, FundingRate: 2e-3}
	stress := c.Calculate(state, 0, nil)

	assert.GreaterOrEqual(t, stress.OIComponent, 0.0)
	assert.LessOrEqual(t, stress.OIComponent, 1.0)
	assert.Equal(t, 1.0, stress.FundingComponent) // |2e-3|/1e-3 clipped to 1
}

func TestCalculateComponentsAllInUnitRange(t *testing.T) {
	c := defaultCalculator()
	stable := &oraclemodel.StablecoinState{USDTImpact: oraclemodel.USDTImpact{VolatilityMultiplier: 3}}
	state := oraclemodel.LeverageState{
		OpenInterest:        8e9,
		FundingRate:         -1e-3,
		LongLiquidations1h:  2e8,
		ShortLiquidations1h: 1e8,
	}
	for i := 0; i < 15; i++ {
		stress := c.Calculate(state, 0.02, stable)
		assert.GreaterOrEqual(t, stress.Score, 0.0)
		assert.LessOrEqual(t, stress.Score, 1.0)
		for _, comp := range []float64{stress.OIComponent, stress.FundingComponent, stress.LiquidationComponent, stress.DivergenceComponent, stress.USDTComponent} {
			assert.GreaterOrEqual(t, comp, 0.0)
			assert.LessOrEqual(t, comp, 1.0)
		}
	}
}

func TestCalculateWarmsUpAfterTenSamples(t *testing.T) {
	c := defaultCalculator()
	state := oraclemodel.LeverageState{OpenInterest: 1e9, FundingRate: 1e-4}
	for i := 0; i < 9; i++ {
		c.Calculate(state, 0, nil)
	}
	assert.Equal(t, 9, c.oiHistory.Len())

	spike := oraclemodel.LeverageState{OpenInterest: 1e10, FundingRate: 1e-4}
	stress := c.Calculate(spike, 0, nil)
	// now warm (10th sample recorded inside Calculate): percentile path taken
	assert.Equal(t, 10, c.oiHistory.Len())
	assert.GreaterOrEqual(t, stress.OIComponent, 0.0)
}

func TestCalculateDivergenceStressCapturesFundingPriceAlignment(t *testing.T) {
	c := defaultCalculator()
	state := oraclemodel.LeverageState{FundingRate: 2e-3}
	stress := c.Calculate(state, -0.06, nil) // positive funding, falling price: pathological alignment
	assert.Greater(t, stress.DivergenceComponent, 0.0)
}
