// Package leverage computes the five-component leverage-stress composite
// score from open interest, funding, liquidations, price/funding
// divergence, and USDT flow pressure.
package leverage

import (
	"math"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// warmThreshold is the minimum sample count before a buffer switches from
// its cold-start absolute threshold to its warm percentile/z-score form.
const warmThreshold = 10

// Calculator is the leverage-stress calculator. It owns the two bounded OI
// and funding ring buffers exclusively; the orchestrator is the single
// writer.
type Calculator struct {
	cfg            config.LeverageStressConfig
	oiHistory      *RingBuffer
	fundingHistory *RingBuffer
}

// NewCalculator builds a Calculator with ring buffers sized from
// configuration (default capacity 2160).
func NewCalculator(cfg config.LeverageStressConfig) *Calculator {
	return &Calculator{
		cfg:            cfg,
		oiHistory:      NewRingBuffer(cfg.RingBufferCapacity),
		fundingHistory: NewRingBuffer(cfg.RingBufferCapacity),
	}
}

// Calculate records the current OI and funding samples into history and
// returns the composite LeverageStress for this tick. priceReturn1h is the
// 1h price-return proxy the orchestrator derives from the 5-minute return.
// stable may be nil when no stablecoin state is available yet.
func (c *Calculator) Calculate(
	state oraclemodel.LeverageState,
	priceReturn1h float64,
	stable *oraclemodel.StablecoinState,
) oraclemodel.LeverageStress {
	c.oiHistory.Push(state.OpenInterest)
	c.fundingHistory.Push(state.FundingRate)
	oiStress := c.oiStress(state.OpenInterest)
	fundingStress := c.fundingStress(state.FundingRate)

	liqStress := oraclemodel.Clamp(
		state.TotalLiquidations1h()/(5*c.cfg.TypicalLiquidationVolume), 0, 1)
	divergenceStress := oraclemodel.Clamp(10*state.FundingRate*(-priceReturn1h), 0, 1)

	usdtStress := 0.0
	if stable != nil {
		usdtStress = oraclemodel.Clamp((stable.USDTImpact.VolatilityMultiplier-1)/2, 0, 1)
	}

	return oraclemodel.NewLeverageStress(oiStress, fundingStress, liqStress, divergenceStress, usdtStress)
}

// oiStress is percentile-based once oiHistory holds >= warmThreshold
// samples, else the cold-start absolute form.
func (c *Calculator) oiStress(currentOI float64) float64 {
	if c.oiHistory.Len() < warmThreshold {
		return math.Min(1, currentOI/c.cfg.TypicalOI)
	}
	median := c.oiHistory.Median()
	if currentOI <= median {
		return 0
	}
	max := c.oiHistory.Max()
	if max <= median {
		return 0
	}
	percentile := (currentOI - median) / (max - median)
	return oraclemodel.Clamp(percentile*2, 0, 1)
}

// fundingStress is z-score-based once fundingHistory holds >= warmThreshold
// samples, else the cold-start absolute form.
func (c *Calculator) fundingStress(currentFunding float64) float64 {
	if c.fundingHistory.Len() < warmThreshold {
		return math.Min(1, math.Abs(currentFunding)/1e-3)
	}
	mean := c.fundingHistory.Mean()
	std := c.fundingHistory.StdDev()
	if std == 0 {
		return 0
	}
	z := math.Abs(currentFunding-mean) / (3 * std)
	return math.Min(1, z)
}
