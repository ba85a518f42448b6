package kalman

import (
	"sort"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// CovarianceManager builds the per-venue observation variances R from
// leverage stress, order-book quality, cascade status, and stablecoin flow
// context. The time-varying process noise Q is the filter's base Q, scaled
// in Filter.Predict by the multiplier from ProcessNoiseMult.
type CovarianceManager struct {
	cfg config.KalmanConfig
}

// NewCovarianceManager builds a CovarianceManager from Kalman configuration.
func NewCovarianceManager(cfg config.KalmanConfig) *CovarianceManager {
	return &CovarianceManager{cfg: cfg}
}

// ObservationVariance computes R_i for one venue, honoring the venue-weight
// adjustment from the stablecoin analyzer (higher weight divides the
// variance down). quality is used as given; the orchestrator passes 1.0 for
// a venue absent from the order-book-quality collaborator's snapshot.
func (m *CovarianceManager) ObservationVariance(
	venue oraclemodel.VenueDescriptor,
	stress oraclemodel.LeverageStress,
	quality float64,
	isCascade bool,
	stable oraclemodel.StablecoinState,
	venueWeight float64,
) float64 {
	base := m.cfg.BaseObservationVar
	r := base * (2 - venue.BaseReliability)
	r *= 1 + 5*stress.Score
	r *= 1 + 3*(1-quality)
	if isCascade {
		r *= 10
	}
	r *= stable.USDTImpact.VolatilityMultiplier
	if stable.USDCImpact.RegimeSignal == oraclemodel.USDCTrend {
		r *= 0.9
	}
	if venue.HasDerivatives && stable.FlowRatio.USDTDominant {
		r *= 1.5
	}
	if venueWeight > 0 {
		r /= venueWeight
	}
	if r <= 0 {
		r = base
	}
	return r
}

// ProcessNoiseMult composes the stablecoin-driven and regime-driven process
// noise multipliers; regime parameters apply after the stablecoin ones,
// never instead of them.
func ProcessNoiseMult(stablecoinMult, regimeMult float64) float64 {
	return stablecoinMult * regimeMult
}

// Median returns the plain (untrimmed) median of prices, 0 for an empty
// slice.
func Median(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// TrimmedWeightedMedian is a reliability-weighted, trimPct-trimmed median.
// It is an auxiliary reference point (TruePriceEstimate.RobustSpotMedian),
// never a substitute for the plain spot median. prices and weights must be
// equal length; weights need not be normalized. trimPct is the fraction
// trimmed from each tail (e.g. 0.1 for 10%).
func TrimmedWeightedMedian(prices, weights []float64, trimPct float64) float64 {
	n := len(prices)
	if n == 0 || len(weights) != n {
		return 0
	}
	type pw struct {
		price  float64
		weight float64
	}
	pairs := make([]pw, n)
	for i := range pairs {
		pairs[i] = pw{prices[i], weights[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].price < pairs[j].price })

	trim := int(float64(n) * trimPct)
	if 2*trim >= n {
		trim = 0
	}
	trimmed := pairs[trim : n-trim]
	if len(trimmed) == 0 {
		trimmed = pairs
	}

	var totalWeight float64
	for _, p := range trimmed {
		totalWeight += p.weight
	}
	if totalWeight <= 0 {
		return Median(prices)
	}

	half := totalWeight / 2
	var cum float64
	for _, p := range trimmed {
		cum += p.weight
		if cum >= half {
			return p.price
		}
	}
	return trimmed[len(trimmed)-1].price
}
