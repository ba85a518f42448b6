// Package oracle wires the stablecoin analyzer, leverage-stress calculator,
// cascade detector, Kalman filter, regime classifier, and signal generator
// into a single-tick orchestrator.
package oracle

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/trueprice/internal/cascade"
	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/feedguard"
	"github.com/sawpanic/trueprice/internal/kalman"
	"github.com/sawpanic/trueprice/internal/leverage"
	"github.com/sawpanic/trueprice/internal/money"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
	"github.com/sawpanic/trueprice/internal/regime"
	"github.com/sawpanic/trueprice/internal/signal"
	"github.com/sawpanic/trueprice/internal/stablecoin"
)

// Orchestrator runs one tick at a time, always in the same order: flows ->
// cascade -> stress -> predict -> build R -> update -> regime -> estimate.
// It is the sole owner of the Kalman filter state and the leverage-stress
// ring buffers; it is not safe for concurrent use.
type Orchestrator struct {
	cfg *config.Config

	filter     *kalman.Filter
	covariance *kalman.CovarianceManager
	stableAn   *stablecoin.Analyzer
	stress     *leverage.Calculator
	cascadeDet *cascade.Detector
	precascade cascade.PrecascadeRiskCalculator
	classifier *regime.Classifier
	signalGen  *signal.Generator
	guard      *feedguard.Guard

	venues []oraclemodel.VenueDescriptor

	lastEstimate *oraclemodel.TruePriceEstimate
	lastStable   oraclemodel.StablecoinState
	lastStress   oraclemodel.LeverageStress
	lastLeverage oraclemodel.LeverageState
	haveLast     bool
}

// New validates cfg and builds an Orchestrator with every component wired.
// Configuration errors abort construction.
func New(cfg *config.Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("oracle: invalid configuration: %w", err)
	}

	venues := make([]oraclemodel.VenueDescriptor, len(cfg.Venues))
	for i, v := range cfg.Venues {
		venues[i] = oraclemodel.VenueDescriptor{
			Name:             v.Name,
			BaseReliability:  v.BaseReliability,
			HasDerivatives:   v.HasDerivatives,
			DerivativesRatio: v.DerivativesRatio,
			IsDecentralized:  v.IsDecentralized,
			USDCPrimary:      v.USDCPrimary,
		}
	}

	return &Orchestrator{
		cfg:        cfg,
		filter:     kalman.New(cfg.Kalman),
		covariance: kalman.NewCovarianceManager(cfg.Kalman),
		stableAn:   stablecoin.NewAnalyzer(cfg.Stablecoin),
		stress:     leverage.NewCalculator(cfg.LeverageStress),
		cascadeDet: cascade.NewDetector(cfg.Cascade),
		classifier: regime.NewClassifier(cfg.Regime),
		signalGen:  signal.NewGenerator(cfg.Signal),
		guard:      feedguard.New(),
		venues:     venues,
	}, nil
}

// lastRegimeParameters returns the regime parameter bundle from the
// previous tick's classification, or NORMAL's bundle before the first
// classified tick. Regime classification happens after Predict/Update in
// the per-tick order, so this tick's noise multipliers carry forward the
// regime last observed rather than the one about to be classified.
func (o *Orchestrator) lastRegimeParameters() oraclemodel.RegimeParameters {
	if o.lastEstimate == nil {
		return oraclemodel.Regime{Type: oraclemodel.RegimeNormal}.Parameters()
	}
	return o.lastEstimate.Regime.Parameters()
}

// Update runs one complete tick and returns the resulting TruePriceEstimate.
// venuePrices must carry at least one entry or the tick fails with
// InsufficientObservationsError and leaves filter state unchanged.
// orderbookQualities may be nil or partial; missing venues default to 1.0.
// realizedPrice is nil when the optional collaborator's input is absent.
func (o *Orchestrator) Update(
	venuePrices map[string]float64,
	leverageState oraclemodel.LeverageState,
	flow oraclemodel.StablecoinFlowData,
	realizedPrice *float64,
	orderbookQualities map[string]float64,
	priceReturn5m float64,
	spotVolume5m float64,
	volatilityAnnualized float64,
) (oraclemodel.TruePriceEstimate, error) {
	if len(venuePrices) == 0 {
		return oraclemodel.TruePriceEstimate{}, &oraclemodel.InsufficientObservationsError{VenueCount: 0}
	}
	if err := validateTickInputs(venuePrices, realizedPrice, orderbookQualities,
		priceReturn5m, spotVolume5m, volatilityAnnualized); err != nil {
		return oraclemodel.TruePriceEstimate{}, err
	}
	if err := leverageState.Validate(); err != nil {
		return oraclemodel.TruePriceEstimate{}, err
	}
	if err := flow.Validate(); err != nil {
		return oraclemodel.TruePriceEstimate{}, err
	}

	orderedNames, orderedPrices := o.orderedObservations(venuePrices)
	if len(orderedPrices) == 0 {
		// every supplied price named a venue outside the configured set
		return oraclemodel.TruePriceEstimate{}, &oraclemodel.InsufficientObservationsError{VenueCount: 0}
	}
	if !o.filter.Initialized() {
		o.filter.Init(kalman.Median(orderedPrices))
	}

	stableState := o.stableAn.Analyze(flow, &leverageState)
	cascadeDet := o.cascadeDet.Detect(leverageState, priceReturn5m, spotVolume5m, stableState)

	priceReturn1h := priceReturn5m * 12
	stress := o.stress.Calculate(leverageState, priceReturn1h, &stableState)

	kalmanAdj := stablecoin.KalmanAdjustmentsFor(stableState, o.venues)
	regimeParams := o.lastRegimeParameters()
	processNoiseMult := kalman.ProcessNoiseMult(kalmanAdj.ProcessNoiseMult, regimeParams.ProcessNoiseMult)
	o.filter.Predict(processNoiseMult)

	z, r := o.buildObservations(orderedNames, orderedPrices, leverageState, stress, cascadeDet, stableState,
		kalmanAdj, regimeParams, orderbookQualities, realizedPrice)

	if err := o.filter.Update(z, r); err != nil {
		return oraclemodel.TruePriceEstimate{}, err
	}

	spotMedian := kalman.Median(orderedPrices)
	zscore := o.filter.ZScore(spotMedian)
	newRegime := o.classifier.Classify(cascadeDet, stress, stableState, volatilityAnnualized)

	now := time.Now().Unix()
	if o.lastEstimate != nil && now < o.lastEstimate.Timestamp {
		now = o.lastEstimate.Timestamp
	}

	estimate := oraclemodel.TruePriceEstimate{
		Price:            o.filter.TruePrice(),
		Std:              o.filter.Std(),
		CI95:             o.filter.ConfidenceInterval95(),
		DeviationZScore:  zscore,
		SpotMedian:       spotMedian,
		Regime:           newRegime,
		Timestamp:        now,
		DataHash:         money.DataHash(venuePrices, leverageState.OpenInterest, flow.USDTMintVolume24h, flow.USDCMintVolume24h),
		RobustSpotMedian: o.robustSpotMedian(orderedNames, orderedPrices),
		CorrelationID:    uuid.New(),
	}

	o.lastEstimate = &estimate
	o.lastStable = stableState
	o.lastStress = stress
	o.lastLeverage = leverageState
	o.haveLast = true

	log.Debug().
		Str("regime", string(estimate.Regime.Type)).
		Float64("price", estimate.Price).
		Float64("zscore", estimate.DeviationZScore).
		Str("correlation_id", estimate.CorrelationID.String()).
		Msg("oracle tick complete")

	return estimate, nil
}

// validateTickInputs fails fast on any non-finite or out-of-bound tick
// input; the core never recovers silently from invalid numerics.
func validateTickInputs(
	venuePrices map[string]float64,
	realizedPrice *float64,
	orderbookQualities map[string]float64,
	priceReturn5m, spotVolume5m, volatilityAnnualized float64,
) error {
	for name, price := range venuePrices {
		q := oraclemodel.VenueQuote{VenueName: name, Price: price}
		if err := q.Validate(); err != nil {
			return err
		}
	}
	if realizedPrice != nil {
		if math.IsNaN(*realizedPrice) || math.IsInf(*realizedPrice, 0) || *realizedPrice <= 0 {
			return &oraclemodel.InvalidInputError{Field: "realizedPrice", Reason: "must be finite and > 0"}
		}
	}
	for name, quality := range orderbookQualities {
		if math.IsNaN(quality) || quality < 0 || quality > 1 {
			return &oraclemodel.InvalidInputError{Field: "orderbookQualities[" + name + "]", Reason: "must be in [0,1]"}
		}
	}
	for field, v := range map[string]float64{
		"priceReturn5m":        priceReturn5m,
		"spotVolume5m":         spotVolume5m,
		"volatilityAnnualized": volatilityAnnualized,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &oraclemodel.InvalidInputError{Field: field, Reason: "must be finite"}
		}
	}
	if spotVolume5m < 0 {
		return &oraclemodel.InvalidInputError{Field: "spotVolume5m", Reason: "must be >= 0"}
	}
	if volatilityAnnualized < 0 {
		return &oraclemodel.InvalidInputError{Field: "volatilityAnnualized", Reason: "must be >= 0"}
	}
	return nil
}

// orderedObservations returns the venue names present in both the config's
// fixed order and venuePrices, paired with their prices.
func (o *Orchestrator) orderedObservations(venuePrices map[string]float64) ([]string, []float64) {
	names := make([]string, 0, len(venuePrices))
	prices := make([]float64, 0, len(venuePrices))
	for _, v := range o.venues {
		if p, ok := venuePrices[v.Name]; ok {
			names = append(names, v.Name)
			prices = append(prices, p)
		}
	}
	return names, prices
}

func (o *Orchestrator) venueDescriptor(name string) oraclemodel.VenueDescriptor {
	for _, v := range o.venues {
		if v.Name == name {
			return v
		}
	}
	return oraclemodel.VenueDescriptor{Name: name, BaseReliability: 0.5}
}

func (o *Orchestrator) buildObservations(
	names []string,
	prices []float64,
	leverageState oraclemodel.LeverageState,
	stress oraclemodel.LeverageStress,
	cascadeDet oraclemodel.CascadeDetection,
	stable oraclemodel.StablecoinState,
	kalmanAdj stablecoin.KalmanAdjustments,
	regimeParams oraclemodel.RegimeParameters,
	orderbookQualities map[string]float64,
	realizedPrice *float64,
) ([]float64, []float64) {
	z := make([]float64, 0, len(prices)+1)
	r := make([]float64, 0, len(prices)+1)

	for i, name := range names {
		venue := o.venueDescriptor(name)
		quality, ok := orderbookQualities[name]
		if !ok {
			quality = 1.0
		}
		weight := kalmanAdj.VenueWeightAdjustments[name]
		if weight == 0 {
			weight = 1.0
		}
		variance := o.covariance.ObservationVariance(venue, stress, quality, cascadeDet.IsCascade, stable, weight)
		variance *= regimeParams.ObservationNoiseMult

		z = append(z, prices[i])
		r = append(r, variance)
	}

	if realizedPrice != nil {
		z = append(z, *realizedPrice)
		r = append(r, 0.5*o.cfg.Kalman.BaseObservationVar)
	}

	return z, r
}

func (o *Orchestrator) robustSpotMedian(names []string, prices []float64) float64 {
	weights := make([]float64, len(names))
	for i, name := range names {
		weights[i] = o.venueDescriptor(name).BaseReliability
		if weights[i] <= 0 {
			weights[i] = 0.1
		}
	}
	return kalman.TrimmedWeightedMedian(prices, weights, 0.1)
}

// GenerateSignal runs the signal generator on the cached last estimate and
// stablecoin state. Returns an error if no tick has run yet.
func (o *Orchestrator) GenerateSignal() (oraclemodel.Signal, error) {
	if !o.haveLast {
		return oraclemodel.Signal{}, fmt.Errorf("oracle: GenerateSignal called before any Update")
	}
	return o.signalGen.Generate(
		o.lastEstimate.DeviationZScore,
		o.lastEstimate.SpotMedian,
		o.lastEstimate.Price,
		o.lastEstimate.Regime,
		o.lastStress,
		o.lastStable,
	), nil
}

// PrecascadeRisk runs the precascade-risk calculator against the cached
// last leverage and stablecoin state. Purely diagnostic; it never overrides
// the priority-ordered regime classification.
func (o *Orchestrator) PrecascadeRisk(distanceToCluster, orderbookThinness float64) (float64, error) {
	if !o.haveLast {
		return 0, fmt.Errorf("oracle: PrecascadeRisk called before any Update")
	}
	return o.precascade.ComputeRisk(o.lastLeverage, distanceToCluster, orderbookThinness, o.lastStable), nil
}

// Reseed forces the filter to re-initialize at price, rate-limited via
// feedguard to prevent a misbehaving caller from hammering resets. Returns
// an error if the rate limit rejects the call.
func (o *Orchestrator) Reseed(ctx context.Context, price float64) error {
	if !o.guard.AllowReseed() {
		return fmt.Errorf("oracle: reseed rate-limited")
	}
	o.filter.Init(price)
	log.Warn().Float64("price", price).Msg("oracle filter reseeded")
	return nil
}

// UpdateFromSources resolves the optional realized-price and order-book-
// quality collaborators through the circuit breaker before delegating to
// Update. A tripped breaker or a collaborator error degrades that input to
// absent rather than failing the tick.
func (o *Orchestrator) UpdateFromSources(
	ctx context.Context,
	venuePrices map[string]float64,
	leverageState oraclemodel.LeverageState,
	flow oraclemodel.StablecoinFlowData,
	priceSrc feedguard.RealizedPriceSource,
	qualitySrc feedguard.OrderBookQualitySource,
	priceReturn5m float64,
	spotVolume5m float64,
	volatilityAnnualized float64,
) (oraclemodel.TruePriceEstimate, error) {
	var realizedPrice *float64
	if price, ok := o.guard.RealizedPrice(ctx, priceSrc); ok {
		realizedPrice = &price
	}
	qualities := o.guard.OrderBookQuality(ctx, qualitySrc)

	return o.Update(venuePrices, leverageState, flow, realizedPrice, qualities,
		priceReturn5m, spotVolume5m, volatilityAnnualized)
}
