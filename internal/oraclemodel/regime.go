package oraclemodel

// RegimeType is a market-regime tag. Regime is a flat value type carrying
// one of these, not a type hierarchy.
type RegimeType string

const (
	RegimeNormal         RegimeType = "NORMAL"
	RegimeTrend          RegimeType = "TREND"
	RegimeLowVolatility  RegimeType = "LOW_VOLATILITY"
	RegimeHighLeverage   RegimeType = "HIGH_LEVERAGE"
	RegimeManipulation   RegimeType = "MANIPULATION"
	RegimeCascade        RegimeType = "CASCADE"
)

// ReversionSpeed is the qualitative decay-rate label from the glossary.
type ReversionSpeed string

const (
	ReversionSlow   ReversionSpeed = "slow"
	ReversionNormal ReversionSpeed = "normal"
	ReversionFast   ReversionSpeed = "fast"
)

// RegimeParameters is the per-regime bundle of Kalman noise multipliers,
// deviation-band scale, and reversion-speed label that a classified regime
// feeds back into the filter and signal generator.
type RegimeParameters struct {
	ProcessNoiseMult     float64
	ObservationNoiseMult float64
	BandMult             float64
	ReversionSpeed       ReversionSpeed
}

// Regime is a market-regime classification with a confidence score.
type Regime struct {
	Type                    RegimeType
	Confidence              float64
	ManipulationProbability float64
}

var regimeParameters = map[RegimeType]RegimeParameters{
	RegimeNormal:        {ProcessNoiseMult: 1.0, ObservationNoiseMult: 1.0, BandMult: 1.0, ReversionSpeed: ReversionNormal},
	RegimeTrend:         {ProcessNoiseMult: 1.2, ObservationNoiseMult: 0.8, BandMult: 0.85, ReversionSpeed: ReversionSlow},
	RegimeLowVolatility: {ProcessNoiseMult: 0.5, ObservationNoiseMult: 0.8, BandMult: 0.8, ReversionSpeed: ReversionFast},
	RegimeHighLeverage:  {ProcessNoiseMult: 1.5, ObservationNoiseMult: 2.0, BandMult: 1.5, ReversionSpeed: ReversionNormal},
	RegimeManipulation:  {ProcessNoiseMult: 0.3, ObservationNoiseMult: 3.0, BandMult: 1.75, ReversionSpeed: ReversionFast},
	RegimeCascade:       {ProcessNoiseMult: 0.5, ObservationNoiseMult: 5.0, BandMult: 2.0, ReversionSpeed: ReversionFast},
}

// Parameters returns the fixed band-multiplier/reversion-speed/noise-mult
// bundle for this regime's type, defaulting to NORMAL for an unrecognized
// tag (defensive against zero-value Regime).
func (r Regime) Parameters() RegimeParameters {
	if p, ok := regimeParameters[r.Type]; ok {
		return p
	}
	return regimeParameters[RegimeNormal]
}

// BandMultiplier is the glossary's per-regime deviation-band scale.
func (r Regime) BandMultiplier() float64 {
	return r.Parameters().BandMult
}

// NewNormalRegime, NewTrendRegime, ... construct Regime values with their
// fixed manipulation-probability priors, except NewManipulationRegime, which
// uses its confidence as the manipulation probability.
func NewNormalRegime(confidence float64) Regime {
	return Regime{Type: RegimeNormal, Confidence: confidence, ManipulationProbability: 0.1}
}

func NewTrendRegime(confidence float64) Regime {
	return Regime{Type: RegimeTrend, Confidence: confidence, ManipulationProbability: 0.1}
}

func NewLowVolatilityRegime(confidence float64) Regime {
	return Regime{Type: RegimeLowVolatility, Confidence: confidence, ManipulationProbability: 0.05}
}

func NewHighLeverageRegime(confidence float64) Regime {
	return Regime{Type: RegimeHighLeverage, Confidence: confidence, ManipulationProbability: 0.4}
}

func NewManipulationRegime(confidence float64) Regime {
	return Regime{Type: RegimeManipulation, Confidence: confidence, ManipulationProbability: confidence}
}

func NewCascadeRegime(confidence float64) Regime {
	return Regime{Type: RegimeCascade, Confidence: confidence, ManipulationProbability: 0.9}
}
