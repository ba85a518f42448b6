// Package config loads and validates the immutable oracle configuration:
// Kalman filter parameters, stablecoin-flow thresholds, regime and cascade
// thresholds, signal-generation parameters, and the venue list.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KalmanConfig configures the two-state Kalman filter.
type KalmanConfig struct {
	InitialPrice       float64 `yaml:"initial_price"`
	InitialDrift       float64 `yaml:"initial_drift"`
	InitialPriceVar    float64 `yaml:"initial_price_var"`
	InitialDriftVar    float64 `yaml:"initial_drift_var"`
	ProcessNoisePrice  float64 `yaml:"process_noise_price"`
	ProcessNoiseDrift  float64 `yaml:"process_noise_drift"`
	DriftPersistence   float64 `yaml:"drift_persistence"` // rho in (0,1)
	BaseObservationVar float64 `yaml:"base_observation_var"`
}

// StablecoinConfig configures the stablecoin flow analyzer.
type StablecoinConfig struct {
	USDTVolatilityMultBase     float64 `yaml:"usdt_volatility_mult_base"`
	USDTVolatilityMultMax      float64 `yaml:"usdt_volatility_mult_max"`
	USDTTypicalMintVolume      float64 `yaml:"usdt_typical_mint_volume"`
	USDTTypicalDerivativesFlow float64 `yaml:"usdt_typical_derivatives_flow"`

	USDCDriftConfidenceMax  float64 `yaml:"usdc_drift_confidence_max"`
	USDCTypicalSpotFlow     float64 `yaml:"usdc_typical_spot_flow"`
	USDCTypicalCustodyFlow  float64 `yaml:"usdc_typical_custody_flow"`

	ManipulationRatioThreshold float64 `yaml:"manipulation_ratio_threshold"`
	TrendRatioThreshold        float64 `yaml:"trend_ratio_threshold"`
}

// RegimeConfig configures the regime classifier.
type RegimeConfig struct {
	LeverageStressHigh        float64 `yaml:"leverage_stress_high"`
	VolatilityLowThreshold    float64 `yaml:"volatility_low_threshold"`
	ManipulationProbThreshold float64 `yaml:"manipulation_prob_threshold"`
}

// SignalConfig configures the trading-signal generator.
type SignalConfig struct {
	MinZScoreThreshold   float64 `yaml:"min_zscore_threshold"`
	BaseConfidence       float64 `yaml:"base_confidence"`
	ZScoreConfidenceScale float64 `yaml:"zscore_confidence_scale"`
	BaseReversionHours   float64 `yaml:"base_reversion_hours"`
}

// CascadeConfig configures the liquidation-cascade detector.
type CascadeConfig struct {
	CascadeThreshold         float64 `yaml:"cascade_threshold"`
	TypicalLiquidationVolume float64 `yaml:"typical_liquidation_volume"`
}

// LeverageStressConfig configures the leverage-stress calculator.
type LeverageStressConfig struct {
	TypicalOI                float64 `yaml:"typical_oi"`
	TypicalLiquidationVolume float64 `yaml:"typical_liquidation_volume"`
	RingBufferCapacity       int     `yaml:"ring_buffer_capacity"`
}

// VenueConfig is the yaml-loadable form of a VenueDescriptor.
type VenueConfig struct {
	Name             string  `yaml:"name"`
	BaseReliability  float64 `yaml:"base_reliability"`
	HasDerivatives   bool    `yaml:"has_derivatives"`
	DerivativesRatio float64 `yaml:"derivatives_ratio"`
	IsDecentralized  bool    `yaml:"is_decentralized"`
	USDCPrimary      bool    `yaml:"usdc_primary"`
}

// Config is the single immutable configuration object for the oracle.
type Config struct {
	Kalman         KalmanConfig         `yaml:"kalman"`
	Stablecoin     StablecoinConfig     `yaml:"stablecoin"`
	Regime         RegimeConfig         `yaml:"regime"`
	Signal         SignalConfig         `yaml:"signal"`
	Cascade        CascadeConfig        `yaml:"cascade"`
	LeverageStress LeverageStressConfig `yaml:"leverage_stress"`
	Venues         []VenueConfig        `yaml:"venues"`
}

// DefaultConfig returns the documented production defaults for every
// component, overridable field-by-field from a yaml file via LoadConfig.
func DefaultConfig() *Config {
	return &Config{
		Kalman: KalmanConfig{
			InitialPrice:       0,
			InitialDrift:       0,
			InitialPriceVar:    100,
			InitialDriftVar:    1,
			ProcessNoisePrice:  1,
			ProcessNoiseDrift:  0.01,
			DriftPersistence:   0.99,
			BaseObservationVar: 10,
		},
		Stablecoin: StablecoinConfig{
			USDTVolatilityMultBase:     1,
			USDTVolatilityMultMax:      3,
			USDTTypicalMintVolume:      500_000_000,
			USDTTypicalDerivativesFlow: 300_000_000,
			USDCDriftConfidenceMax:     0.1,
			USDCTypicalSpotFlow:        200_000_000,
			USDCTypicalCustodyFlow:     100_000_000,
			ManipulationRatioThreshold: 2.0,
			TrendRatioThreshold:        0.5,
		},
		Regime: RegimeConfig{
			LeverageStressHigh:        0.7,
			VolatilityLowThreshold:    0.2,
			ManipulationProbThreshold: 0.7,
		},
		Signal: SignalConfig{
			MinZScoreThreshold:    1.5,
			BaseConfidence:        0.5,
			ZScoreConfidenceScale: 0.1,
			BaseReversionHours:    4.0,
		},
		Cascade: CascadeConfig{
			CascadeThreshold:         0.7,
			TypicalLiquidationVolume: 50_000_000,
		},
		LeverageStress: LeverageStressConfig{
			TypicalOI:                10_000_000_000,
			TypicalLiquidationVolume: 50_000_000,
			RingBufferCapacity:       2160,
		},
		Venues: []VenueConfig{
			{Name: "binance", BaseReliability: 0.5, HasDerivatives: true, DerivativesRatio: 0.7},
			{Name: "coinbase", BaseReliability: 0.8, USDCPrimary: true},
			{Name: "okx", BaseReliability: 0.5, HasDerivatives: true, DerivativesRatio: 0.6},
			{Name: "kraken", BaseReliability: 0.8},
			{Name: "uniswap", BaseReliability: 0.6, IsDecentralized: true},
		},
	}
}

// LoadConfig reads and validates a yaml configuration file. Any validation
// failure aborts initialization.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the documented bounds. No partial configuration is
// accepted: the first violation aborts with a descriptive error.
func (c *Config) Validate() error {
	if len(c.Venues) == 0 {
		return fmt.Errorf("config: at least one venue is required")
	}
	seen := make(map[string]bool, len(c.Venues))
	for _, v := range c.Venues {
		if v.Name == "" {
			return fmt.Errorf("config: venue name must not be empty")
		}
		if seen[v.Name] {
			return fmt.Errorf("config: duplicate venue name %q", v.Name)
		}
		seen[v.Name] = true
		if v.BaseReliability < 0 || v.BaseReliability > 1 {
			return fmt.Errorf("config: venue %q base_reliability must be in [0,1], got %v", v.Name, v.BaseReliability)
		}
		if v.DerivativesRatio < 0 || v.DerivativesRatio > 1 {
			return fmt.Errorf("config: venue %q derivatives_ratio must be in [0,1], got %v", v.Name, v.DerivativesRatio)
		}
	}
	if c.Kalman.DriftPersistence <= 0 || c.Kalman.DriftPersistence >= 1 {
		return fmt.Errorf("config: kalman.drift_persistence must be in (0,1), got %v", c.Kalman.DriftPersistence)
	}
	if c.Kalman.BaseObservationVar <= 0 {
		return fmt.Errorf("config: kalman.base_observation_var must be > 0, got %v", c.Kalman.BaseObservationVar)
	}
	if c.Kalman.InitialPriceVar <= 0 || c.Kalman.InitialDriftVar <= 0 {
		return fmt.Errorf("config: kalman initial variances must be > 0")
	}
	if c.Stablecoin.USDTVolatilityMultMax < c.Stablecoin.USDTVolatilityMultBase {
		return fmt.Errorf("config: stablecoin.usdt_volatility_mult_max must be >= usdt_volatility_mult_base")
	}
	if c.Stablecoin.TrendRatioThreshold <= 0 || c.Stablecoin.ManipulationRatioThreshold <= c.Stablecoin.TrendRatioThreshold {
		return fmt.Errorf("config: stablecoin ratio thresholds must satisfy 0 < trend_ratio_threshold < manipulation_ratio_threshold")
	}
	if c.Signal.MinZScoreThreshold < 0 {
		return fmt.Errorf("config: signal.min_zscore_threshold must be >= 0")
	}
	for name, v := range map[string]float64{
		"regime.leverage_stress_high":        c.Regime.LeverageStressHigh,
		"regime.manipulation_prob_threshold": c.Regime.ManipulationProbThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s must be in [0,1], got %v", name, v)
		}
	}
	if c.LeverageStress.RingBufferCapacity <= 0 {
		return fmt.Errorf("config: leverage_stress.ring_buffer_capacity must be > 0")
	}
	return nil
}
