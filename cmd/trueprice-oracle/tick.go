package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oracle"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// tickResult is the JSON-serializable shape printed by the tick command.
type tickResult struct {
	Price           float64 `json:"price"`
	Std             float64 `json:"std"`
	CI95Lo          float64 `json:"ci95_lo"`
	CI95Hi          float64 `json:"ci95_hi"`
	DeviationZScore float64 `json:"deviation_zscore"`
	SpotMedian      float64 `json:"spot_median"`
	Regime          string  `json:"regime"`
	Timestamp       int64   `json:"timestamp"`
	DataHash        string  `json:"data_hash"`
	Signal          string  `json:"signal"`
}

// tickCmd is a thin manual-inspection tool: it runs exactly one
// orchestrator update against fixture input and prints the resulting
// estimate and signal. It never fetches live data.
func tickCmd(ctx context.Context) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run a single orchestrator update against fixture input and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("tick: %w", err)
				}
				cfg = loaded
			}

			orch, err := oracle.New(cfg)
			if err != nil {
				return fmt.Errorf("tick: %w", err)
			}

			prices := map[string]float64{"binance": 30000, "coinbase": 30010, "okx": 30005}
			leverageState := oraclemodel.LeverageState{
				OpenInterest:        5_000_000_000,
				FundingRate:         1e-4,
				LongLiquidations1h:  1_000_000,
				ShortLiquidations1h: 1_000_000,
			}
			flow := oraclemodel.StablecoinFlowData{
				USDTMintVolume24h: 1e8,
				USDCMintVolume24h: 2e8,
			}

			estimate, err := orch.Update(prices, leverageState, flow, nil, nil, 0, 1e9, 0.3)
			if err != nil {
				log.Warn().Err(err).Msg("tick failed")
				return fmt.Errorf("tick: %w", err)
			}
			sig, err := orch.GenerateSignal()
			if err != nil {
				return fmt.Errorf("tick: %w", err)
			}

			result := tickResult{
				Price:           estimate.Price,
				Std:             estimate.Std,
				CI95Lo:          estimate.CI95.Lo,
				CI95Hi:          estimate.CI95.Hi,
				DeviationZScore: estimate.DeviationZScore,
				SpotMedian:      estimate.SpotMedian,
				Regime:          string(estimate.Regime.Type),
				Timestamp:       estimate.Timestamp,
				DataHash:        fmt.Sprintf("%x", estimate.DataHash),
				Signal:          string(sig.Type),
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a yaml configuration file (defaults to built-in defaults)")
	return cmd
}
