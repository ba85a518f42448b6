package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute builds and runs the trueprice-oracle root command.
func Execute(ctx context.Context) error {
	root := &cobra.Command{Use: "trueprice-oracle", Short: "True-price oracle CLI"}
	root.AddCommand(tickCmd(ctx))
	log.Info().Msg("trueprice-oracle starting")
	return root.ExecuteContext(ctx)
}
