package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/webshop/storefront/internal/constants"
	"github.com/webshop/storefront/internal/log"
	storefront "github.com/webshop/storefront/storefront/cmd"
)

func Start() {
	logger := log.InitLogger("/var/log/webshop.log").
		With().
		Str(log.KeyAppName, constants.AppMainWebshop).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{}
	commands := []*cobra.Command{
		{
			Use:   "storefront",
			Short: "Run storefront service",
			Run: func(cmd *cobra.Command, args []string) {
				storefront.RunStorefrontService(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
