package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/infra/circuitmock"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local mock of the routing API",
	Long: `Run an in-process mock of the routing API for local testing.
It serves the plan, stop, optimization and driver endpoints with
configurable drivers and rate-limit behaviour.`,
	RunE: runMock,
}

func init() {
	rootCmd.AddCommand(mockCmd)
}

func runMock(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return circuitmock.NewServer(cfg.Mock).Start(ctx)
}
