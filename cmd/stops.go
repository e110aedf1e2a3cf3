package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/app"
)

var stopsCmd = &cobra.Command{
	Use:   "stops <plan-id>",
	Short: "List the stops of a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runStops,
}

func init() {
	rootCmd.AddCommand(stopsCmd)
}

func runStops(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := app.NewClient(cfg)
	if err != nil {
		return err
	}
	stops, err := client.ListPlanStops(ctx, args[0])
	if err != nil {
		return err
	}
	for _, s := range stops {
		fmt.Printf("%-36s %-40s %d package(s)\n", s.ID, s.Address.Name, s.PackageCount)
	}
	fmt.Printf("%d stops\n", len(stops))
	return nil
}
