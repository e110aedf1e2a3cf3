package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/app"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List drivers known to the routing service",
	RunE:  runDrivers,
}

func init() {
	rootCmd.AddCommand(driversCmd)
}

func runDrivers(cmd *cobra.Command, args []string) error {
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
	drivers, err := client.ListDrivers(ctx)
	if err != nil {
		return err
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].Name < drivers[j].Name })
	for _, d := range drivers {
		marker := ""
		if !d.Active {
			marker = " (inactive)"
		}
		fmt.Printf("%-24s %s <%s>%s\n", d.ID, d.Name, d.Email, marker)
	}
	return nil
}
