package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/app"
	"github.com/routeup/routeup/core/circuit"
)

var (
	plansFrom string
	plansTo   string
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List plans, optionally bounded by start date",
	RunE:  runPlans,
}

func init() {
	plansCmd.Flags().StringVar(&plansFrom, "from", "", "earliest start date YYYY-MM-DD")
	plansCmd.Flags().StringVar(&plansTo, "to", "", "latest start date YYYY-MM-DD")
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, args []string) error {
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
	plans, err := client.ListPlans(ctx, circuit.PlanFilter{StartsGte: plansFrom, StartsLte: plansTo})
	if err != nil {
		return err
	}
	for _, p := range plans {
		state := "writable"
		if !p.Writable {
			state = "locked"
		}
		if p.Distributed {
			state += ", distributed"
		}
		fmt.Printf("%-28s %04d-%02d-%02d  %-24s (%s)\n",
			p.ID, p.Starts.Year, p.Starts.Month, p.Starts.Day, p.Title, state)
	}
	return nil
}
