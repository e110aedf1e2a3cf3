package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/app"
	"github.com/routeup/routeup/core/dispatch/journal"
)

var (
	journalRoute  string
	journalStage  string
	journalStatus string
	journalRun    string
	journalSince  string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the journal of past upload runs",
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&journalRoute, "route", "", "only entries for this route title")
	journalCmd.Flags().StringVar(&journalStage, "stage", "", "only entries for this stage")
	journalCmd.Flags().StringVar(&journalStatus, "status", "", "only entries with this status (ok, failed, unknown)")
	journalCmd.Flags().StringVar(&journalRun, "run", "", "only entries from this run id")
	journalCmd.Flags().StringVar(&journalSince, "since", "", "only entries on or after this date YYYY-MM-DD")
	rootCmd.AddCommand(journalCmd)
}

// runJournal reads the configured store directly, no credentials needed.
func runJournal(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Backend == "" || cfg.Journal.Backend == "nop" {
		return fmt.Errorf("no journal backend configured")
	}
	q := journal.Query{
		RunID:      journalRun,
		RouteTitle: journalRoute,
		Stage:      journalStage,
		Status:     journalStatus,
	}
	if journalSince != "" {
		start, err := time.Parse("2006-01-02", journalSince)
		if err != nil {
			return fmt.Errorf("invalid --since %q: expected YYYY-MM-DD", journalSince)
		}
		q.Start = start
	}
	store, err := app.OpenJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Query(ctx, q)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-10.10s %-24s %-16s %-8s %s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.RunID, e.RouteTitle, e.Stage, e.Status, e.Detail)
	}
	fmt.Printf("%d entries\n", len(entries))
	return nil
}
