package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/app"
	"github.com/routeup/routeup/core/dispatch"
	"github.com/routeup/routeup/core/events"
	"github.com/routeup/routeup/core/model"
	"github.com/routeup/routeup/infra/console"
	"github.com/routeup/routeup/internal/eventbus"
	"github.com/routeup/routeup/pkg/export"
	"github.com/routeup/routeup/pkg/intake"
)

var (
	uploadInput      string
	uploadDate       string
	uploadOut        string
	uploadReport     string
	uploadDistribute bool
	uploadInactive   bool
	uploadAssign     []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload route manifests and drive them through the plan lifecycle",
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadInput, "input", "i", "", "manifest CSV file or directory of CSVs")
	uploadCmd.Flags().StringVar(&uploadDate, "date", "", "plan start date YYYY-MM-DD (default: the soonest Friday)")
	uploadCmd.Flags().StringVarP(&uploadOut, "out", "o", "upload_results.csv", "outcome table path, format by extension (.csv or .json)")
	uploadCmd.Flags().StringVar(&uploadReport, "report", "", "also write an HTML report to this path")
	uploadCmd.Flags().BoolVar(&uploadDistribute, "distribute", false, "push optimized plans to drivers")
	uploadCmd.Flags().BoolVar(&uploadInactive, "allow-inactive", false, "accept routes assigned to inactive drivers")
	uploadCmd.Flags().StringArrayVar(&uploadAssign, "assign", nil, "route=driver pairs for unattended runs (repeatable)")
	_ = uploadCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("distribute") {
		cfg.Dispatch.Distribute = uploadDistribute
	}
	if uploadInactive {
		cfg.Dispatch.AllowInactiveDrivers = true
	}

	startDate, err := resolveStartDate(uploadDate)
	if err != nil {
		return err
	}
	stops, err := intake.Read(uploadInput)
	if err != nil {
		return err
	}

	var strategy dispatch.ConfirmStrategy = console.New()
	if len(uploadAssign) > 0 {
		assignments, err := parseAssignments(uploadAssign)
		if err != nil {
			return err
		}
		strategy = dispatch.StaticStrategy{Assignments: assignments}
	}

	svc, err := app.New(cfg, strategy)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "service close: %v\n", err)
		}
	}()
	svc.Start(ctx)
	if verbose {
		go printProgress(svc.Bus.Subscribe())
	}

	records, runErr := svc.Manager.UploadRoutes(ctx, stops, dispatch.UploadOptions{
		StartDate:  startDate,
		Distribute: cfg.Dispatch.Distribute,
	})

	// The table is written even when the run failed partway.
	if len(records) > 0 {
		if err := writeOutcome(uploadOut, uploadReport, records); err != nil {
			if runErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "write outcome: %v\n", err)
				return runErr
			}
			return err
		}
		fmt.Printf("outcome table written to %s\n", uploadOut)
	}
	return runErr
}

// resolveStartDate parses an explicit YYYY-MM-DD date, or picks the soonest
// Friday when none is given. Deliveries go out on Fridays.
func resolveStartDate(flag string) (time.Time, error) {
	if flag == "" {
		return soonestFriday(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", flag)
	}
	return t, nil
}

func soonestFriday(now time.Time) time.Time {
	days := int((time.Friday - now.Weekday() + 7) % 7)
	day := now.AddDate(0, 0, days)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

func parseAssignments(pairs []string) (map[string]string, error) {
	assignments := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		route, driver, ok := strings.Cut(pair, "=")
		if !ok || route == "" || driver == "" {
			return nil, fmt.Errorf("invalid --assign %q: expected route=driver", pair)
		}
		assignments[route] = driver
	}
	return assignments, nil
}

func printProgress(sub <-chan eventbus.Event) {
	for ev := range sub {
		switch e := ev.(type) {
		case events.StageEvent:
			status := "ok"
			if e.Unknown {
				status = "unknown"
			} else if !e.OK {
				status = "failed"
			}
			fmt.Printf("  %-24s %-16s %s\n", e.RouteTitle, e.Stage, status)
		case events.RunFinished:
			fmt.Printf("run %s: %d routes, %d failed, %s\n",
				e.RunID, e.Routes, e.Failed, e.Duration.Round(time.Millisecond))
		}
	}
}

func writeOutcome(out, report string, records []model.PlanRecord) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".json":
		err = export.WriteJSON(f, records)
	default:
		err = export.WriteCSV(f, records)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if report == "" {
		return nil
	}
	html, err := export.ChartHTML(records)
	if err != nil {
		return err
	}
	return os.WriteFile(report, []byte(html), 0o644)
}
