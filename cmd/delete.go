package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routeup/routeup/app"
	"github.com/routeup/routeup/core/dispatch"
)

var deleteFile string

var deleteCmd = &cobra.Command{
	Use:   "delete [plan-id ...]",
	Short: "Delete plans by id or from a CSV with a plan_id column",
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteFile, "file", "", "CSV file naming plans to delete (plan_id column)")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := args
	if deleteFile != "" {
		fromFile, err := planIDsFromFile(deleteFile)
		if err != nil {
			return err
		}
		ids = append(ids, fromFile...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("nothing to delete: pass plan ids or --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, dispatch.StaticStrategy{})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "service close: %v\n", err)
		}
	}()
	svc.Start(ctx)

	deleted, err := svc.Manager.DeletePlans(ctx, ids)
	for _, id := range deleted {
		fmt.Printf("deleted %s\n", id)
	}
	return err
}

// planIDsFromFile reads the plan_id column of a CSV, accepting the outcome
// table written by the upload command. Rows without a plan id are skipped.
func planIDsFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	col := -1
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.EqualFold(strings.TrimSpace(h), "plan_id") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s has no plan_id column", path)
	}

	var ids []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if col >= len(rec) {
			continue
		}
		if id := strings.TrimSpace(rec[col]); id != "" {
			ids = append(ids, id)
		}
	}
}
