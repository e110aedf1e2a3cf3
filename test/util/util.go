// Package util provides helper functions shared across integration tests.
//
// WaitForMockAPI polls the mock routing API until its /ping endpoint becomes
// available.
//
// WaitForMetric polls a Prometheus metrics endpoint until the desired metric
// appears in the output.
//
// WriteManifest builds a route manifest CSV in the canonical column layout
// so tests can drive the intake reader with real files.
package util

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/routeup/routeup/infra/circuitmock"
)

const (
	// Default timeouts for helper operations
	MockAPITimeout = 5 * time.Second
	MetricTimeout  = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// ManifestHeader is the canonical manifest column order.
var ManifestHeader = []string{
	"Name", "Address Line 1", "Address Line 2", "City", "State", "Zip",
	"Phone", "Email", "Notes", "Order Count", "Box Type", "Neighborhood",
}

// ManifestRow holds one stop of a manifest in column order. Fields left
// empty stay empty in the CSV.
type ManifestRow struct {
	Name       string
	Street     string
	Unit       string
	City       string
	State      string
	Zip        string
	Phone      string
	Email      string
	Notes      string
	OrderCount string
	BoxType    string
	Hood       string
}

// WriteManifest writes rows as <dir>/<route>.csv and returns the path. The
// file name becomes the route title during intake.
func WriteManifest(dir, route string, rows []ManifestRow) (string, error) {
	path := filepath.Join(dir, route+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	w := csv.NewWriter(f)
	if err := w.Write(ManifestHeader); err != nil {
		_ = f.Close()
		return "", err
	}
	for _, r := range rows {
		rec := []string{r.Name, r.Street, r.Unit, r.City, r.State, r.Zip,
			r.Phone, r.Email, r.Notes, r.OrderCount, r.BoxType, r.Hood}
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// Row returns a valid manifest row for the given recipient, ready for the
// caller to tweak single fields.
func Row(name string) ManifestRow {
	return ManifestRow{
		Name:       name,
		Street:     "12 Oak St",
		City:       "Springfield",
		State:      "MA",
		Zip:        "01103",
		OrderCount: "1",
		BoxType:    "BASIC",
	}
}

// WaitForMockAPI polls the mock routing API health endpoint until it responds
// with HTTP 200 or the context is done.
func WaitForMockAPI(ctx context.Context, srv *circuitmock.Server) error {
	for {
		url := "http://" + srv.Addr() + "/ping"
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready: %w", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// WaitForMetric polls the given metrics URL until the provided substring is
// found in the output or the context is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
