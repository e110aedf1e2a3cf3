package scenarios

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/routeup/routeup/auth"
	"github.com/routeup/routeup/config"
	"github.com/routeup/routeup/core/dispatch"
	"github.com/routeup/routeup/core/model"
	"github.com/routeup/routeup/infra/circuit"
	"github.com/routeup/routeup/infra/circuitmock"
	"github.com/routeup/routeup/infra/logger"
)

// RunScenario uploads the scenario's routes against a mock routing API with
// the scenario's faults injected and checks the outcome counts.
func RunScenario(t *testing.T, sc *Scenario) {
	mockCfg := config.MockConfig{
		Drivers:        sc.DriverNames(),
		Every429:       sc.Mock.Every429,
		CancelOptimize: sc.Mock.CancelOptimize,
		ReadOnlyPlans:  sc.Mock.ReadOnlyPlans,
		OptimizePolls:  sc.Mock.OptimizePolls,
	}
	api := httptest.NewServer(circuitmock.NewServerWithRegistry(mockCfg, prometheus.NewRegistry()).Handler())
	defer api.Close()

	client, err := circuit.NewWithLimiter(circuit.Config{
		BaseURL: api.URL,
		Creds:   auth.APIKey{Key: "qa"},
	}, circuit.ZeroLimiter())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	mgr, err := dispatch.NewManager(client, dispatch.StaticStrategy{},
		dispatch.Config{}, nil, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer func() { _ = mgr.Close() }()

	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	records, err := mgr.UploadRoutes(context.Background(), sc.Stops(),
		dispatch.UploadOptions{StartDate: date, Distribute: sc.Distribute})
	wantFailures := sc.Expected.Failed+sc.Expected.Unconfirmed > 0
	var sf *dispatch.StageFailuresError
	if wantFailures && !errors.As(err, &sf) {
		t.Fatalf("scenario %s: expected stage failures, got %v", sc.Name, err)
	}
	if !wantFailures && err != nil {
		t.Fatalf("scenario %s: upload: %v", sc.Name, err)
	}

	var completed, failed, unconfirmed int
	for _, rec := range records {
		switch {
		case !rec.Abandoned():
			completed++
		case rec.StageValue(model.StageOptimized) == nil:
			unconfirmed++
		default:
			failed++
		}
	}
	if completed != sc.Expected.Completed {
		t.Errorf("scenario %s: expected %d completed routes, got %d", sc.Name, sc.Expected.Completed, completed)
	}
	if failed != sc.Expected.Failed {
		t.Errorf("scenario %s: expected %d failed routes, got %d", sc.Name, sc.Expected.Failed, failed)
	}
	if unconfirmed != sc.Expected.Unconfirmed {
		t.Errorf("scenario %s: expected %d unconfirmed routes, got %d", sc.Name, sc.Expected.Unconfirmed, unconfirmed)
	}
}
