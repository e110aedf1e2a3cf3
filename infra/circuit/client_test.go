package circuit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/routeup/routeup/auth"
	corecircuit "github.com/routeup/routeup/core/circuit"
)

func testClient(t *testing.T, srvURL string) *HTTPClient {
	t.Helper()
	c, err := NewWithLimiter(Config{BaseURL: srvURL, Creds: auth.APIKey{Key: "k"}}, ZeroLimiter())
	if err != nil {
		t.Fatalf("NewWithLimiter: %v", err)
	}
	return c
}

func TestCreatePlanWire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/plans" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var spec corecircuit.PlanSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			t.Errorf("decode spec: %v", err)
		}
		if spec.Title != "Route A" || spec.Starts.Year != 2026 || len(spec.Drivers) != 1 {
			t.Errorf("unexpected spec %+v", spec)
		}
		fmt.Fprint(w, `{"id":"plans/abc","writable":true}`)
	}))
	defer srv.Close()

	plan, err := testClient(t, srv.URL).CreatePlan(context.Background(), corecircuit.PlanSpec{
		Title:   "Route A",
		Starts:  corecircuit.PlanStart{Day: 22, Month: 8, Year: 2026},
		Drivers: []string{"drivers/d1"},
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if plan.ID != "plans/abc" || !plan.Writable {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestImportStopsPostsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans/abc/stops:import" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var stops []corecircuit.StopInput
		if err := json.NewDecoder(r.Body).Decode(&stops); err != nil {
			t.Errorf("body must be a bare stop array: %v", err)
		}
		fmt.Fprintf(w, `{"success":["stops/1","stops/2"],"failed":[]}`)
	}))
	defer srv.Close()

	res, err := testClient(t, srv.URL).ImportStops(context.Background(), "plans/abc", []corecircuit.StopInput{{}, {}})
	if err != nil {
		t.Fatalf("ImportStops: %v", err)
	}
	if len(res.Success) != 2 || len(res.Failed) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStartOptimizationTerminalPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans/abc:optimize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"operations/op1","done":true,"metadata":{"canceled":true}}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).StartOptimization(context.Background(), "plans/abc")
	var optErr *corecircuit.OptimizationError
	if !errors.As(err, &optErr) || !optErr.Canceled {
		t.Fatalf("expected canceled OptimizationError, got %v", err)
	}
}

func TestCheckOptimizationUnfinished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/operations/op1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"operations/op1","done":false,"metadata":{"canceled":false}}`)
	}))
	defer srv.Close()

	op, err := testClient(t, srv.URL).CheckOptimization(context.Background(), "operations/op1")
	if err != nil {
		t.Fatalf("CheckOptimization: %v", err)
	}
	if op.Done {
		t.Fatalf("operation should be unfinished")
	}
}

func TestCheckOptimizationSkippedStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"operations/op1","done":true,"metadata":{"canceled":false},"result":{"skippedStops":["stops/9"]}}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).CheckOptimization(context.Background(), "operations/op1")
	var optErr *corecircuit.OptimizationError
	if !errors.As(err, &optErr) || optErr.SkippedStops != 1 {
		t.Fatalf("expected skipped-stops OptimizationError, got %v", err)
	}
}

func TestDistributePlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans/abc:distribute" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"plans/abc","distributed":true}`)
	}))
	defer srv.Close()

	ok, err := testClient(t, srv.URL).DistributePlan(context.Background(), "plans/abc")
	if err != nil || !ok {
		t.Fatalf("expected distributed, got %v %v", ok, err)
	}
}

func TestDeletePlanNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/plans/abc" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := testClient(t, srv.URL).DeletePlan(context.Background(), "plans/abc"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
}

func TestListPlansFilterQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filter.startsGte"); got != "2026-08-01" {
			t.Errorf("missing filter, got query %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"plans":[{"id":"plans/p1","title":"Route A"}]}`)
	}))
	defer srv.Close()

	plans, err := testClient(t, srv.URL).ListPlans(context.Background(), corecircuit.PlanFilter{StartsGte: "2026-08-01"})
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "plans/p1" {
		t.Fatalf("unexpected plans %+v", plans)
	}
}
