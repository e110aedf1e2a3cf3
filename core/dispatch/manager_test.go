package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/core/dispatch/journal"
	"github.com/routeup/routeup/core/events"
	"github.com/routeup/routeup/core/metrics"
	"github.com/routeup/routeup/core/model"
	"github.com/routeup/routeup/core/monitoring"
	"github.com/routeup/routeup/infra/logger"
	"github.com/routeup/routeup/internal/eventbus"
)

// fakeClient scripts the remote service per method. Unscripted methods
// succeed: plans are writable, imports accept every stop, optimizations
// finish at launch and distribution is confirmed.
type fakeClient struct {
	mu sync.Mutex

	drivers    []model.Driver
	driversErr error

	createPlan  func(spec circuit.PlanSpec) (circuit.Plan, error)
	importStops func(planID string, batch []circuit.StopInput) (circuit.ImportResult, error)
	startOpt    func(planID string) (circuit.Operation, error)
	checkOpt    func(operationID string) (circuit.Operation, error)
	distribute  func(planID string) (bool, error)
	deletePlan  func(planID string) error

	created     []circuit.PlanSpec
	imported    map[string][][]circuit.StopInput
	checks      int
	distributes int
	deleted     []string
}

func (f *fakeClient) CreatePlan(_ context.Context, spec circuit.PlanSpec) (circuit.Plan, error) {
	f.mu.Lock()
	f.created = append(f.created, spec)
	n := len(f.created)
	f.mu.Unlock()
	if f.createPlan != nil {
		return f.createPlan(spec)
	}
	return circuit.Plan{ID: fmt.Sprintf("plans/p%d", n), Title: spec.Title, Starts: spec.Starts, Writable: true}, nil
}

func (f *fakeClient) ImportStops(_ context.Context, planID string, batch []circuit.StopInput) (circuit.ImportResult, error) {
	f.mu.Lock()
	if f.imported == nil {
		f.imported = make(map[string][][]circuit.StopInput)
	}
	f.imported[planID] = append(f.imported[planID], batch)
	f.mu.Unlock()
	if f.importStops != nil {
		return f.importStops(planID, batch)
	}
	ids := make([]string, len(batch))
	for i := range batch {
		ids[i] = fmt.Sprintf("stops/s%d", i)
	}
	return circuit.ImportResult{Success: ids}, nil
}

func (f *fakeClient) StartOptimization(_ context.Context, planID string) (circuit.Operation, error) {
	if f.startOpt != nil {
		return f.startOpt(planID)
	}
	return circuit.Operation{ID: "operations/" + planID, Done: true}, nil
}

func (f *fakeClient) CheckOptimization(_ context.Context, operationID string) (circuit.Operation, error) {
	f.mu.Lock()
	f.checks++
	f.mu.Unlock()
	if f.checkOpt != nil {
		return f.checkOpt(operationID)
	}
	return circuit.Operation{ID: operationID, Done: true}, nil
}

func (f *fakeClient) DistributePlan(_ context.Context, planID string) (bool, error) {
	f.mu.Lock()
	f.distributes++
	f.mu.Unlock()
	if f.distribute != nil {
		return f.distribute(planID)
	}
	return true, nil
}

func (f *fakeClient) DeletePlan(_ context.Context, planID string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, planID)
	f.mu.Unlock()
	if f.deletePlan != nil {
		return f.deletePlan(planID)
	}
	return nil
}

func (f *fakeClient) ListDrivers(context.Context) ([]model.Driver, error) {
	return f.drivers, f.driversErr
}

func (f *fakeClient) ListPlans(context.Context, circuit.PlanFilter) ([]circuit.Plan, error) {
	return nil, nil
}

func (f *fakeClient) ListPlanStops(context.Context, string) ([]circuit.Stop, error) {
	return nil, nil
}

// memStore keeps journal entries in memory.
type memStore struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (s *memStore) Append(_ context.Context, e journal.Entry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

func (s *memStore) Query(context.Context, journal.Query) ([]journal.Entry, error) { return nil, nil }
func (s *memStore) Close() error                                                 { return nil }

// recordingSink captures everything the manager records directly.
type recordingSink struct {
	mu      sync.Mutex
	results []metrics.StageResult
	runs    []metrics.RunEvent
}

func (s *recordingSink) RecordStageResults(rs []metrics.StageResult) error {
	s.mu.Lock()
	s.results = append(s.results, rs...)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) RecordRun(e metrics.RunEvent) error {
	s.mu.Lock()
	s.runs = append(s.runs, e)
	s.mu.Unlock()
	return nil
}

func testDrivers() []model.Driver {
	return []model.Driver{
		{ID: "drivers/d1", Name: "Ana Lopez", Email: "ana@fleet.test", Active: true},
		{ID: "drivers/d2", Name: "Bob Kowalski", Email: "bob@fleet.test", Active: true},
	}
}

func routeStops(title string, n int) []model.StopRecord {
	stops := make([]model.StopRecord, n)
	for i := range stops {
		stops[i] = model.StopRecord{
			RouteTitle: title,
			Name:       fmt.Sprintf("Recipient %d", i+1),
			Street:     fmt.Sprintf("%d Main St", i+1),
			City:       "Springfield",
			State:      "IL",
			Zip:        "62701",
			OrderCount: 1,
			BoxType:    "standard",
		}
	}
	return stops
}

func testConfig() Config {
	return Config{BatchSize: 100, PollIntervalSeconds: 1, PollMaxIntervalSeconds: 1}
}

func newTestManager(t *testing.T, fc *fakeClient, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(fc, StaticStrategy{}, cfg, nil, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func startDate() time.Time {
	return time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
}

func TestNewManagerValidation(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}

	if _, err := NewManager(nil, StaticStrategy{}, testConfig(), nil, nil, nil, logger.NopLogger{}); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := NewManager(fc, nil, testConfig(), nil, nil, nil, logger.NopLogger{}); err == nil {
		t.Error("expected error for nil strategy")
	}
	if _, err := NewManager(fc, StaticStrategy{}, testConfig(), nil, nil, nil, nil); err == nil {
		t.Error("expected error for nil logger")
	}
	bad := testConfig()
	bad.BatchSize = maxImportBatch + 1
	if _, err := NewManager(fc, StaticStrategy{}, bad, nil, nil, nil, logger.NopLogger{}); err == nil {
		t.Error("expected error for oversized batch")
	}
}

func TestUploadRoutesHappyPath(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	m := newTestManager(t, fc, testConfig())

	stops := append(routeStops("Ana", 3), routeStops("Bob", 2)...)
	records, err := m.UploadRoutes(context.Background(), stops, UploadOptions{StartDate: startDate(), Distribute: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RouteTitle != "Ana" || records[1].RouteTitle != "Bob" {
		t.Fatalf("records out of first-appearance order: %v, %v", records[0].RouteTitle, records[1].RouteTitle)
	}
	for _, rec := range records {
		for _, st := range model.Stages {
			if !rec.Done(st) {
				t.Errorf("route %s: stage %s not done", rec.RouteTitle, st)
			}
		}
		if rec.Abandoned() {
			t.Errorf("route %s abandoned: %s", rec.RouteTitle, rec.Failure)
		}
		if rec.PlanID == "" || !rec.Writable {
			t.Errorf("route %s: plan not recorded: %+v", rec.RouteTitle, rec)
		}
	}
	if records[0].Driver.ID != "drivers/d1" || records[1].Driver.ID != "drivers/d2" {
		t.Errorf("drivers not resolved by title: %v, %v", records[0].Driver, records[1].Driver)
	}

	if len(fc.created) != 2 {
		t.Fatalf("expected 2 plans created, got %d", len(fc.created))
	}
	spec := fc.created[0]
	if spec.Title != "Ana" {
		t.Errorf("first plan title = %q", spec.Title)
	}
	if spec.Starts != (circuit.PlanStart{Day: 9, Month: 3, Year: 2026}) {
		t.Errorf("plan start = %+v", spec.Starts)
	}
	if len(spec.Drivers) != 1 || spec.Drivers[0] != "drivers/d1" {
		t.Errorf("plan not pinned to resolved driver: %v", spec.Drivers)
	}

	batches := fc.imported["plans/p1"]
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Fatalf("expected one batch of 3 stops for Ana, got %v", batches)
	}
	if got := batches[0][0].AllowedDrivers; len(got) != 1 || got[0] != "drivers/d1" {
		t.Errorf("imported stop not pinned to driver: %v", got)
	}
}

func TestUploadRoutesBatching(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	cfg := testConfig()
	cfg.BatchSize = 2
	m := newTestManager(t, fc, cfg)

	_, err := m.UploadRoutes(context.Background(), routeStops("Ana", 5), UploadOptions{StartDate: startDate()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batches := fc.imported["plans/p1"]
	if len(batches) != 3 || len(batches[0]) != 2 || len(batches[1]) != 2 || len(batches[2]) != 1 {
		t.Fatalf("expected batches of 2,2,1, got %d batches", len(batches))
	}
	if batches[2][0].Address.AddressLine1 != "5 Main St" {
		t.Errorf("stop order not preserved across batches: %q", batches[2][0].Address.AddressLine1)
	}
}

func TestUploadRoutesInputValidation(t *testing.T) {
	m := newTestManager(t, &fakeClient{drivers: testDrivers()}, testConfig())

	if _, err := m.UploadRoutes(context.Background(), nil, UploadOptions{StartDate: startDate()}); err == nil || !strings.Contains(err.Error(), "no stops") {
		t.Errorf("expected no-stops error, got %v", err)
	}
	if _, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{}); err == nil || !strings.Contains(err.Error(), "start date") {
		t.Errorf("expected start date error, got %v", err)
	}
}

func TestUploadRoutesDriverListError(t *testing.T) {
	fc := &fakeClient{driversErr: errors.New("roster down")}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate()})
	if records != nil {
		t.Errorf("expected no records, got %v", records)
	}
	if err == nil || !strings.Contains(err.Error(), "list drivers") {
		t.Fatalf("expected wrapped roster error, got %v", err)
	}
}

func TestUploadRoutesUnresolvedDriver(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	m := newTestManager(t, fc, testConfig())

	// "Zoe" matches nobody and the static strategy has no entry for it.
	records, err := m.UploadRoutes(context.Background(), routeStops("Zoe", 1), UploadOptions{StartDate: startDate()})
	if records != nil {
		t.Errorf("expected no records, got %v", records)
	}
	if err == nil || !strings.Contains(err.Error(), `select driver for route "Zoe"`) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	if len(fc.created) != 0 {
		t.Errorf("no plan may be created before assignments settle, got %d", len(fc.created))
	}
}

func TestUploadRoutesNonWritablePlan(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })

	fc := &fakeClient{drivers: testDrivers()}
	fc.createPlan = func(spec circuit.PlanSpec) (circuit.Plan, error) {
		writable := spec.Title != "Bob"
		return circuit.Plan{ID: "plans/" + spec.Title, Title: spec.Title, Writable: writable}, nil
	}
	m := newTestManager(t, fc, testConfig())

	stops := append(routeStops("Ana", 1), routeStops("Bob", 1)...)
	records, err := m.UploadRoutes(context.Background(), stops, UploadOptions{StartDate: startDate(), Distribute: true})
	if len(records) != 2 {
		t.Fatalf("failed route must still be in the table, got %d records", len(records))
	}

	ana, bob := records[0], records[1]
	if ana.Abandoned() {
		t.Errorf("healthy route affected by the failing one: %s", ana.Failure)
	}
	for _, st := range model.Stages {
		if bob.Done(st) {
			t.Errorf("stage %s must cascade false on a non-writable plan", st)
		}
	}
	if !strings.Contains(bob.Failure, "not writable") {
		t.Errorf("failure detail = %q", bob.Failure)
	}
	if bob.PlanID != "plans/Bob" {
		t.Errorf("plan id must be kept for cleanup, got %q", bob.PlanID)
	}

	var sfe *StageFailuresError
	if !errors.As(err, &sfe) {
		t.Fatalf("expected StageFailuresError, got %v", err)
	}
	if len(sfe.Failures) != 1 || sfe.Failures[0].RouteTitle != "Bob" || sfe.Failures[0].Stage != model.StageInitialized {
		t.Fatalf("failure rows wrong: %+v", sfe.Failures)
	}
	if !strings.Contains(err.Error(), "upload incomplete") {
		t.Errorf("error message = %q", err.Error())
	}

	if got := testutil.ToFloat64(routesAbandoned); got != 1 {
		t.Errorf("routes_abandoned_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(stagesFailed.WithLabelValues("initialized")); got != 1 {
		t.Errorf("route_stages_failed_total{initialized} = %v, want 1", got)
	}
}

func TestUploadRoutesImportRejected(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.importStops = func(planID string, batch []circuit.StopInput) (circuit.ImportResult, error) {
		ids := make([]string, len(batch)-1)
		return circuit.ImportResult{Success: ids, Failed: []map[string]any{{"reason": "bad address"}}}, nil
	}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 2), UploadOptions{StartDate: startDate(), Distribute: true})
	if err == nil {
		t.Fatal("expected failure error")
	}
	rec := records[0]
	if !rec.Done(model.StageInitialized) {
		t.Error("initialization succeeded and must stay true")
	}
	if rec.Done(model.StageStopsUploaded) || rec.Done(model.StageOptimized) || rec.Done(model.StageDistributed) {
		t.Error("stages after the rejected import must be false")
	}
	if !strings.Contains(rec.Failure, "stops rejected") {
		t.Errorf("failure detail = %q", rec.Failure)
	}
	if fc.distributes != 0 {
		t.Error("distribution must not be attempted after a failed import")
	}
}

func TestUploadRoutesOptimizationLaunchError(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.startOpt = func(planID string) (circuit.Operation, error) {
		return circuit.Operation{}, &circuit.APIError{Method: "POST", URL: "/optimize", Status: 400, Body: "bad plan"}
	}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate(), Distribute: true})
	if err == nil {
		t.Fatal("expected failure error")
	}
	rec := records[0]
	// The launch itself failed, so the outcome is known: not optimized.
	if rec.Optimized == nil || *rec.Optimized {
		t.Errorf("optimized = %v, want false", rec.Optimized)
	}
	if rec.Distributed == nil || *rec.Distributed {
		t.Errorf("distributed = %v, want false", rec.Distributed)
	}
}

func TestUploadRoutesOptimizationCanceled(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.startOpt = func(planID string) (circuit.Operation, error) {
		op := circuit.Operation{ID: "operations/o1", Done: true, Metadata: circuit.OperationMetadata{Canceled: true}}
		return op, op.Failure()
	}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate(), Distribute: true})

	rec := records[0]
	// A terminal optimization outcome leaves the stage unconfirmed in the
	// table: the plan exists remotely and may have partially optimized.
	if rec.Optimized != nil {
		t.Errorf("optimized = %v, want nil", *rec.Optimized)
	}
	if rec.Distributed == nil || *rec.Distributed {
		t.Errorf("distributed = %v, want false", rec.Distributed)
	}
	if !strings.Contains(rec.Failure, "canceled") {
		t.Errorf("failure detail = %q", rec.Failure)
	}

	var sfe *StageFailuresError
	if !errors.As(err, &sfe) {
		t.Fatalf("expected StageFailuresError, got %v", err)
	}
	if sfe.Failures[0].RouteTitle != "Ana" || sfe.Failures[0].Stage != model.StageOptimized {
		t.Errorf("failure row wrong: %+v", sfe.Failures[0])
	}
}

func TestUploadRoutesOptimizationUnconfirmed(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.startOpt = func(planID string) (circuit.Operation, error) {
		return circuit.Operation{ID: "operations/o1", Done: false}, nil
	}
	fc.checkOpt = func(operationID string) (circuit.Operation, error) {
		return circuit.Operation{}, &circuit.APIError{Method: "GET", URL: "/operations/o1", Status: 500, Body: "boom"}
	}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate(), Distribute: true})
	if err == nil {
		t.Fatal("expected failure error")
	}
	rec := records[0]
	// The launch went through but confirmation failed: outcome unknown.
	if rec.Optimized != nil {
		t.Errorf("optimized = %v, want nil", *rec.Optimized)
	}
	if !strings.Contains(rec.Failure, "optimization unconfirmed") {
		t.Errorf("failure detail = %q", rec.Failure)
	}
}

func TestUploadRoutesOptimizationPollsUntilDone(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.startOpt = func(planID string) (circuit.Operation, error) {
		return circuit.Operation{ID: "operations/o1", Done: false}, nil
	}
	var polls int
	fc.checkOpt = func(operationID string) (circuit.Operation, error) {
		polls++
		return circuit.Operation{ID: operationID, Done: polls >= 2}, nil
	}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate(), Distribute: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if polls != 2 {
		t.Errorf("expected 2 polls, got %d", polls)
	}
	if !records[0].Done(model.StageOptimized) || !records[0].Done(model.StageDistributed) {
		t.Errorf("record incomplete after polling: %+v", records[0])
	}
}

func TestUploadRoutesCanceledBetweenRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeClient{drivers: testDrivers()}
	fc.distribute = func(planID string) (bool, error) {
		cancel() // fires while the first route is finishing
		return true, nil
	}
	m := newTestManager(t, fc, testConfig())

	stops := append(routeStops("Ana", 1), routeStops("Bob", 1)...)
	records, err := m.UploadRoutes(ctx, stops, UploadOptions{StartDate: startDate(), Distribute: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(records) != 1 || records[0].RouteTitle != "Ana" {
		t.Fatalf("expected the finished route only, got %v", records)
	}
	if len(fc.created) != 1 {
		t.Errorf("no plan may be created after cancellation, got %d", len(fc.created))
	}
}

func TestUploadRoutesDistributionDisabled(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := records[0]
	if !rec.Done(model.StageOptimized) {
		t.Error("optimization must still run when distribution is off")
	}
	if rec.Distributed == nil || *rec.Distributed {
		t.Errorf("distributed = %v, want false", rec.Distributed)
	}
	if rec.Abandoned() {
		t.Errorf("skipping distribution is not a failure: %s", rec.Failure)
	}
	if fc.distributes != 0 {
		t.Errorf("distribution endpoint called %d times", fc.distributes)
	}
}

func TestUploadRoutesDistributionRefused(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.distribute = func(planID string) (bool, error) { return false, nil }
	m := newTestManager(t, fc, testConfig())

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate(), Distribute: true})
	if err == nil {
		t.Fatal("expected failure error")
	}
	rec := records[0]
	if rec.Distributed == nil || *rec.Distributed {
		t.Errorf("distributed = %v, want false", rec.Distributed)
	}
	if !strings.Contains(rec.Failure, "not distributed") {
		t.Errorf("failure detail = %q", rec.Failure)
	}
}

func TestUploadRoutesJournalEventsAndSink(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	store := &memStore{}
	sink := &recordingSink{}
	bus := eventbus.New()
	sub := bus.Subscribe()

	m, err := NewManager(fc, StaticStrategy{}, testConfig(), sink, bus, store, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	records, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate(), Distribute: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStages := []string{"initialized", "stops_uploaded", "optimized", "distributed"}
	if len(store.entries) != len(wantStages) {
		t.Fatalf("expected %d journal entries, got %d", len(wantStages), len(store.entries))
	}
	for i, e := range store.entries {
		if e.Stage != wantStages[i] || e.Status != journal.StatusOK {
			t.Errorf("entry %d = %s/%s, want %s/ok", i, e.Stage, e.Status, wantStages[i])
		}
		if e.RunID == "" || e.RouteTitle != "Ana" || e.PlanID != records[0].PlanID {
			t.Errorf("entry %d incomplete: %+v", i, e)
		}
	}

	if len(sink.results) != 4 {
		t.Fatalf("expected 4 sink results, got %d", len(sink.results))
	}
	for _, r := range sink.results {
		if !r.OK || r.Unknown {
			t.Errorf("sink result not ok: %+v", r)
		}
	}
	if len(sink.runs) != 1 || sink.runs[0].Routes != 1 || sink.runs[0].Failed != 0 {
		t.Fatalf("run summary wrong: %+v", sink.runs)
	}

	var started, finished, stages int
	for drained := false; !drained; {
		select {
		case e := <-sub:
			switch e.(type) {
			case events.RunStarted:
				started++
			case events.RunFinished:
				finished++
			case events.StageEvent:
				stages++
			}
		default:
			drained = true
		}
	}
	if started != 1 || finished != 1 || stages != 4 {
		t.Errorf("bus saw started=%d stages=%d finished=%d", started, stages, finished)
	}
}

func TestUploadRoutesReportsFailuresToMonitor(t *testing.T) {
	mon := &recordMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(monitoring.NopMonitor{}) })

	fc := &fakeClient{drivers: testDrivers()}
	fc.createPlan = func(spec circuit.PlanSpec) (circuit.Plan, error) {
		return circuit.Plan{ID: "plans/p1", Writable: false}, nil
	}
	m := newTestManager(t, fc, testConfig())

	_, err := m.UploadRoutes(context.Background(), routeStops("Ana", 1), UploadOptions{StartDate: startDate()})
	if err == nil {
		t.Fatal("expected failure error")
	}

	if len(mon.errs) != 1 || !strings.Contains(mon.errs[0].Error(), "not writable") {
		t.Fatalf("monitor saw %v", mon.errs)
	}
	tags := mon.tags[0]
	if tags["run_id"] == "" {
		t.Error("run_id tag missing")
	}
	if tags["route_title"] != "Ana" {
		t.Errorf("route_title tag = %q", tags["route_title"])
	}
}

// recordMonitor captures reported exceptions.
type recordMonitor struct {
	mu   sync.Mutex
	errs []error
	tags []map[string]string
}

func (m *recordMonitor) CaptureException(err error, tags map[string]string) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.tags = append(m.tags, tags)
	m.mu.Unlock()
}

func (m *recordMonitor) Recover()            {}
func (m *recordMonitor) Flush(time.Duration) {}

func TestDeletePlans(t *testing.T) {
	fc := &fakeClient{drivers: testDrivers()}
	fc.deletePlan = func(planID string) error {
		if planID == "plans/p2" {
			return errors.New("still distributed")
		}
		return nil
	}
	bus := eventbus.New()
	sub := bus.Subscribe()
	m, err := NewManager(fc, StaticStrategy{}, testConfig(), nil, bus, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	deleted, err := m.DeletePlans(context.Background(), []string{"plans/p1", "plans/p2", "plans/p3"})
	if len(deleted) != 2 || deleted[0] != "plans/p1" || deleted[1] != "plans/p3" {
		t.Fatalf("deleted = %v", deleted)
	}
	var de *DeleteError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeleteError, got %v", err)
	}
	if len(de.Failed) != 1 || de.Failed[0].PlanID != "plans/p2" {
		t.Fatalf("failed rows wrong: %+v", de.Failed)
	}

	var ok, failed int
	for drained := false; !drained; {
		select {
		case e := <-sub:
			if pd, is := e.(events.PlanDeleted); is {
				if pd.OK {
					ok++
				} else {
					failed++
				}
			}
		default:
			drained = true
		}
	}
	if ok != 2 || failed != 1 {
		t.Errorf("bus saw ok=%d failed=%d deletions", ok, failed)
	}
}

func TestDeletePlansCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newTestManager(t, &fakeClient{drivers: testDrivers()}, testConfig())

	deleted, err := m.DeletePlans(ctx, []string{"plans/p1"})
	if len(deleted) != 0 || !errors.Is(err, context.Canceled) {
		t.Fatalf("deleted=%v err=%v", deleted, err)
	}
}
