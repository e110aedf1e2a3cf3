package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/core/dispatch/journal"
	"github.com/routeup/routeup/core/events"
	"github.com/routeup/routeup/core/logger"
	"github.com/routeup/routeup/core/metrics"
	"github.com/routeup/routeup/core/model"
	"github.com/routeup/routeup/core/monitoring"
	"github.com/routeup/routeup/internal/eventbus"
)

// Manager drives route manifests through the remote plan lifecycle:
// initialize plan, upload stops, optimize, distribute. Routes are processed
// sequentially and independently; one route failing a stage never blocks
// the others.
type Manager struct {
	client   circuit.Client
	resolver *Resolver
	cfg      Config
	logger   logger.Logger
	metrics  metrics.MetricsSink
	bus      eventbus.EventBus
	store    journal.Store
}

// UploadOptions carries the per-run knobs of UploadRoutes.
type UploadOptions struct {
	// StartDate is the service day of every created plan.
	StartDate time.Time
	// Distribute pushes optimized plans to drivers when set.
	Distribute bool
}

// NewManager creates a new manager. The sink, bus and store may be nil.
func NewManager(client circuit.Client, strategy ConfirmStrategy, cfg Config, sink metrics.MetricsSink, bus eventbus.EventBus, store journal.Store, log logger.Logger) (*Manager, error) {
	if client == nil || strategy == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		client:   client,
		resolver: NewResolver(strategy, log, cfg.AllowInactiveDrivers),
		cfg:      cfg,
		logger:   log,
		metrics:  sink,
		bus:      bus,
		store:    store,
	}, nil
}

// SetJournal configures the store used to persist run journal entries.
func (m *Manager) SetJournal(store journal.Store) {
	m.store = store
}

// Close releases resources held by the manager.
func (m *Manager) Close() error {
	if m.bus != nil {
		m.bus.Close()
	}
	if m.store != nil {
		_ = m.store.Close()
	}
	return nil
}

// UploadRoutes uploads every route found in stops and returns one PlanRecord
// per route. The table always covers every route that was attempted; when
// one or more routes stopped short of a complete lifecycle the table is
// returned together with a *StageFailuresError naming them. An error without
// a table means the run could not start (no stops, roster fetch failure,
// unresolved drivers) or was canceled.
//
//gocyclo:ignore
func (m *Manager) UploadRoutes(ctx context.Context, stops []model.StopRecord, opts UploadOptions) ([]model.PlanRecord, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("dispatch: no stops to upload")
	}
	if opts.StartDate.IsZero() {
		return nil, fmt.Errorf("dispatch: start date is required")
	}
	runID := uuid.NewString()
	titles := model.RouteTitles(stops)
	byRoute := model.GroupByRoute(stops)
	start := time.Now()
	m.logger.Infof("run %s: uploading %d routes (%d stops)", runID, len(titles), len(stops))
	if m.bus != nil {
		m.bus.Publish(events.RunStarted{RunID: runID, Routes: titles})
	}

	drivers, err := m.client.ListDrivers(ctx)
	if err != nil {
		err = fmt.Errorf("list drivers: %w", err)
		monitoring.CaptureException(err, map[string]string{"run_id": runID})
		return nil, err
	}
	// A name-sorted roster keeps selection menus stable between runs.
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].Name < drivers[j].Name })
	assignments, err := m.resolver.Resolve(titles, drivers)
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"run_id": runID})
		return nil, err
	}
	assigned := make(map[string]model.Driver, len(assignments))
	for _, a := range assignments {
		assigned[a.RouteTitle] = a.Driver
	}

	records := make([]model.PlanRecord, 0, len(titles))
	var failures []RouteFailure
	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rec, failure := m.uploadRoute(ctx, runID, title, assigned[title], byRoute[title], opts)
		records = append(records, rec)
		if failure != nil {
			routesAbandoned.Inc()
			monitoring.CaptureException(errors.New(failure.String()), map[string]string{
				"run_id":      runID,
				"route_title": title,
			})
			failures = append(failures, *failure)
		}
	}

	duration := time.Since(start)
	m.logger.Infof("run %s: finished in %s, %d of %d routes failed", runID, duration, len(failures), len(titles))
	if m.bus != nil {
		m.bus.Publish(events.RunFinished{RunID: runID, Routes: len(titles), Failed: len(failures), Duration: duration})
	}
	if rr, ok := m.metrics.(metrics.RunRecorder); ok {
		if err := rr.RecordRun(metrics.RunEvent{RunID: runID, Routes: len(titles), Failed: len(failures), Duration: duration, Time: time.Now()}); err != nil {
			m.logger.Errorf("run metrics error: %v", err)
		}
	}
	if len(failures) > 0 {
		return records, &StageFailuresError{Failures: failures}
	}
	return records, nil
}

// uploadRoute drives a single route as far as it can go and reports the
// failure that stopped it, if any.
func (m *Manager) uploadRoute(ctx context.Context, runID, title string, driver model.Driver, stops []model.StopRecord, opts UploadOptions) (model.PlanRecord, *RouteFailure) {
	rec := model.PlanRecord{RouteTitle: title, Driver: driver, StartDate: opts.StartDate}

	// Initialize the plan.
	stageStart := time.Now()
	plan, err := m.client.CreatePlan(ctx, circuit.PlanSpec{
		Title: title,
		Starts: circuit.PlanStart{
			Day:   opts.StartDate.Day(),
			Month: int(opts.StartDate.Month()),
			Year:  opts.StartDate.Year(),
		},
		Drivers: []string{driver.ID},
	})
	if err != nil {
		return rec, m.failStage(&rec, runID, model.StageInitialized, err.Error(), stageStart)
	}
	rec.PlanID = plan.ID
	rec.Writable = plan.Writable
	if !plan.Writable {
		return rec, m.failStage(&rec, runID, model.StageInitialized, fmt.Sprintf("plan %s is not writable", plan.ID), stageStart)
	}
	rec.MarkDone(model.StageInitialized)
	m.noteStage(runID, &rec, model.StageInitialized, journal.StatusOK, "", time.Since(stageStart))

	// Upload the stops in batches.
	stageStart = time.Now()
	if err := m.importStops(ctx, plan.ID, buildStopInputs(stops, driver.ID)); err != nil {
		return rec, m.failStage(&rec, runID, model.StageStopsUploaded, err.Error(), stageStart)
	}
	rec.MarkDone(model.StageStopsUploaded)
	m.noteStage(runID, &rec, model.StageStopsUploaded, journal.StatusOK, "", time.Since(stageStart))

	// Launch and confirm optimization.
	stageStart = time.Now()
	if err := m.optimize(ctx, plan.ID); err != nil {
		var oe *circuit.OptimizationError
		if errors.As(err, &oe) || errors.Is(err, errUnconfirmed) {
			// The launch went through; the outcome is terminal or unknown.
			rec.MarkUnknown(err.Error())
			m.noteStage(runID, &rec, model.StageOptimized, journal.StatusUnknown, err.Error(), time.Since(stageStart))
			return rec, &RouteFailure{RouteTitle: title, Stage: model.StageOptimized, Detail: err.Error()}
		}
		return rec, m.failStage(&rec, runID, model.StageOptimized, err.Error(), stageStart)
	}
	rec.MarkDone(model.StageOptimized)
	m.noteStage(runID, &rec, model.StageOptimized, journal.StatusOK, "", time.Since(stageStart))

	// Distribute when asked to.
	if !opts.Distribute {
		m.logger.Debugf("route %q: distribution disabled", title)
		v := false
		rec.Distributed = &v
		return rec, nil
	}
	stageStart = time.Now()
	distributed, err := m.client.DistributePlan(ctx, plan.ID)
	if err != nil {
		return rec, m.failStage(&rec, runID, model.StageDistributed, err.Error(), stageStart)
	}
	if !distributed {
		return rec, m.failStage(&rec, runID, model.StageDistributed, fmt.Sprintf("plan %s was not distributed", plan.ID), stageStart)
	}
	rec.MarkDone(model.StageDistributed)
	m.noteStage(runID, &rec, model.StageDistributed, journal.StatusOK, "", time.Since(stageStart))
	return rec, nil
}

// importStops uploads the inputs in batches and fails on the first batch the
// remote does not accept in full.
func (m *Manager) importStops(ctx context.Context, planID string, inputs []circuit.StopInput) error {
	batches := batchStops(inputs, m.cfg.BatchSize)
	uploaded := 0
	for i, batch := range batches {
		res, err := m.client.ImportStops(ctx, planID, batch)
		if err != nil {
			return fmt.Errorf("import batch %d/%d: %w", i+1, len(batches), err)
		}
		if len(res.Failed) > 0 {
			return fmt.Errorf("import batch %d/%d: %d stops rejected", i+1, len(batches), len(res.Failed))
		}
		if len(res.Success) != len(batch) {
			return fmt.Errorf("import batch %d/%d: %d of %d stops imported", i+1, len(batches), len(res.Success), len(batch))
		}
		uploaded += len(res.Success)
	}
	m.logger.Debugf("plan %s: imported %d stops in %d batches", planID, uploaded, len(batches))
	return nil
}

// errUnconfirmed marks an optimization whose launch succeeded but whose
// completion could not be established.
var errUnconfirmed = errors.New("optimization unconfirmed")

// optimize launches the optimization and polls until the operation finishes.
// Terminal payloads surface as *circuit.OptimizationError; poll failures
// after a successful launch wrap errUnconfirmed.
func (m *Manager) optimize(ctx context.Context, planID string) error {
	op, err := m.client.StartOptimization(ctx, planID)
	if err != nil {
		return err
	}
	interval := time.Duration(m.cfg.PollIntervalSeconds) * time.Second
	maxInterval := time.Duration(m.cfg.PollMaxIntervalSeconds) * time.Second
	for !op.Done {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", errUnconfirmed, ctx.Err())
		case <-time.After(interval):
		}
		optimizationPolls.Inc()
		next, err := m.client.CheckOptimization(ctx, op.ID)
		if err != nil {
			var oe *circuit.OptimizationError
			if errors.As(err, &oe) {
				return err
			}
			return fmt.Errorf("%w: %v", errUnconfirmed, err)
		}
		op = next
		interval *= 2
		if interval > maxInterval {
			interval = maxInterval
		}
	}
	return nil
}

// failStage records a failed stage on the record, journal, bus and sink.
func (m *Manager) failStage(rec *model.PlanRecord, runID string, stage model.Stage, detail string, start time.Time) *RouteFailure {
	rec.MarkFailed(stage, detail)
	m.logger.Warnf("route %q: %s failed: %s", rec.RouteTitle, stage, detail)
	m.noteStage(runID, rec, stage, journal.StatusFailed, detail, time.Since(start))
	return &RouteFailure{RouteTitle: rec.RouteTitle, Stage: stage, Detail: detail}
}

// noteStage fans one stage outcome out to the package metrics, the journal,
// the event bus and the metrics sink.
func (m *Manager) noteStage(runID string, rec *model.PlanRecord, stage model.Stage, status, detail string, dur time.Duration) {
	stageLatency.WithLabelValues(stage.String()).Observe(dur.Seconds())
	if status == journal.StatusOK {
		stagesCompleted.WithLabelValues(stage.String()).Inc()
	} else {
		stagesFailed.WithLabelValues(stage.String()).Inc()
	}
	if m.store != nil {
		_ = m.store.Append(context.Background(), journal.Entry{
			Time:       time.Now(),
			RunID:      runID,
			RouteTitle: rec.RouteTitle,
			PlanID:     rec.PlanID,
			Stage:      stage.String(),
			Status:     status,
			Detail:     detail,
		})
	}
	if m.bus != nil {
		m.bus.Publish(events.StageEvent{
			RunID:      runID,
			RouteTitle: rec.RouteTitle,
			PlanID:     rec.PlanID,
			Stage:      stage,
			OK:         status == journal.StatusOK,
			Unknown:    status == journal.StatusUnknown,
			Detail:     detail,
			Duration:   dur,
		})
	}
	if m.metrics != nil {
		if err := m.metrics.RecordStageResults([]metrics.StageResult{{
			RunID:      runID,
			RouteTitle: rec.RouteTitle,
			PlanID:     rec.PlanID,
			Stage:      stage,
			OK:         status == journal.StatusOK,
			Unknown:    status == journal.StatusUnknown,
			Detail:     detail,
			Duration:   dur,
			Time:       time.Now(),
		}}); err != nil {
			m.logger.Errorf("metrics error: %v", err)
		}
	}
}
