// Package app assembles a configured service instance: credentials, the
// HTTP client, metrics sinks, the run journal, error monitoring and the
// upload manager.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/routeup/routeup/auth"
	"github.com/routeup/routeup/config"
	corecircuit "github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/core/dispatch"
	"github.com/routeup/routeup/core/dispatch/journal"
	"github.com/routeup/routeup/core/events"
	coremetrics "github.com/routeup/routeup/core/metrics"
	coremon "github.com/routeup/routeup/core/monitoring"
	"github.com/routeup/routeup/infra/circuit"
	"github.com/routeup/routeup/infra/logger"
	"github.com/routeup/routeup/infra/metrics"
	"github.com/routeup/routeup/infra/monitoring"
	"github.com/routeup/routeup/internal/eventbus"
)

// Service bundles the wired components behind one CLI invocation.
type Service struct {
	Manager *dispatch.Manager
	Client  corecircuit.Client
	Bus     eventbus.EventBus
	Journal journal.Store

	cfg     *config.Config
	log     logger.Logger
	sink    coremetrics.MetricsSink
	monitor coremon.Monitor
}

// New creates a Service from the configuration. The strategy decides
// ambiguous driver assignments; commands that never resolve drivers pass an
// empty StaticStrategy.
func New(cfg *config.Config, strategy dispatch.ConfirmStrategy) (*Service, error) {
	log := logger.New("service")

	creds, err := credentials(cfg.Circuit)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	client, err := circuit.New(circuit.Config{
		BaseURL: cfg.Circuit.BaseURL,
		Creds:   creds,
		Limits:  limits(cfg.Circuit),
		OnRetry: func(class circuit.Class, status int, wait time.Duration) {
			bus.Publish(events.CallRetried{Class: class.String(), Status: status, Wait: wait})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("circuit client: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store, err := OpenJournal(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal store: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	manager, err := dispatch.NewManager(client, strategy, cfg.Dispatch, sink, bus, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Service{
		Manager: manager,
		Client:  client,
		Bus:     bus,
		Journal: store,
		cfg:     cfg,
		log:     log,
		sink:    sink,
		monitor: mon,
	}, nil
}

// Start launches the background pieces: the bus-to-sink metrics bridge and,
// when a port is configured, the Prometheus exposition server. It returns
// immediately; both stop when the context is canceled.
func (s *Service) Start(ctx context.Context) {
	metrics.StartEventCollector(ctx, s.Bus, s.sink)
	if port := s.cfg.Metrics.PrometheusPort; port > 0 {
		go func() {
			defer s.monitor.Recover()
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Close releases the manager (and with it the bus and journal) and flushes
// pending monitor reports.
func (s *Service) Close() error {
	err := s.Manager.Close()
	s.monitor.Flush(2 * time.Second)
	return err
}

// NewClient builds just the HTTP client, for commands that only read from
// the service and need none of the upload machinery.
func NewClient(cfg *config.Config) (corecircuit.Client, error) {
	creds, err := credentials(cfg.Circuit)
	if err != nil {
		return nil, err
	}
	client, err := circuit.New(circuit.Config{
		BaseURL: cfg.Circuit.BaseURL,
		Creds:   creds,
		Limits:  limits(cfg.Circuit),
	})
	if err != nil {
		return nil, fmt.Errorf("circuit client: %w", err)
	}
	return client, nil
}

func credentials(cfg config.CircuitConfig) (auth.Credentials, error) {
	if cfg.Auth == "oauth2" {
		return auth.NewClientCred(cfg.OAuth), nil
	}
	key, err := auth.KeyFromEnv(cfg.KeyEnv)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// limits converts the config's plain integers into pacing values, keeping
// the published defaults for anything unset.
func limits(cfg config.CircuitConfig) circuit.Limits {
	l := circuit.DefaultLimits()
	if cfg.ReadWaitMS > 0 {
		l.ReadWait = time.Duration(cfg.ReadWaitMS) * time.Millisecond
	}
	if cfg.WriteWaitMS > 0 {
		l.WriteWait = time.Duration(cfg.WriteWaitMS) * time.Millisecond
	}
	if cfg.OptimizeWaitMS > 0 {
		l.OptimizeWait = time.Duration(cfg.OptimizeWaitMS) * time.Millisecond
	}
	if cfg.ReadTimeoutSeconds > 0 {
		l.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second
	}
	if cfg.WriteTimeoutSeconds > 0 {
		l.WriteTimeout = time.Duration(cfg.WriteTimeoutSeconds) * time.Second
	}
	return l
}

// OpenJournal opens the journal store named by cfg. Commands that only
// read past runs can use it without building the whole service.
func OpenJournal(cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Backend {
	case "", "nop":
		return journal.NopStore{}, nil
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return journal.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return journal.NewJSONLStore(cfg.Path)
	case "sqlite":
		return journal.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown journal backend %s", cfg.Backend)
	}
}
