package circuit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/routeup/routeup/auth"
	corecircuit "github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/core/model"
	"github.com/routeup/routeup/infra/logger"
)

// DefaultBaseURL is the public API root of the routing service.
const DefaultBaseURL = "https://api.getcircuit.com/public/v0.2b"

// Config wires the HTTP client. Creds is required; everything else has
// defaults.
type Config struct {
	BaseURL string
	Creds   auth.Credentials
	Limits  Limits
	// HTTP overrides the underlying client; per-attempt timeouts come from
	// the limiter, so the override should not set its own.
	HTTP    *http.Client
	OnRetry RetryFunc
}

// HTTPClient implements the remote service boundary over HTTP.
type HTTPClient struct {
	base string
	call *caller
}

var _ corecircuit.Client = (*HTTPClient)(nil)

// New builds an HTTPClient from the config.
func New(cfg Config) (*HTTPClient, error) {
	if cfg.Creds == nil {
		return nil, fmt.Errorf("credentials are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	httpc := cfg.HTTP
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &HTTPClient{
		base: strings.TrimRight(base, "/"),
		call: &caller{
			httpc:   httpc,
			creds:   cfg.Creds,
			limiter: NewLimiter(cfg.Limits),
			log:     logger.New("circuit_client"),
			onRetry: cfg.OnRetry,
		},
	}, nil
}

// NewWithLimiter builds an HTTPClient sharing a caller-tested limiter.
// Tests use it to inject zero waits.
func NewWithLimiter(cfg Config, l *Limiter) (*HTTPClient, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.call.limiter = l
	return c, nil
}

func (c *HTTPClient) CreatePlan(ctx context.Context, spec corecircuit.PlanSpec) (corecircuit.Plan, error) {
	var plan corecircuit.Plan
	err := c.call.do(ctx, request{
		method: http.MethodPost,
		url:    c.base + "/plans",
		class:  ClassWrite,
		body:   spec,
	}, &plan)
	return plan, err
}

func (c *HTTPClient) ImportStops(ctx context.Context, planID string, stops []corecircuit.StopInput) (corecircuit.ImportResult, error) {
	var res corecircuit.ImportResult
	err := c.call.do(ctx, request{
		method: http.MethodPost,
		url:    c.base + "/" + planID + "/stops:import",
		class:  ClassWrite,
		body:   stops,
	}, &res)
	return res, err
}

// StartOptimization launches optimization and inspects the returned payload:
// a canceled, skipped-stops or error-coded operation comes back as a
// *circuit.OptimizationError.
func (c *HTTPClient) StartOptimization(ctx context.Context, planID string) (corecircuit.Operation, error) {
	var op corecircuit.Operation
	err := c.call.do(ctx, request{
		method: http.MethodPost,
		url:    c.base + "/" + planID + ":optimize",
		class:  ClassOptimize,
	}, &op)
	if err != nil {
		return op, err
	}
	if f := op.Failure(); f != nil {
		return op, f
	}
	return op, nil
}

// CheckOptimization polls a launched optimization, applying the same payload
// inspection as the launch.
func (c *HTTPClient) CheckOptimization(ctx context.Context, operationID string) (corecircuit.Operation, error) {
	var op corecircuit.Operation
	err := c.call.do(ctx, request{
		method: http.MethodGet,
		url:    c.base + "/" + operationID,
		class:  ClassOptimize,
	}, &op)
	if err != nil {
		return op, err
	}
	if f := op.Failure(); f != nil {
		return op, f
	}
	return op, nil
}

func (c *HTTPClient) DistributePlan(ctx context.Context, planID string) (bool, error) {
	var res struct {
		Distributed bool `json:"distributed"`
	}
	err := c.call.do(ctx, request{
		method: http.MethodPost,
		url:    c.base + "/" + planID + ":distribute",
		class:  ClassWrite,
	}, &res)
	return res.Distributed, err
}

func (c *HTTPClient) DeletePlan(ctx context.Context, planID string) error {
	return c.call.do(ctx, request{
		method: http.MethodDelete,
		url:    c.base + "/" + planID,
		class:  ClassDelete,
	}, nil)
}

func (c *HTTPClient) ListDrivers(ctx context.Context) ([]model.Driver, error) {
	return fetchAll[model.Driver](ctx, c.call, c.base+"/drivers", "drivers", ClassRead)
}

func (c *HTTPClient) ListPlans(ctx context.Context, filter corecircuit.PlanFilter) ([]corecircuit.Plan, error) {
	listURL := c.base + "/plans"
	q := url.Values{}
	if filter.StartsGte != "" {
		q.Set("filter.startsGte", filter.StartsGte)
	}
	if filter.StartsLte != "" {
		q.Set("filter.startsLte", filter.StartsLte)
	}
	if len(q) > 0 {
		listURL += "?" + q.Encode()
	}
	return fetchAll[corecircuit.Plan](ctx, c.call, listURL, "plans", ClassRead)
}

func (c *HTTPClient) ListPlanStops(ctx context.Context, planID string) ([]corecircuit.Stop, error) {
	return fetchAll[corecircuit.Stop](ctx, c.call, c.base+"/"+planID+"/stops", "stops", ClassRead)
}
