package circuit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/routeup/routeup/auth"
	corecircuit "github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/infra/logger"
)

// request describes one remote call as data. All calls funnel through
// caller.do, which owns pacing, retry and decoding.
type request struct {
	method string
	url    string
	class  Class
	body   any
}

// RetryFunc observes retries: status is 429 for rate limiting and 0 for a
// transport failure; wait is the escalated wait or timeout.
type RetryFunc func(class Class, status int, wait time.Duration)

type caller struct {
	httpc   *http.Client
	creds   auth.Credentials
	limiter *Limiter
	log     logger.Logger
	onRetry RetryFunc
}

// do executes the request until it succeeds, fails permanently, or the
// context is canceled. Every attempt first sleeps the class's current wait.
// A 429 doubles the wait and retries without any attempt cap; a transport
// failure doubles the class timeout and retries; any other non-2xx response
// is a permanent *circuit.APIError. A 2xx response decodes into out; a 204
// or empty body leaves out untouched.
func (c *caller) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", req.method, req.url, err)
		}
	}

	for {
		if err := c.limiter.Sleep(ctx, req.class); err != nil {
			return err
		}

		status, body, err := c.attempt(ctx, req, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var be *buildError
			if errors.As(err, &be) {
				return err
			}
			timeout := c.limiter.DoubleTimeout(req.class)
			transportRetries.WithLabelValues(req.class.String()).Inc()
			c.log.Warnf("%s %s transport failure: %v, timeout now %s", req.method, req.url, err, timeout)
			c.retry(req.class, 0, timeout)
			continue
		}

		switch {
		case status == http.StatusTooManyRequests:
			wait := c.limiter.DoubleWait(req.class)
			rateLimited.WithLabelValues(req.class.String()).Inc()
			c.log.Warnf("%s %s rate limited, wait now %s", req.method, req.url, wait)
			c.retry(req.class, status, wait)
			continue
		case status >= 200 && status < 300:
			if out == nil || len(body) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s %s response: %w", req.method, req.url, err)
			}
			return nil
		default:
			return &corecircuit.APIError{
				Method: req.method,
				URL:    req.url,
				Status: status,
				Body:   decodeErrorBody(body),
			}
		}
	}
}

// attempt performs one HTTP round trip under the class's current timeout and
// returns the status and the full body.
func (c *caller) attempt(ctx context.Context, req request, payload []byte) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.limiter.Timeout(req.class))
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	hreq, err := http.NewRequestWithContext(attemptCtx, req.method, req.url, reader)
	if err != nil {
		return 0, nil, &buildError{fmt.Errorf("build request: %w", err)}
	}
	if payload != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if err := c.creds.SetAuthHeader(hreq); err != nil {
		return 0, nil, &buildError{fmt.Errorf("authenticate request: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpc.Do(hreq)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	requestDuration.WithLabelValues(req.class.String()).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(req.class.String(), req.method, fmt.Sprint(resp.StatusCode)).Inc()
	return resp.StatusCode, body, nil
}

func (c *caller) retry(class Class, status int, wait time.Duration) {
	if c.onRetry != nil {
		c.onRetry(class, status, wait)
	}
}

// buildError marks failures that retrying cannot fix, like an unbuildable
// request or rejected credentials.
type buildError struct {
	err error
}

func (e *buildError) Error() string { return e.err.Error() }
func (e *buildError) Unwrap() error { return e.err }

// decodeErrorBody keeps the decoded JSON payload when the body is JSON and
// the raw text otherwise, so permanent errors always carry what the service
// said.
func decodeErrorBody(body []byte) any {
	if len(body) == 0 {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	return decoded
}
