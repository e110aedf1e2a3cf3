package circuit

import "fmt"

// APIError is a permanent non-2xx response. Rate limiting and transport
// timeouts are retried by the dispatch layer and never surface as APIError.
type APIError struct {
	Method string
	URL    string
	Status int
	// Body is the decoded JSON error payload, or the raw body string when
	// the payload is not JSON.
	Body any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("got %d response for %s %s: %v", e.Status, e.Method, e.URL, e.Body)
}

// OptimizationError is a terminal optimization outcome: the remote canceled
// the operation, skipped stops, or reported an error code.
type OptimizationError struct {
	OperationID  string
	Canceled     bool
	SkippedStops int
	Code         string
}

func (e *OptimizationError) Error() string {
	switch {
	case e.Canceled:
		return fmt.Sprintf("optimization %s was canceled", e.OperationID)
	case e.SkippedStops > 0:
		return fmt.Sprintf("optimization %s skipped %d stops", e.OperationID, e.SkippedStops)
	default:
		return fmt.Sprintf("optimization %s failed with code %q", e.OperationID, e.Code)
	}
}
