package circuit

// Wire types for the remote routing service. Resource identifiers are full
// resource names as the service returns them ("plans/abc", "operations/def",
// "drivers/xyz"); request URLs are built by joining the API base with the
// resource name.

// PlanStart is the calendar day a plan starts on.
type PlanStart struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PlanSpec is the payload creating a new plan.
type PlanSpec struct {
	Title   string    `json:"title"`
	Starts  PlanStart `json:"starts"`
	Drivers []string  `json:"drivers"`
}

// Plan is a plan as the service reports it.
type Plan struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Starts      PlanStart `json:"starts"`
	Writable    bool      `json:"writable"`
	Distributed bool      `json:"distributed"`
}

// StopAddress is the address block of an imported stop. Name carries the
// human-readable one-line address used for geocoding.
type StopAddress struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	Name         string `json:"name"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
}

// OrderInfo lists the products delivered at a stop.
type OrderInfo struct {
	Products []string `json:"products"`
}

// Recipient carries optional contact details. Empty fields are omitted from
// the payload entirely.
type Recipient struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// StopInput is one stop of an import batch.
type StopInput struct {
	Address        StopAddress `json:"address"`
	OrderInfo      OrderInfo   `json:"orderInfo"`
	AllowedDrivers []string    `json:"allowedDrivers"`
	PackageCount   int         `json:"packageCount"`
	Notes          string      `json:"notes,omitempty"`
	Recipient      *Recipient  `json:"recipient,omitempty"`
}

// Stop is a stop as the service lists it.
type Stop struct {
	ID string `json:"id"`
	StopInput
}

// ImportResult is the outcome of one stop import batch. Success holds the
// created stop ids; Failed holds the rejected entries verbatim.
type ImportResult struct {
	Success []string         `json:"success"`
	Failed  []map[string]any `json:"failed"`
}

// OperationMetadata flags remote-side cancellation.
type OperationMetadata struct {
	Canceled bool `json:"canceled"`
}

// OperationResult is present once an optimization finished or failed.
type OperationResult struct {
	SkippedStops []string `json:"skippedStops,omitempty"`
	Code         string   `json:"code,omitempty"`
}

// Operation tracks a long-running optimization.
type Operation struct {
	ID       string            `json:"id"`
	Done     bool              `json:"done"`
	Metadata OperationMetadata `json:"metadata"`
	Result   *OperationResult  `json:"result,omitempty"`
}

// Failure inspects the operation payload and returns the terminal
// optimization error, or nil while the operation is healthy. A canceled
// flag, skipped stops or an error code are all terminal.
func (o Operation) Failure() *OptimizationError {
	if o.Metadata.Canceled {
		return &OptimizationError{OperationID: o.ID, Canceled: true}
	}
	if o.Result != nil && len(o.Result.SkippedStops) > 0 {
		return &OptimizationError{OperationID: o.ID, SkippedStops: len(o.Result.SkippedStops)}
	}
	if o.Result != nil && o.Result.Code != "" {
		return &OptimizationError{OperationID: o.ID, Code: o.Result.Code}
	}
	return nil
}

// PlanFilter narrows plan listings. Zero fields are omitted.
type PlanFilter struct {
	StartsGte string // inclusive lower bound, YYYY-MM-DD
	StartsLte string // inclusive upper bound, YYYY-MM-DD
}
