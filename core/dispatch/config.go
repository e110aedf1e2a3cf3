package dispatch

import "fmt"

// maxImportBatch is the hard cap the remote API places on one stops import.
const maxImportBatch = 100

// Config defines upload-run settings.
type Config struct {
	// BatchSize caps how many stops are sent per import call. The remote
	// API rejects batches above 100.
	BatchSize int `json:"batch_size"`
	// PollIntervalSeconds is the initial delay between optimization status
	// checks. The delay doubles after every unfinished poll up to
	// PollMaxIntervalSeconds.
	PollIntervalSeconds    int `json:"poll_interval_seconds"`
	PollMaxIntervalSeconds int `json:"poll_max_interval_seconds"`
	// Distribute controls whether optimized plans are pushed to drivers.
	Distribute bool `json:"distribute"`
	// AllowInactiveDrivers lets a run proceed when a route resolves to a
	// driver the remote marks inactive.
	AllowInactiveDrivers bool `json:"allow_inactive_drivers"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = maxImportBatch
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = 1
	}
	if c.PollMaxIntervalSeconds == 0 {
		c.PollMaxIntervalSeconds = 10
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > maxImportBatch {
		return fmt.Errorf("batch_size must be between 1 and %d", maxImportBatch)
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be positive")
	}
	if c.PollMaxIntervalSeconds < c.PollIntervalSeconds {
		return fmt.Errorf("poll_max_interval_seconds must be at least poll_interval_seconds")
	}
	return nil
}
