package config

import (
	"fmt"

	"github.com/routeup/routeup/auth"
)

// CircuitConfig wires the remote routing API client. The API key itself
// never lives in the file; KeyEnv names the environment variable to read it
// from.
type CircuitConfig struct {
	// BaseURL overrides the public API root, which mock runs point at the
	// local server.
	BaseURL string `json:"base_url"`
	// KeyEnv is the environment variable holding the API key. Empty falls
	// back to CIRCUIT_API_KEY.
	KeyEnv string `json:"key_env"`
	// Auth selects the scheme: "api_key" (default) or "oauth2" for
	// deployments fronted by a token gateway.
	Auth  string    `json:"auth"`
	OAuth auth.Conf `json:"oauth"`

	// Initial per-class pacing. Waits double on every 429 and timeouts on
	// every transport failure; zero fields use the client defaults.
	ReadWaitMS          int `json:"read_wait_ms"`
	WriteWaitMS         int `json:"write_wait_ms"`
	OptimizeWaitMS      int `json:"optimize_wait_ms"`
	ReadTimeoutSeconds  int `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *CircuitConfig) SetDefaults() {
	if c.Auth == "" {
		c.Auth = "api_key"
	}
}

// Validate checks the auth mode and pacing ranges.
func (c CircuitConfig) Validate() error {
	switch c.Auth {
	case "api_key":
	case "oauth2":
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" || c.OAuth.AuthURL == "" {
			return fmt.Errorf("oauth2 auth requires client_id, client_secret and auth_url")
		}
	default:
		return fmt.Errorf("unknown auth mode %s", c.Auth)
	}
	for name, v := range map[string]int{
		"read_wait_ms":          c.ReadWaitMS,
		"write_wait_ms":         c.WriteWaitMS,
		"optimize_wait_ms":      c.OptimizeWaitMS,
		"read_timeout_seconds":  c.ReadTimeoutSeconds,
		"write_timeout_seconds": c.WriteTimeoutSeconds,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
