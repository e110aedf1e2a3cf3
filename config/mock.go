package config

// MockConfig configures the local stand-in for the remote routing API,
// including the fault behaviors it can rehearse.
type MockConfig struct {
	// Address is the listen address of the mock server.
	Address string `json:"address"`
	// Drivers names the roster served by /drivers. Empty uses a default crew.
	Drivers []string `json:"drivers"`
	// Every429 answers every Nth API call with a 429. Zero disables the fault.
	Every429 int `json:"every_429"`
	// CancelOptimize makes every optimization come back canceled.
	CancelOptimize bool `json:"cancel_optimize"`
	// ReadOnlyPlans creates plans that reject stop imports.
	ReadOnlyPlans bool `json:"read_only_plans"`
	// OptimizePolls is how many status checks an optimization needs before
	// it reports done. Zero finishes at launch.
	OptimizePolls int `json:"optimize_polls"`
}

// SetDefaults applies sane defaults.
func (c *MockConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}
