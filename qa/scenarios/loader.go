package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/routeup/routeup/core/model"
)

// RouteDef declares one route of a scenario and how many stops it carries.
type RouteDef struct {
	Title string `yaml:"title"`
	Stops int    `yaml:"stops"`
}

// ToStops expands the definition into stop records for the route.
func (r RouteDef) ToStops() []model.StopRecord {
	stops := make([]model.StopRecord, r.Stops)
	for i := range stops {
		stops[i] = model.StopRecord{
			RouteTitle: r.Title,
			Name:       fmt.Sprintf("Recipient %d", i+1),
			Street:     fmt.Sprintf("%d Oak St", i+1),
			City:       "Springfield",
			State:      "MA",
			Zip:        "01103",
			OrderCount: 1,
			BoxType:    "BASIC",
		}
	}
	return stops
}

// MockDef selects the fault behaviour of the mock routing API.
type MockDef struct {
	Every429       int  `yaml:"every_429,omitempty"`
	CancelOptimize bool `yaml:"cancel_optimize,omitempty"`
	ReadOnlyPlans  bool `yaml:"read_only_plans,omitempty"`
	OptimizePolls  int  `yaml:"optimize_polls,omitempty"`
}

// Expected states the outcome counts a scenario must produce.
type Expected struct {
	Completed   int `yaml:"completed"`
	Failed      int `yaml:"failed"`
	Unconfirmed int `yaml:"unconfirmed"`
}

// Scenario is one declarative upload rehearsal: routes to upload, the faults
// the mock should inject and the outcome the run must reach.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Routes      []RouteDef `yaml:"routes"`
	Mock        MockDef    `yaml:"mock,omitempty"`
	Distribute  bool       `yaml:"distribute,omitempty"`
	Expected    Expected   `yaml:"expected"`
}

// Stops flattens every route of the scenario into one manifest.
func (sc *Scenario) Stops() []model.StopRecord {
	var out []model.StopRecord
	for _, r := range sc.Routes {
		out = append(out, r.ToStops()...)
	}
	return out
}

// DriverNames returns one roster name per route so every title resolves to
// exactly one driver.
func (sc *Scenario) DriverNames() []string {
	names := make([]string, len(sc.Routes))
	for i, r := range sc.Routes {
		names[i] = r.Title
	}
	return names
}

// Load reads a scenario definition from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
