package metrics

import "github.com/routeup/routeup/core/factory"

// Config selects the metrics sinks and the optional Prometheus exposition
// port. A zero port leaves the exposition server off.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusPort int                    `json:"prometheus_port"`
}
