// Package factory provides a small generic registry for building modules
// from configuration. A module is selected by a type string and configured
// with a map of raw settings; the registered factory decodes the settings
// into a typed struct and returns the concrete implementation.
//
// The metrics sinks use it like this:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct {
//	        URL   string `json:"url"`
//	        Token string `json:"token"`
//	    }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return metrics.NewInfluxSink(c.URL, c.Token), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": u, "token": t}})
package factory
