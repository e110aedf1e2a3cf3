package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/routeup/routeup/core/dispatch"
	"github.com/routeup/routeup/core/metrics"
)

type Config struct {
	Circuit  CircuitConfig   `json:"circuit"`
	Dispatch dispatch.Config `json:"dispatch"`
	Metrics  metrics.Config  `json:"metrics"`
	Journal  JournalConfig   `json:"journal"`
	Sentry   SentryConfig    `json:"sentry"`
	Mock     MockConfig      `json:"mock"`
}

// Load reads the configuration file (YAML or JSON by extension) and merges
// environment overrides on top: ROUTEUP_CIRCUIT__BASE_URL becomes
// circuit.base_url. An empty path skips the file and uses environment and
// defaults alone. A .env file in the working directory is honored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("ROUTEUP_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "routeup_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Circuit.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Journal.SetDefaults()
	cfg.Mock.SetDefaults()
	if err := cfg.Circuit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Journal.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
