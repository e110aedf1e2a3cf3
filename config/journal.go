package config

import (
	"fmt"
)

// JournalConfig defines settings for run journal storage and rotation.
type JournalConfig struct {
	// Backend selects the journal store: "nop", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the journal store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when a jsonl file exceeds this size in
	// megabytes. Zero disables rotation.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults. Runs keep no journal unless one is
// configured.
func (c *JournalConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "nop"
	}
}

// Validate checks mandatory fields.
func (c JournalConfig) Validate() error {
	switch c.Backend {
	case "nop":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("journal path is required for the %s backend", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown journal backend %s", c.Backend)
	}
}
