package app

import (
	"time"

	"github.com/specialistvlad/rcctl/internal/config"
)

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	APIKey    string
	ProjectID string
	BaseURL   string // empty means the public API
	Timeout   time.Duration

	LogFormat string
	LogLevel  string
	Color     bool
	Location  *time.Location // nil means time.Local
}

// NewConfig validates cfg. Credentials are required; everything else has a
// usable zero value.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	if cfg.ProjectID == "" {
		return nil, config.ErrMissingProjectID
	}
	return &cfg, nil
}
