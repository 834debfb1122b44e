// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration. Every field has a working
// default so a bare `diceboxd` starts without any environment set.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"DICEBOX_ADDR" envDefault:":8080"`
	// DBPath is the SQLite path for roll history. The default keeps
	// history in memory for the lifetime of the process.
	DBPath string `env:"DICEBOX_DB_PATH" envDefault:":memory:"`

	// DiceMax caps the dice count accepted per roll.
	DiceMax int `env:"DICEBOX_DICE_MAX" envDefault:"10"`
	// ResolveDeadline bounds a single roll resolution.
	ResolveDeadline time.Duration `env:"DICEBOX_RESOLVE_DEADLINE" envDefault:"10s"`
	// MaxRetries caps stuck-resolution retries.
	MaxRetries uint64 `env:"DICEBOX_MAX_RETRIES" envDefault:"3"`
	// DetectionWindow is the stuck-detection window in physics steps.
	DetectionWindow int `env:"DICEBOX_DETECTION_WINDOW" envDefault:"1000"`

	// FrameSize is the edge length of exported frames in pixels.
	FrameSize int `env:"DICEBOX_FRAME_SIZE" envDefault:"320"`
	// Supersample is the render oversampling factor.
	Supersample int `env:"DICEBOX_SUPERSAMPLE" envDefault:"3"`

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration `env:"DICEBOX_REQUEST_TIMEOUT" envDefault:"60s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
