package arbor

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime knobs for a Context. Zero values are replaced by
// the defaults from DefaultConfig when passed to NewContext.
type Config struct {
	// CacheMaxScenes caps the number of scenes held in the preload cache.
	CacheMaxScenes int `env:"ARBOR_CACHE_MAX_SCENES"`
	// CacheMaxBytes caps the approximate memory charged to the preload
	// cache. Eviction is least-recently-used.
	CacheMaxBytes int64 `env:"ARBOR_CACHE_MAX_BYTES"`
	// TransitionDuration is the default duration for Fade and Slide scene
	// transitions when ChangeOptions.Duration is zero.
	TransitionDuration time.Duration `env:"ARBOR_TRANSITION_DURATION"`
	// ViewportWidth and ViewportHeight describe the logical screen size used
	// by Control anchor layout for top-level controls and by Slide
	// transitions for the default offscreen offset.
	ViewportWidth  float64 `env:"ARBOR_VIEWPORT_WIDTH"`
	ViewportHeight float64 `env:"ARBOR_VIEWPORT_HEIGHT"`
	// LogLevel is a zerolog level string ("debug", "info", "warn", ...).
	LogLevel string `env:"ARBOR_LOG_LEVEL"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		CacheMaxScenes:     32,
		CacheMaxBytes:      64 << 20,
		TransitionDuration: 300 * time.Millisecond,
		ViewportWidth:      1280,
		ViewportHeight:     720,
		LogLevel:           "info",
	}
}

// ConfigFromEnv returns DefaultConfig overridden by any ARBOR_* environment
// variables that are set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.CacheMaxScenes <= 0 {
		c.CacheMaxScenes = d.CacheMaxScenes
	}
	if c.CacheMaxBytes <= 0 {
		c.CacheMaxBytes = d.CacheMaxBytes
	}
	if c.TransitionDuration <= 0 {
		c.TransitionDuration = d.TransitionDuration
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = d.ViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = d.ViewportHeight
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}
