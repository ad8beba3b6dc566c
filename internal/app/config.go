package app

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds everything an App instance needs to run. Fields default from
// the environment; CLI flags override on top.
type Config struct {
	ManifestPath string `env:"STAGEHAND_MANIFEST"`

	LogFormat       string `env:"STAGEHAND_LOG_FORMAT" envDefault:"json"`
	LogLevel        string `env:"STAGEHAND_LOG_LEVEL" envDefault:"info"`
	HealthcheckPort int    `env:"STAGEHAND_HEALTHCHECK_PORT" envDefault:"0"`

	// LayerConcurrency caps components driven at once within a dependency
	// layer. 0 means unbounded.
	LayerConcurrency int `env:"STAGEHAND_LAYER_CONCURRENCY" envDefault:"0"`

	// Orchestrator-wide default hook deadlines. Zero falls through to the
	// lifecycle machine's built-in 5s default.
	StartTimeout   time.Duration `env:"STAGEHAND_START_TIMEOUT"`
	StopTimeout    time.Duration `env:"STAGEHAND_STOP_TIMEOUT"`
	DestroyTimeout time.Duration `env:"STAGEHAND_DESTROY_TIMEOUT"`
}

// FromEnv builds a Config seeded from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewConfig validates a fully-merged configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is required")
	}
	return &cfg, nil
}
