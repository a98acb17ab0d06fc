package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config tunes the demo server. Values come from the environment so a
// deployment can retune without rebuilding.
type Config struct {
	Addr            string        `env:"DRIFTLINE_ADDR" envDefault:":8080"`
	TickRate        int           `env:"DRIFTLINE_TICK_RATE" envDefault:"15"`
	SnapshotEvery   uint64        `env:"DRIFTLINE_SNAPSHOT_EVERY" envDefault:"30"`
	MaxSnapshots    int           `env:"DRIFTLINE_MAX_SNAPSHOTS" envDefault:"12"`
	DisconnectAfter time.Duration `env:"DRIFTLINE_DISCONNECT_AFTER" envDefault:"6s"`
	LogSinks        []string      `env:"DRIFTLINE_LOG_SINKS" envSeparator:"," envDefault:"console"`
	JSONLogPath     string        `env:"DRIFTLINE_JSON_LOG"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.SnapshotEvery == 0 {
		return fmt.Errorf("snapshot cadence must be positive")
	}
	if c.MaxSnapshots < 1 {
		return fmt.Errorf("snapshot window must retain at least one snapshot, got %d", c.MaxSnapshots)
	}
	if c.DisconnectAfter <= 0 {
		return fmt.Errorf("disconnect timeout must be positive, got %v", c.DisconnectAfter)
	}
	return nil
}
