package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	World   WorldConfig   `toml:"world"`
	Script  ScriptConfig  `toml:"script"`
	Logging LoggingConfig `toml:"logging"`
	Profile ProfileConfig `toml:"profile"`
}

type RunConfig struct {
	Duration       time.Duration `toml:"duration"`
	TickInterval   time.Duration `toml:"tick_interval"` // 0 = update as fast as possible
	GCPauseMetrics bool          `toml:"gc_pause_metrics"`
}

type WorldConfig struct {
	EntityCapacity int     `toml:"entity_capacity"`
	FixedStep      float64 `toml:"fixed_step"` // seconds per fixed simulation step
	SpawnFile      string  `toml:"spawn_file"` // empty = built-in spawn table
	SortEvery      int     `toml:"sort_every"` // fixed steps between depth sorts
	Seed           uint64  `toml:"seed"`
}

type ScriptConfig struct {
	Path string  `toml:"path"` // empty = no script system
	Step float64 `toml:"step"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem" or "allocs"
	Path string `toml:"path"`
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.World.FixedStep <= 0 {
		return fmt.Errorf("world.fixed_step must be positive, got %v", c.World.FixedStep)
	}
	if c.Script.Path != "" && c.Script.Step <= 0 {
		return fmt.Errorf("script.step must be positive, got %v", c.Script.Step)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "allocs":
	default:
		return fmt.Errorf("unknown profile.mode %q", c.Profile.Mode)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration: 10 * time.Second,
		},
		World: WorldConfig{
			EntityCapacity: 16384,
			FixedStep:      1.0 / 60.0,
			SortEvery:      30,
			Seed:           1,
		},
		Script: ScriptConfig{
			Step: 0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
