package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
	History HistoryConfig
	Limits  LimitsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Env  string `env:"ENV" envDefault:"development"` // "development" or "production"
}

// GameConfig holds game pacing and presentation
type GameConfig struct {
	NightWindow time.Duration `env:"NIGHT_WINDOW" envDefault:"60s"`
	DayWindow   time.Duration `env:"DAY_WINDOW" envDefault:"60s"`
	RoundPause  time.Duration `env:"ROUND_PAUSE" envDefault:"5s"`
	Locale      string        `env:"LOCALE" envDefault:"en"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// HistoryConfig holds the finished-game archive settings. An empty path disables it.
type HistoryConfig struct {
	DBPath string `env:"HISTORY_DB_PATH"`
}

// LimitsConfig holds per-connection command throttling
type LimitsConfig struct {
	CommandRate  float64 `env:"COMMAND_RATE" envDefault:"5"`
	CommandBurst int     `env:"COMMAND_BURST" envDefault:"10"`
}

// Load reads an optional .env file and then the process environment
func Load(dotenvPaths ...string) (*Config, error) {
	if err := godotenv.Load(dotenvPaths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Game.NightWindow <= 0 || c.Game.DayWindow <= 0 {
		return fmt.Errorf("phase windows must be positive: night=%s day=%s", c.Game.NightWindow, c.Game.DayWindow)
	}
	if c.Game.RoundPause < 0 {
		return fmt.Errorf("round pause must not be negative: %s", c.Game.RoundPause)
	}
	if c.Limits.CommandRate <= 0 || c.Limits.CommandBurst <= 0 {
		return fmt.Errorf("command rate and burst must be positive: rate=%v burst=%d", c.Limits.CommandRate, c.Limits.CommandBurst)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// HistoryEnabled reports whether finished games are archived
func (c *Config) HistoryEnabled() bool {
	return c.History.DBPath != ""
}
