package config

import (
	"log/slog"
	"strings"
)

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// Format is json or text.
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Sanitize falls back to info/json for unknown values.
func (c *LogConfig) Sanitize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	switch c.Level {
	case "debug", "info", "warn", "error":
	case "warning":
		c.Level = "warn"
	default:
		c.Level = "info"
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format != "text" {
		c.Format = "json"
	}
}

// SlogLevel returns the configured level as a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
