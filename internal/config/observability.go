package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// ObservabilityConfig holds logging and OpenTelemetry configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"TASKDECK_OTEL_ENABLED" default:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" default:"taskdeck"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"TASKDECK_LOG_LEVEL" default:"warn"`
	// LogFormat is text or json.
	LogFormat string `env:"TASKDECK_LOG_FORMAT" default:"text"`
}

// Validate validates the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("TASKDECK_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c *ObservabilityConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("TASKDECK_LOG_LEVEL: %w", err)
	}
	return level, nil
}
