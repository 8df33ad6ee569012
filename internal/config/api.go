package config

import (
	"fmt"
	"net/url"
	"time"
)

// APIConfig holds settings for talking to the task API.
type APIConfig struct {
	BaseURL string        `env:"TASKDECK_API_URL" default:"http://localhost:8000"`
	Timeout time.Duration `env:"TASKDECK_API_TIMEOUT" default:"10s"`

	// Idempotent requests are retried on transport errors only.
	RetryAttempts int           `env:"TASKDECK_API_RETRY_ATTEMPTS" default:"2"`
	RetryBackoff  time.Duration `env:"TASKDECK_API_RETRY_BACKOFF" default:"200ms"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TASKDECK_API_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("TASKDECK_API_TIMEOUT must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("TASKDECK_API_RETRY_ATTEMPTS must be >= 0")
	}
	return nil
}
