package config

import (
	"fmt"

	"github.com/rezkam/taskdeck/internal/env"
)

// TestConfig holds connection settings for integration tests against real
// backends. Every field is optional; tests skip the backends left unset.
type TestConfig struct {
	PostgresDSN string `env:"TASKDECK_TEST_POSTGRES_DSN"`
	RedisURL    string `env:"TASKDECK_TEST_REDIS_URL"`
	GCSBucket   string `env:"TASKDECK_TEST_GCS_BUCKET"`
	GCSEndpoint string `env:"TASKDECK_TEST_GCS_ENDPOINT"`
}

// LoadTestConfig loads test configuration from environment.
func LoadTestConfig() (*TestConfig, error) {
	cfg := &TestConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}

	return cfg, nil
}
