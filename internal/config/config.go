package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rezkam/taskdeck/internal/env"
)

// DefaultDotEnvFile is read by Load when present.
const DefaultDotEnvFile = ".env"

// Config holds all configuration for the taskdeck binary.
type Config struct {
	API           APIConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the process environment, falling back to
// the variables in DefaultDotEnvFile for anything the environment does not set.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv, DefaultDotEnvFile)
}

// LoadFrom resolves every variable through lookup first and then through the
// given dotenv files, in order. Missing dotenv files are skipped.
// The process environment is never modified.
func LoadFrom(lookup env.LookupFunc, dotenvFiles ...string) (*Config, error) {
	fileVars := make(map[string]string)
	for _, path := range dotenvFiles {
		vars, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}

	resolve := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	cfg := &Config{}
	if err := env.LoadWith(cfg, resolve); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints that the per-section validators
// cannot see on their own.
func (c *Config) Validate() error {
	if c.Storage.Type == StoragePostgres {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}
	return nil
}
