// Package config loads runtime settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything voxtale reads from the environment. A .env
// file in the working directory is loaded first (see cmd/voxtale).
type Config struct {
	APIURL string `env:"VOXTALE_API_URL" envDefault:"http://localhost:8000"`
	APIKey string `env:"VOXTALE_API_KEY"`

	CacheDir  string `env:"VOXTALE_CACHE_DIR" envDefault:".voxtale/clips"`
	DiskCache bool   `env:"VOXTALE_DISK_CACHE" envDefault:"true"`

	LogLevel string `env:"VOXTALE_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"VOXTALE_LOG_FILE"  envDefault:"voxtale.log"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
