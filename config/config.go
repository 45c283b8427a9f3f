package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config for the payout simulator
type Config struct {
	Env string `yaml:"env" env:"PAYOUT_ENV" env-default:"development"`

	HTTP       HTTP       `yaml:"http"`
	Fixer      Fixer      `yaml:"fixer"`
	Rates      Rates      `yaml:"rates"`
	Simulation Simulation `yaml:"simulation"`
	Log        Log        `yaml:"log"`
}

type HTTP struct {
	Addr string `yaml:"addr" env:"PAYOUT_HTTP_ADDR" env-default:":8080"`
}

// Fixer rate provider settings
type Fixer struct {
	URL        string        `yaml:"url" env:"FIXER_API_URL" env-default:"http://data.fixer.io/api/"`
	APIKey     string        `yaml:"api_key" env:"FIXER_API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env:"FIXER_TIMEOUT" env-default:"5s"`
	MaxRetries int           `yaml:"max_retries" env:"FIXER_MAX_RETRIES" env-default:"2"`
}

type Rates struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"RATES_REFRESH_INTERVAL" env-default:"1h"`
	// MaxAge 0 disables the staleness check
	MaxAge time.Duration `yaml:"max_age" env:"RATES_MAX_AGE" env-default:"24h"`
}

type Simulation struct {
	SourceCurrency string        `yaml:"source_currency" env:"SOURCE_CURRENCY" env-default:"USD"`
	Latency        time.Duration `yaml:"latency" env:"SIMULATION_LATENCY" env-default:"1500ms"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"logfmt"`
}

// Load reads an optional .env file, then the YAML file named by PAYOUT_CONFIG_PATH if set,
// then environment variables, which win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("PAYOUT_CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Rates.RefreshInterval <= 0 {
		return fmt.Errorf("rates refresh interval must be positive, got %v", c.Rates.RefreshInterval)
	}
	if c.Rates.MaxAge < 0 {
		return fmt.Errorf("rates max age must not be negative, got %v", c.Rates.MaxAge)
	}
	if c.Simulation.Latency < 0 {
		return fmt.Errorf("simulation latency must not be negative, got %v", c.Simulation.Latency)
	}
	if c.Fixer.MaxRetries < 0 {
		return fmt.Errorf("fixer max retries must not be negative, got %d", c.Fixer.MaxRetries)
	}
	switch c.Log.Format {
	case "logfmt", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// MaskedKey the API key safe for logging
func (c *Config) MaskedKey() string {
	key := c.Fixer.APIKey
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
