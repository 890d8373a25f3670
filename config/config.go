// Package config loads the aut configuration.
//
// Values come, by increasing priority, from the defaults, the TOML files, and
// the environment. A .env file is loaded into the environment first, without
// overriding variables already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/eodhd"
	"github.com/assetutils/portfolio/investfunds"
	"github.com/assetutils/portfolio/remote"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Provider names.
const (
	Investfunds = "investfunds"
	EODHD       = "eodhd"
	Quote       = "quote"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "aut.toml"

// Config represents the application configuration.
type Config struct {
	Portfolio   PortfolioConfig    `toml:"portfolio"`
	Catalog     CatalogConfig      `toml:"catalog"`
	Provider    ProviderConfig     `toml:"provider"`
	Investfunds investfunds.Config `toml:"investfunds"`
	EODHD       EODHDConfig        `toml:"eodhd"`
	Quote       QuoteConfig        `toml:"quote"`
	Rebalance   RebalanceConfig    `toml:"rebalance"`
	Logging     LoggingConfig      `toml:"logging"`
}

type PortfolioConfig struct {
	File         string `toml:"file"`
	Currency     string `toml:"currency"`
	LookbackDays int    `toml:"lookback_days"`
}

type CatalogConfig struct {
	File string `toml:"file"`
}

// ProviderConfig selects the market data provider and its HTTP behavior.
type ProviderConfig struct {
	Name           string `toml:"name"`
	Retries        int    `toml:"retries"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Cache          bool   `toml:"cache"`
	CacheDir       string `toml:"cache_dir"`
}

type EODHDConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// QuoteConfig configures the JSON quote provider, see package quote.
type QuoteConfig struct {
	URL       string `toml:"url"`
	PricePath string `toml:"price_path"`
}

type RebalanceConfig struct {
	MaxIterations  int `toml:"max_iterations"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// NewDefault returns the default configuration.
func NewDefault() *Config {
	return &Config{
		Portfolio: PortfolioConfig{
			File:         "portfolio.jsonl",
			Currency:     portfolio.DefaultCurrency,
			LookbackDays: portfolio.DefaultLookback,
		},
		Catalog: CatalogConfig{File: "catalog.jsonl"},
		Provider: ProviderConfig{
			Name:           Investfunds,
			Retries:        remote.DefaultRetries,
			TimeoutSeconds: 30,
			Cache:          true,
		},
		Investfunds: investfunds.Config{
			ETFURL:  investfunds.DefaultETFURL,
			FundURL: investfunds.DefaultFundURL,
		},
		EODHD:     EODHDConfig{BaseURL: eodhd.DefaultBaseURL},
		Rebalance: RebalanceConfig{TimeoutSeconds: 10},
		Logging:   LoggingConfig{Level: "info", Pretty: true},
	}
}

// Load loads the configuration with priority: defaults -> files -> env.
// Later files override earlier files. envFile is loaded into the
// environment when it exists.
func Load(envFile string, paths ...string) (*Config, error) {
	cfg := NewDefault()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies AUT_* environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUT_PORTFOLIO_FILE"); v != "" {
		cfg.Portfolio.File = v
	}
	if v := os.Getenv("AUT_CURRENCY"); v != "" {
		cfg.Portfolio.Currency = v
	}
	if v := os.Getenv("AUT_CATALOG_FILE"); v != "" {
		cfg.Catalog.File = v
	}
	if v := os.Getenv("AUT_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("AUT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.Retries = n
		}
	}
	if v := os.Getenv("AUT_CACHE_DIR"); v != "" {
		cfg.Provider.CacheDir = v
	}
	if v := os.Getenv(eodhd.APIKeyEnv); v != "" {
		cfg.EODHD.APIKey = v
	}
	if v := os.Getenv("AUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the values that cannot be used as is.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Portfolio.Currency) == "" {
		errs = append(errs, errors.New("portfolio.currency is empty"))
	}
	if c.Portfolio.LookbackDays < 0 {
		errs = append(errs, fmt.Errorf("portfolio.lookback_days must not be negative, got %d", c.Portfolio.LookbackDays))
	}
	switch c.Provider.Name {
	case Investfunds, EODHD, Quote:
	default:
		errs = append(errs, fmt.Errorf("unknown provider.name %q, want one of %s, %s, %s", c.Provider.Name, Investfunds, EODHD, Quote))
	}
	if c.Provider.TimeoutSeconds < 0 || c.Rebalance.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Rebalance.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("rebalance.max_iterations must not be negative, got %d", c.Rebalance.MaxIterations))
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", portfolio.ErrValidation, err)
	}
	return nil
}

// Remote returns the HTTP client configuration of the providers.
func (c *Config) Remote() remote.Config {
	return remote.Config{
		Retries:  c.Provider.Retries,
		Timeout:  time.Duration(c.Provider.TimeoutSeconds) * time.Second,
		Cache:    c.Provider.Cache,
		CacheDir: c.Provider.CacheDir,
	}
}

// RebalanceTimeout returns the solver deadline, 0 means none.
func (c *Config) RebalanceTimeout() time.Duration {
	return time.Duration(c.Rebalance.TimeoutSeconds) * time.Second
}
