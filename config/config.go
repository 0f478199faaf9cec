package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"coinbridge/internal/num"
)

// DefaultBaseURL is the production BTC Markets REST endpoint.
const DefaultBaseURL = "https://api.btcmarkets.net"

type Config struct {
	Coinbridge CoinbridgeConfig `yaml:"coinbridge"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type CoinbridgeConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ExchangeConfig struct {
	BaseURL   string          `yaml:"base_url"`
	APIKey    string          `yaml:"api_key"`
	APISecret string          `yaml:"api_secret"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// FeeOverrides replaces the venue default fee schedule for markets
	// quoted in the given currency. Resolved once at market-list
	// normalization time, never read from ambient state per call.
	FeeOverrides map[string]FeeSchedule `yaml:"fee_overrides"`
}

// FeeSchedule holds maker/taker rates as decimal strings.
type FeeSchedule struct {
	Maker string `yaml:"maker"`
	Taker string `yaml:"taker"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Exchange: ExchangeConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 3,
				BurstSize:         1,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Credentials come from the environment when set, so keys never have
	// to live in the config file.
	if v := os.Getenv("BTCM_API_KEY"); v != "" {
		config.Exchange.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("BTCM_API_SECRET"); v != "" {
		config.Exchange.APISecret = strings.TrimSpace(v)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Coinbridge.Name == "" {
		return fmt.Errorf("coinbridge.name is required")
	}

	if cfg.Coinbridge.Version == "" {
		return fmt.Errorf("coinbridge.version is required")
	}

	if cfg.Exchange.Timeout <= 0 {
		return fmt.Errorf("exchange.timeout must be greater than 0")
	}

	if cfg.Exchange.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("exchange.rate_limit.requests_per_second must be greater than 0")
	}

	u, err := url.Parse(cfg.Exchange.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("exchange.base_url '%s' is invalid", cfg.Exchange.BaseURL)
	}
	if IsProductionLike(AppEnvironment()) && u.Scheme != "https" {
		return fmt.Errorf("exchange.base_url must use https in %s", AppEnvironment())
	}

	for quote, fees := range cfg.Exchange.FeeOverrides {
		if _, err := num.Cmp(fees.Maker, "0"); err != nil {
			return fmt.Errorf("exchange.fee_overrides.%s.maker: %w", quote, err)
		}
		if _, err := num.Cmp(fees.Taker, "0"); err != nil {
			return fmt.Errorf("exchange.fee_overrides.%s.taker: %w", quote, err)
		}
	}

	return nil
}
