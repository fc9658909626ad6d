package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the macrofeed process.
type Config struct {
	// API credentials
	FredAPIKey      string `mapstructure:"fred_api_key"`
	AlpacaAPIKey    string `mapstructure:"alpaca_api_key"`
	AlpacaAPISecret string `mapstructure:"alpaca_api_secret"`

	// Base URLs for API endpoints (configurable for testing)
	YahooBaseURL  string `mapstructure:"yahoo_base_url"`
	FredBaseURL   string `mapstructure:"fred_base_url"`
	AlpacaBaseURL string `mapstructure:"alpaca_base_url"`

	// Refresh loop
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`

	// Retry policy bounds
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	RetryMinDelay    time.Duration `mapstructure:"retry_min_delay"`
	RetryMaxDelay    time.Duration `mapstructure:"retry_max_delay"`

	// Lookback windows per dataset
	EconomicLookback  time.Duration `mapstructure:"economic_lookback"`
	RatesLookback     time.Duration `mapstructure:"rates_lookback"`
	RiskLookback      time.Duration `mapstructure:"risk_lookback"`
	PerformanceWindow time.Duration `mapstructure:"performance_window"`
}

// HasAlpaca reports whether the Alpaca fallback provider is configured.
func (c *Config) HasAlpaca() bool {
	return c.AlpacaAPIKey != "" && c.AlpacaAPISecret != ""
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - FRED_API_KEY (required)
//   - ALPACA_API_KEY, ALPACA_API_SECRET (optional, enables the fallback provider)
//   - YAHOO_BASE_URL, FRED_BASE_URL, ALPACA_BASE_URL (optional, default to production)
//   - REFRESH_INTERVAL, FETCH_TIMEOUT (optional durations)
//   - RETRY_MAX_ATTEMPTS, RETRY_MIN_DELAY, RETRY_MAX_DELAY (optional)
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Set defaults for base URLs
	v.SetDefault("yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("fred_base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("alpaca_base_url", "")

	// Refresh and retry defaults
	v.SetDefault("refresh_interval", "60s")
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_min_delay", "500ms")
	v.SetDefault("retry_max_delay", "3s")

	// Lookback defaults: three years of macro history, a month of VIX,
	// six months for the performance comparison
	v.SetDefault("economic_lookback", "26280h")
	v.SetDefault("rates_lookback", "26280h")
	v.SetDefault("risk_lookback", "720h")
	v.SetDefault("performance_window", "4320h")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.macrofeed")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("fred_api_key", "FRED_API_KEY")
	v.BindEnv("alpaca_api_key", "ALPACA_API_KEY")
	v.BindEnv("alpaca_api_secret", "ALPACA_API_SECRET")
	v.BindEnv("yahoo_base_url", "YAHOO_BASE_URL")
	v.BindEnv("fred_base_url", "FRED_BASE_URL")
	v.BindEnv("alpaca_base_url", "ALPACA_BASE_URL")
	v.BindEnv("refresh_interval", "REFRESH_INTERVAL")
	v.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
	v.BindEnv("retry_max_attempts", "RETRY_MAX_ATTEMPTS")
	v.BindEnv("retry_min_delay", "RETRY_MIN_DELAY")
	v.BindEnv("retry_max_delay", "RETRY_MAX_DELAY")
	v.BindEnv("economic_lookback", "ECONOMIC_LOOKBACK")
	v.BindEnv("rates_lookback", "RATES_LOOKBACK")
	v.BindEnv("risk_lookback", "RISK_LOOKBACK")
	v.BindEnv("performance_window", "PERFORMANCE_WINDOW")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	var missing []string
	if config.FredAPIKey == "" {
		missing = append(missing, "FRED_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if config.RetryMinDelay > config.RetryMaxDelay {
		return nil, fmt.Errorf("retry_min_delay %s exceeds retry_max_delay %s", config.RetryMinDelay, config.RetryMaxDelay)
	}

	return config, nil
}
