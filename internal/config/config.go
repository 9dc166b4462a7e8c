package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envKeyReplacer maps nested config keys to environment variable segments.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Config represents the complete application configuration, shared by the
// bot and dashboard binaries.
type Config struct {
	Kalshi    KalshiConfig    `mapstructure:"kalshi"`
	Markets   MarketsConfig   `mapstructure:"markets"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// KalshiConfig holds Kalshi API client configuration.
type KalshiConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MarketsConfig holds leaderboard behavior configuration.
type MarketsConfig struct {
	TopN               int      `mapstructure:"top_n"`
	MaxOptionsPerEvent int      `mapstructure:"max_options_per_event"`
	Categories         []string `mapstructure:"categories"`
}

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	Enabled     bool   `mapstructure:"enabled"`
	Timezone    string `mapstructure:"timezone"`
	DefaultHour int    `mapstructure:"default_hour"`
}

// DashboardConfig holds web dashboard configuration.
type DashboardConfig struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// StoreConfig holds subscription persistence configuration.
type StoreConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. Environment
// variables use the KALSHIPULSE_ prefix with underscores for nesting, e.g.
// KALSHIPULSE_TELEGRAM_BOT_TOKEN overrides telegram.bot_token.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("KALSHIPULSE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// The elections host serves all markets, not just elections.
	v.SetDefault("kalshi.base_url", "https://api.elections.kalshi.com/trade-api/v2")
	v.SetDefault("kalshi.timeout", "30s")
	v.SetDefault("kalshi.max_retries", 3)
	v.SetDefault("kalshi.retry_delay_base", "1s")

	v.SetDefault("markets.top_n", 5)
	v.SetDefault("markets.max_options_per_event", 4)
	v.SetDefault("markets.categories", []string{"Politics", "Economics"})

	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.timezone", "Asia/Singapore")
	v.SetDefault("telegram.default_hour", 8)

	v.SetDefault("dashboard.listen_addr", ":8080")
	v.SetDefault("dashboard.cache_ttl", "60s")

	v.SetDefault("store.file_path", "./data/subscriptions.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Kalshi.BaseURL == "" {
		return fmt.Errorf("kalshi.base_url is required")
	}
	if c.Kalshi.Timeout < time.Second {
		return fmt.Errorf("kalshi.timeout must be at least 1 second")
	}
	if c.Kalshi.MaxRetries < 1 {
		return fmt.Errorf("kalshi.max_retries must be at least 1")
	}

	if c.Markets.TopN < 1 || c.Markets.TopN > 20 {
		return fmt.Errorf("markets.top_n must be between 1 and 20")
	}
	if c.Markets.MaxOptionsPerEvent < 1 {
		return fmt.Errorf("markets.max_options_per_event must be at least 1")
	}
	if len(c.Markets.Categories) == 0 {
		return fmt.Errorf("markets.categories must contain at least one category")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if _, err := time.LoadLocation(c.Telegram.Timezone); err != nil {
			return fmt.Errorf("telegram.timezone is invalid: %w", err)
		}
		if c.Telegram.DefaultHour < 0 || c.Telegram.DefaultHour > 23 {
			return fmt.Errorf("telegram.default_hour must be between 0 and 23")
		}
	}

	if c.Dashboard.ListenAddr == "" {
		return fmt.Errorf("dashboard.listen_addr is required")
	}
	if c.Dashboard.CacheTTL < 0 {
		return fmt.Errorf("dashboard.cache_ttl must not be negative")
	}

	if c.Store.FilePath == "" {
		return fmt.Errorf("store.file_path is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
