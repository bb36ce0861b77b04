// Package config loads the tracker configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full daemon configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Market   MarketConfig   `mapstructure:"market"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig configures the run-history database.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ScheduleConfig configures the recurring trigger.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression evaluated in UTC.
	Cron    string `mapstructure:"cron"`
	Enabled bool   `mapstructure:"enabled"`
}

// MarketConfig configures the market-data fetch step.
type MarketConfig struct {
	BaseURL           string           `mapstructure:"base_url"`
	RequestIntervalMS int              `mapstructure:"request_interval_ms"`
	QuoteTTLSeconds   int              `mapstructure:"quote_ttl_seconds"`
	Categories        []CategoryConfig `mapstructure:"categories"`
}

// CategoryConfig overrides one tracked category. When no categories are
// configured the built-in registry is used.
type CategoryConfig struct {
	Name    string         `mapstructure:"name"`
	Symbols []SymbolConfig `mapstructure:"symbols"`
}

// SymbolConfig maps an upstream ticker to the label written to the sheet.
type SymbolConfig struct {
	Ticker string `mapstructure:"ticker"`
	Label  string `mapstructure:"label"`
}

// SheetsConfig configures the spreadsheet publish step.
type SheetsConfig struct {
	SpreadsheetID     string `mapstructure:"spreadsheet_id"`
	CredentialsFile   string `mapstructure:"credentials_file"`
	RequestIntervalMS int    `mapstructure:"request_interval_ms"`
}

// AuthConfig configures API authentication.
type AuthConfig struct {
	AdminUser     string `mapstructure:"admin_user"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads the configuration from configPath, or from the default search
// locations when configPath is empty. Missing files are fine, defaults and
// environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in common locations
		v.SetConfigName("tracker")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(".", "config"))
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".tracker"))
	}

	// Set defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.dsn", "")
	v.SetDefault("schedule.cron", "0 6 * * 1")
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.request_interval_ms", 1000)
	v.SetDefault("market.quote_ttl_seconds", 3600)
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.credentials_file", "service_account.json")
	v.SetDefault("sheets.request_interval_ms", 1500)
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	// Read from environment variables (with priority)
	v.AutomaticEnv()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Allow environment variable overrides
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		v.Set("database.dsn", dsn)
	}
	if addr := os.Getenv("TRACKER_ADDR"); addr != "" {
		v.Set("server.address", addr)
	}
	if id := os.Getenv("SPREADSHEET_ID"); id != "" {
		v.Set("sheets.spreadsheet_id", id)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
