// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/ledger-import/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. LEDGER_IMPORT_LOG_LEVEL.
const EnvPrefix = "LEDGER_IMPORT"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Import struct {
		MaxFileSizeMB int `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
		PageSize      int `mapstructure:"page_size" yaml:"page_size"`
	} `mapstructure:"import" yaml:"import"`

	API struct {
		BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		AccessToken    string `mapstructure:"access_token" yaml:"-"`  // Never serialize tokens
		RefreshToken   string `mapstructure:"refresh_token" yaml:"-"` // Never serialize tokens
	} `mapstructure:"api" yaml:"api"`

	Ledger struct {
		SnapshotFile string `mapstructure:"snapshot_file" yaml:"snapshot_file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Server struct {
		Address     string   `mapstructure:"address" yaml:"address"`
		Database    string   `mapstructure:"database" yaml:"database"`
		CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	} `mapstructure:"server" yaml:"server"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Import.MaxFileSizeMB) * 1024 * 1024
}

// APITimeout returns the submission timeout. Zero disables it.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return LoadConfig("")
}

// LoadConfig loads configuration, reading configFile when given instead of
// searching the standard locations.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.ledger-import")
		v.AddConfigPath(".ledger-import")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless explicitly given)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Import defaults
	v.SetDefault("import.max_file_size_mb", 50)
	v.SetDefault("import.page_size", 50)

	// API defaults
	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout_seconds", 60)
	v.SetDefault("api.access_token", "")
	v.SetDefault("api.refresh_token", "")

	// Ledger defaults
	v.SetDefault("ledger.snapshot_file", "")

	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.database", "file::memory:?cache=shared")
	v.SetDefault("server.cors_origins", []string{})
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Import.MaxFileSizeMB < 1 || config.Import.MaxFileSizeMB > 1024 {
		return fmt.Errorf("import.max_file_size_mb must be between 1 and 1024, got: %d", config.Import.MaxFileSizeMB)
	}

	if config.Import.PageSize < 1 {
		return fmt.Errorf("import.page_size must be positive, got: %d", config.Import.PageSize)
	}

	if config.API.TimeoutSeconds < 0 || config.API.TimeoutSeconds > 3600 {
		return fmt.Errorf("api.timeout_seconds must be between 0 and 3600, got: %d", config.API.TimeoutSeconds)
	}

	u, err := url.Parse(config.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got: %s", config.API.BaseURL)
	}

	if config.Server.Database == "" {
		return fmt.Errorf("server.database must not be empty")
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	return logging.NewLogrus(config.Log.Level, config.Log.Format, nil)
}
