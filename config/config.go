package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Scanner   ScannerConfig
	History   HistoryConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds product catalog configuration
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ScannerConfig holds scan-session configuration
type ScannerConfig struct {
	MaxFramesPerSecond float64 `mapstructure:"max_frames_per_second"`
	FrameBurst         int     `mapstructure:"frame_burst"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// HistoryConfig holds scan-history persistence configuration
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute on the HTTP API
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Seed the environment from a local .env file if present
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/barcodelens/")

	// Environment variable settings
	v.SetEnvPrefix("BARCODELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.path", "products.json")

	// Scanner defaults
	v.SetDefault("scanner.max_frames_per_second", 15.0)
	v.SetDefault("scanner.frame_burst", 5)
	v.SetDefault("scanner.enable_debug_logging", false)

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "scan-history.db")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set BARCODELENS_SERVER_PORT)")
	}

	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required (set BARCODELENS_CATALOG_PATH)")
	}

	if config.Scanner.MaxFramesPerSecond <= 0 {
		return fmt.Errorf("scanner max_frames_per_second must be positive, got: %v", config.Scanner.MaxFramesPerSecond)
	}

	if config.History.Enabled && config.History.Path == "" {
		return fmt.Errorf("history path is required when history is enabled")
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from a local .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
