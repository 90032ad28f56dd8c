package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config maps the entire application configuration.
type Config struct {
	// Server configuration for the HTTP listener
	Server struct {
		Address string `mapstructure:"address"` // bind address (default 0.0.0.0)
		Port    int    `mapstructure:"port"`    // bind port (default 8000)
		BaseURL string `mapstructure:"base_url"`
		// Optional static-asset directory for the SPA; empty disables it
		StaticDir string `mapstructure:"static_dir"`
	} `mapstructure:"server"`

	// Database configuration for the SQLite file
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	// RateLimit configuration for the fixed-window per-IP limiter
	RateLimit struct {
		Max        int `mapstructure:"max"`         // requests per window
		WindowSecs int `mapstructure:"window_secs"` // window size in seconds
	} `mapstructure:"rate_limit"`
}

// LoadConfig loads the application configuration using Viper.
// Defaults can be overridden by a configs/config.yaml file or by the flat
// environment variables the deployment docs use (DATABASE_PATH, SERVER_PORT,
// BASE_URL, RATE_LIMIT_WINDOW_SECS, ...).
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.base_url", "http://localhost:8000")
	viper.SetDefault("server.static_dir", "")
	viper.SetDefault("database.path", "qr_service.db")
	viper.SetDefault("rate_limit.max", 100)
	viper.SetDefault("rate_limit.window_secs", 60)

	// Flat names from the deployment contract; the replacer above already
	// covers SERVER_PORT-style names, these cover the remaining aliases.
	_ = viper.BindEnv("database.path", "DATABASE_PATH")
	_ = viper.BindEnv("server.base_url", "BASE_URL")
	_ = viper.BindEnv("server.static_dir", "STATIC_DIR")
	_ = viper.BindEnv("rate_limit.window_secs", "RATE_LIMIT_WINDOW_SECS")
	_ = viper.BindEnv("rate_limit.max", "RATE_LIMIT_MAX")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: addr=%s:%d db=%s rate=%d/%ds",
		cfg.Server.Address, cfg.Server.Port, cfg.Database.Path,
		cfg.RateLimit.Max, cfg.RateLimit.WindowSecs)

	return &cfg, nil
}

// ListenAddr returns the address:port string for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
