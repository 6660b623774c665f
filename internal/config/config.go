package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fotoforge/pkg/logger"
)

func (c *Config) GetBaseUrl() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

// Load reads config.yaml (or the file given by path), FOTOFORGE_* env vars and
// defaults, in increasing order of precedence for env over file.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FOTOFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "APP_PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.LogInfo("Config file not found. Using Environment Variables and Defaults.")
		} else if path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		} else {
			logger.LogWarn("Config file found but unreadable: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.BaseURL = cfg.GetBaseUrl()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "FotoForge")
	v.SetDefault("app.version", "0.2.0")
	v.SetDefault("app.start_message", true)

	// Server
	v.SetDefault("server.port", 9990)
	v.SetDefault("server.env", "development")

	// Database
	v.SetDefault("database.path", "./data/fotoforge.db")
	v.SetDefault("database.max_size", "512MB")
	v.SetDefault("database.prune_interval", "5m")

	// Image Engine
	v.SetDefault("image.jpeg_quality", 92)
	v.SetDefault("image.max_upload_size", "10MB")
	v.SetDefault("image.assets_dir", "./public")
	v.SetDefault("image.thumbnail_size", 160)
	v.SetDefault("image.fetch_timeout", "10s")

	// Caching
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_capacity", 64)
	v.SetDefault("cache.ttl", "30m")

	// Security & Limits
	v.SetDefault("security.cors_origins", []string{})
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests", 20)
	v.SetDefault("security.rate_limit.window", "1s")
	v.SetDefault("security.rate_limit.burst", 50)
	v.SetDefault("security.login_rate_limit.enabled", true)
	v.SetDefault("security.login_rate_limit.requests", 1)
	v.SetDefault("security.login_rate_limit.window", "1s")
	v.SetDefault("security.login_rate_limit.burst", 10)

	// Editor
	v.SetDefault("editor.session_ttl", "30m")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("image.jpeg_quality must be within 1-100, got %d", c.Image.JPEGQuality)
	}

	if c.Image.ThumbnailSize < 16 {
		return fmt.Errorf("image.thumbnail_size must be at least 16, got %d", c.Image.ThumbnailSize)
	}

	durations := map[string]string{
		"cache.ttl":                        c.Cache.TTL,
		"image.fetch_timeout":              c.Image.FetchTimeout,
		"editor.session_ttl":               c.Editor.SessionTTL,
		"database.prune_interval":          c.Database.PruneInterval,
		"security.rate_limit.window":       c.Security.RateLimit.Window,
		"security.login_rate_limit.window": c.Security.LoginRateLimit.Window,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format '%s': %v", key, value, err)
		}
	}

	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	return nil
}

// Duration parses a validated duration field, falling back to def.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
