package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds remote content API configuration
type ServerConfig struct {
	Endpoint string        `mapstructure:"endpoint"` // Content API base URL
	OwnerID  int64         `mapstructure:"owner_id"` // Default feed owner to browse
	Timeout  time.Duration `mapstructure:"timeout"`  // Per-request HTTP timeout
}

// EngineConfig holds the windowed rendering engine options
type EngineConfig struct {
	PageSize                int           `mapstructure:"page_size"`                  // Items per fetched page
	Overscan                int           `mapstructure:"overscan"`                   // Extra items rendered beyond the viewport
	MaxCacheEntries         int           `mapstructure:"max_cache_entries"`          // Page cache capacity
	CacheTTL                time.Duration `mapstructure:"cache_ttl"`                  // Page cache entry freshness
	MaxConcurrentMediaLoads int           `mapstructure:"max_concurrent_media_loads"` // Live decode resource bound
	PrefetchLookaheadPages  int           `mapstructure:"prefetch_lookahead_pages"`   // Pages fetched ahead of the window
	MediaIdleTimeout        time.Duration `mapstructure:"media_idle_timeout"`         // Idle threshold before forced unload
	ScrollThrottleMs        int           `mapstructure:"scroll_throttle_ms"`         // Minimum interval between scroll frames, in milliseconds
}

// ScrollThrottle returns the scroll throttle as a duration
func (e EngineConfig) ScrollThrottle() time.Duration {
	return time.Duration(e.ScrollThrottleMs) * time.Millisecond
}

// UIConfig holds TUI configuration
type UIConfig struct {
	Theme      string `mapstructure:"theme"`
	ShowThumbs bool   `mapstructure:"show_thumbs"` // Render image thumbnails in the feed
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Endpoint: "",
			OwnerID:  0,
			Timeout:  30 * time.Second,
		},
		Engine: EngineConfig{
			PageSize:                50,
			Overscan:                2,
			MaxCacheEntries:         500,
			CacheTTL:                30 * time.Second,
			MaxConcurrentMediaLoads: 3,
			PrefetchLookaheadPages:  3,
			MediaIdleTimeout:        60 * time.Second,
			ScrollThrottleMs:        16,
		},
		UI: UIConfig{
			Theme:      "default",
			ShowThumbs: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel", "reel.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "reel.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "reel", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("REEL")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.endpoint", cfg.Server.Endpoint)
	viper.Set("server.owner_id", cfg.Server.OwnerID)
	viper.Set("server.timeout", cfg.Server.Timeout)

	viper.Set("engine.page_size", cfg.Engine.PageSize)
	viper.Set("engine.overscan", cfg.Engine.Overscan)
	viper.Set("engine.max_cache_entries", cfg.Engine.MaxCacheEntries)
	viper.Set("engine.cache_ttl", cfg.Engine.CacheTTL)
	viper.Set("engine.max_concurrent_media_loads", cfg.Engine.MaxConcurrentMediaLoads)
	viper.Set("engine.prefetch_lookahead_pages", cfg.Engine.PrefetchLookaheadPages)
	viper.Set("engine.media_idle_timeout", cfg.Engine.MediaIdleTimeout)
	viper.Set("engine.scroll_throttle_ms", cfg.Engine.ScrollThrottleMs)

	viper.Set("ui.theme", cfg.UI.Theme)
	viper.Set("ui.show_thumbs", cfg.UI.ShowThumbs)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the content endpoint is set
func (c *Config) IsConfigured() bool {
	return c.Server.Endpoint != ""
}

// ClearCache removes all cached data
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
