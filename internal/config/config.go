// Package config loads chatmark settings from a yaml config file with
// viper. A missing file is fine; every key has a default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Render    RenderConfig    `mapstructure:"render"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	Citations CitationsConfig `mapstructure:"citations"`
}

// RenderConfig tunes the streaming render loop.
type RenderConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"` // scheduler debounce window
	Width      int `mapstructure:"width"`       // 0 = terminal width
	CacheSize  int `mapstructure:"cache_size"`  // leaf render LRU entries
}

// ThemeConfig allows customization of painter colors.
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB)
type ThemeConfig struct {
	Primary   string `mapstructure:"primary"`   // accents, citation badges
	Secondary string `mapstructure:"secondary"` // headers, widget frames
	Muted     string `mapstructure:"muted"`     // reasoning text
	Text      string `mapstructure:"text"`      // primary text
	Warning   string `mapstructure:"warning"`   // code spans, incomplete affordances
}

// CitationsConfig controls citation resolution.
type CitationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration, tolerating a missing config file.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if dir, err := GetConfigDir(); err == nil {
		viper.AddConfigPath(dir)
	}
	viper.AddConfigPath(".")

	viper.SetDefault("render.debounce_ms", 150)
	viper.SetDefault("render.width", 0)
	viper.SetDefault("render.cache_size", 100)
	viper.SetDefault("citations.enabled", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// GetConfigDir returns the chatmark config directory.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "chatmark"), nil
}

// GetConfigPath returns the config file path, whether or not it
// exists.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
