package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Engine   EngineConfig
	UI       UIConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// EngineConfig holds assistant engine timings, all in milliseconds.
type EngineConfig struct {
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
	MessagePauseMs int `mapstructure:"message_pause_ms"`
	DismissDelayMs int `mapstructure:"dismiss_delay_ms"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	AssistantName string `mapstructure:"assistant_name"`
	ShowEmoji     bool   `mapstructure:"show_emoji"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string
	Level string
}

func (e EngineConfig) TickInterval() time.Duration {
	return time.Duration(e.TickIntervalMs) * time.Millisecond
}

func (e EngineConfig) MessagePause() time.Duration {
	return time.Duration(e.MessagePauseMs) * time.Millisecond
}

func (e EngineConfig) DismissDelay() time.Duration {
	return time.Duration(e.DismissDelayMs) * time.Millisecond
}

// Load reads configuration from file and env. Env var overrides use prefix WAYFIND_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "wayfind", "wayfind.db"))
	v.SetDefault("engine.tick_interval_ms", 35)
	v.SetDefault("engine.message_pause_ms", 300)
	v.SetDefault("engine.dismiss_delay_ms", 8000)
	v.SetDefault("ui.assistant_name", "Scout")
	v.SetDefault("ui.show_emoji", true)
	v.SetDefault("log.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "wayfind", "wayfind.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("WAYFIND_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "wayfind"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("WAYFIND")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
