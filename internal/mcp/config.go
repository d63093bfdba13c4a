package mcp

import (
	"fmt"
	"math"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/sekia-ai/rover/internal/bus"
	"github.com/sekia-ai/rover/internal/rover"
)

// Config holds all configuration for the rover MCP server.
type Config struct {
	Robot    rover.Config   `mapstructure:"robot"`
	NATS     bus.Config     `mapstructure:"nats"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

// SecurityConfig holds application-level security settings.
type SecurityConfig struct {
	CommandSecret string `mapstructure:"command_secret"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads the configuration from file, env vars, and defaults.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("robot.url", rover.DefaultURL)
	v.SetDefault("robot.path", rover.DefaultPath)
	v.SetDefault("robot.timeout", rover.DefaultTimeout)
	v.SetDefault("robot.max_speed", rover.DefaultMaxSpeed)
	v.SetDefault("robot.stop_sends_drive", true)
	v.SetDefault("nats.embedded", false)
	v.SetDefault("nats.host", "127.0.0.1")
	v.SetDefault("nats.port", 4222)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("rover-mcp")
		v.AddConfigPath("/etc/rover")
		v.AddConfigPath("$HOME/.config/rover")
		v.AddConfigPath(".")
	}

	v.BindEnv("robot.url", "ROVER_URL")
	v.BindEnv("robot.path", "ROVER_PATH")
	v.BindEnv("robot.timeout", "ROVER_TIMEOUT")
	v.BindEnv("robot.max_speed", "ROVER_MAX_SPEED")
	v.BindEnv("robot.stop_sends_drive", "ROVER_STOP_SENDS_DRIVE")
	v.BindEnv("nats.url", "ROVER_NATS_URL")
	v.BindEnv("nats.token", "ROVER_NATS_TOKEN")
	v.BindEnv("security.command_secret", "ROVER_COMMAND_SECRET")
	v.BindEnv("log.level", "ROVER_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail on the first tool call.
func (c Config) Validate() error {
	u, err := url.Parse(c.Robot.URL)
	if err != nil {
		return fmt.Errorf("robot.url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("robot.url must be an http(s) URL with a host, got %q", c.Robot.URL)
	}
	if c.Robot.Timeout <= 0 {
		return fmt.Errorf("robot.timeout must be positive")
	}
	if c.Robot.MaxSpeed <= 0 || math.IsInf(c.Robot.MaxSpeed, 0) || math.IsNaN(c.Robot.MaxSpeed) {
		return fmt.Errorf("robot.max_speed must be a positive finite number")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the configured zerolog level, defaulting to info.
func (c Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
