// Package config provides Viper-based configuration loading for the game backend.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	// Host is the bind address for the combined HTTP and WebSocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the combined HTTP and WebSocket listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds simulation and session lifecycle settings.
type GameConfig struct {
	// TickRate is the snapshot broadcast frequency in ticks per second.
	TickRate int `mapstructure:"tick_rate"`
	// MaxPlayersPerRoom caps room occupancy; joins beyond it are rejected.
	MaxPlayersPerRoom int `mapstructure:"max_players_per_room"`
	// InactivityTimeout is how long a session may go without a state-mutating
	// message before the tick sweep closes it.
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	// HeartbeatInterval is the liveness ping/pong interval.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	// CleanupDelay is the debounce applied between a connection closing and
	// its session being removed, absorbing rapid reconnects.
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
}

// LimitsConfig holds the fixed-window rate limit policies.
type LimitsConfig struct {
	// ConnectionWindow is the fixed window applied to connections per IP.
	ConnectionWindow time.Duration `mapstructure:"connection_window"`
	// ConnectionMax is the connection budget per IP per window.
	ConnectionMax int `mapstructure:"connection_max"`
	// MessageWindow is the fixed window applied to messages per player.
	MessageWindow time.Duration `mapstructure:"message_window"`
	// MessageMax is the message budget per player per window.
	MessageMax int `mapstructure:"message_max"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig holds content catalog directories. Empty directories fall
// back to the built-in catalogs.
type ContentConfig struct {
	// WeaponsDir is the directory of weapon YAML definitions.
	WeaponsDir string `mapstructure:"weapons_dir"`
	// BuildingsDir is the directory of building-type YAML definitions.
	BuildingsDir string `mapstructure:"buildings_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Logging LoggingConfig `mapstructure:"logging"`
	Content ContentConfig `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLimits(c.Limits); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", s.Port)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.TickRate < 1 || g.TickRate > 120 {
		errs = append(errs, fmt.Sprintf("game.tick_rate must be 1-120, got %d", g.TickRate))
	}
	if g.MaxPlayersPerRoom < 1 {
		errs = append(errs, fmt.Sprintf("game.max_players_per_room must be >= 1, got %d", g.MaxPlayersPerRoom))
	}
	if g.InactivityTimeout <= 0 {
		errs = append(errs, "game.inactivity_timeout must be positive")
	}
	if g.HeartbeatInterval <= 0 {
		errs = append(errs, "game.heartbeat_interval must be positive")
	}
	if g.CleanupDelay < 0 {
		errs = append(errs, "game.cleanup_delay must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLimits(l LimitsConfig) error {
	var errs []string
	if l.ConnectionWindow <= 0 {
		errs = append(errs, "limits.connection_window must be positive")
	}
	if l.ConnectionMax < 1 {
		errs = append(errs, fmt.Sprintf("limits.connection_max must be >= 1, got %d", l.ConnectionMax))
	}
	if l.MessageWindow <= 0 {
		errs = append(errs, "limits.message_window must be positive")
	}
	if l.MessageMax < 1 {
		errs = append(errs, fmt.Sprintf("limits.message_max must be >= 1, got %d", l.MessageMax))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with FRONTIER_ prefix
	v.SetEnvPrefix("FRONTIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("game.tick_rate", 20)
	v.SetDefault("game.max_players_per_room", 32)
	v.SetDefault("game.inactivity_timeout", "15m")
	v.SetDefault("game.heartbeat_interval", "30s")
	v.SetDefault("game.cleanup_delay", "5s")

	v.SetDefault("limits.connection_window", "60s")
	v.SetDefault("limits.connection_max", 30)
	v.SetDefault("limits.message_window", "10s")
	v.SetDefault("limits.message_max", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
