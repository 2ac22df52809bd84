// Package daemon manages the IRL service lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
	Auth      AuthConfig      `toml:"auth"`
	Redis     RedisConfig     `toml:"redis"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Game      GameConfig      `toml:"game"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// LoggingConfig controls logging behavior. Mode is "dev" or "prod".
type LoggingConfig struct {
	Mode  string `toml:"mode"`
	Level string `toml:"level"`
}

// AuthConfig controls request identity. With an empty secret the API trusts
// the X-User-ID header, which is only meant for local use.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// RedisConfig enables notification fan-out over Redis pub/sub.
type RedisConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	Channel string `toml:"channel"`
}

// TelemetryConfig controls the Prometheus endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// GameConfig holds gameplay settings.
type GameConfig struct {
	SuggestionCount int    `toml:"suggestion_count"`
	Timezone        string `toml:"timezone"`
	QuietStart      string `toml:"quiet_start"`
	QuietEnd        string `toml:"quiet_end"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8420,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Dir: irlHome(),
		},
		Logging: LoggingConfig{
			Mode:  "dev",
			Level: "info",
		},
		Redis: RedisConfig{
			Addr:    "127.0.0.1:6379",
			Channel: "irl:notifications",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Game: GameConfig{
			SuggestionCount: 5,
			Timezone:        "Local",
		},
	}
}

// LoadConfig reads config from $IRL_HOME/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFile(filepath.Join(irlHome(), "config.toml"))
}

// LoadConfigFile reads config from path. A missing file yields the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Game.SuggestionCount < 0 {
		return fmt.Errorf("game.suggestion_count must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr required when redis is enabled")
	}
	return nil
}

// Location resolves game.timezone. Calendar days are counted in it.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Game.Timezone)
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("game.timezone %q: %w", tz, err)
	}
	return loc, nil
}

// SaveConfig writes the config to $IRL_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return SaveConfigFile(filepath.Join(irlHome(), "config.toml"), cfg)
}

// SaveConfigFile writes the config to path.
func SaveConfigFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// irlHome returns the IRL data directory.
func irlHome() string {
	if env := os.Getenv("IRL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".irl")
}

// Home is exported for use by other packages.
func Home() string {
	return irlHome()
}
