// Package config provides configuration parsing for proxy-pulse.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/proxy-pulse/monitor"
)

// Config represents the proxy-pulse configuration.
type Config struct {
	// Backends lists the remote controllers that can be monitored.
	Backends []BackendConfig `yaml:"backends"`

	// API holds local status API settings.
	API APIConfig `yaml:"api"`

	// Display holds TUI rendering settings.
	Display DisplayConfig `yaml:"display"`
}

// BackendConfig describes one remote proxy controller.
type BackendConfig struct {
	// Name is a human-readable label for this backend.
	Name string `yaml:"name"`
	// Host is the controller address (IP or hostname).
	Host string `yaml:"host"`
	// Port is the controller's external API port.
	Port int `yaml:"port"`
	// TLS enables wss/https transports.
	TLS bool `yaml:"tls"`
	// SecretEnv is the environment variable holding the controller
	// secret. Secrets never live in the config file itself.
	SecretEnv string `yaml:"secret_env"`
	// Engine selects the API dialect: "clash", "clash-premium", or "surge".
	Engine string `yaml:"engine"`
}

// APIConfig holds local status API settings.
type APIConfig struct {
	// Enabled controls whether the status API listener starts.
	Enabled bool `yaml:"enabled"`
	// Listen is the bind address, e.g. "127.0.0.1:8077".
	Listen string `yaml:"listen"`
}

// DisplayConfig holds TUI rendering settings.
type DisplayConfig struct {
	// RecentConnections is the number of rows shown in the recent
	// connections panel.
	RecentConnections int `yaml:"recent_connections"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8077",
		},
		Display: DisplayConfig{
			RecentConnections: 10,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "proxy-pulse", "config.yaml")
}

// Load reads the configuration from path, layering it over the defaults.
// A missing file is not an error; the defaults are returned. A local
// .env file, when present, is loaded first so SecretEnv lookups can be
// satisfied from it.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env simply means secrets come from the
	// process environment.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8077"
	}
	if cfg.Display.RecentConnections <= 0 {
		cfg.Display.RecentConnections = 10
	}

	return cfg, nil
}

// Backend returns the backend with the given name, or the first backend
// when name is empty.
func (c *Config) Backend(name string) (BackendConfig, error) {
	if len(c.Backends) == 0 {
		return BackendConfig{}, fmt.Errorf("config: no backends configured")
	}
	if name == "" {
		return c.Backends[0], nil
	}
	for _, b := range c.Backends {
		if b.Name == name {
			return b, nil
		}
	}
	return BackendConfig{}, fmt.Errorf("config: backend %q not found", name)
}

// Profile converts a backend entry into a monitoring profile, resolving
// the secret from the environment.
func (b BackendConfig) Profile() (monitor.Profile, error) {
	engine, err := monitor.ParseEngineKind(b.Engine)
	if err != nil {
		return monitor.Profile{}, fmt.Errorf("config: backend %q: %w", b.Name, err)
	}

	var secret string
	if b.SecretEnv != "" {
		secret = os.Getenv(b.SecretEnv)
	}

	return monitor.Profile{
		Host:   b.Host,
		Port:   b.Port,
		UseTLS: b.TLS,
		Secret: secret,
		Engine: engine,
	}, nil
}
