package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nomoreats/builder/internal/render"
)

type Config struct {
	Backend  BackendConfig
	Server   ServerConfig
	Storage  StorageConfig
	Log      LogConfig
	Identity IdentityConfig
	Render   RenderConfig
	Limits   LimitsConfig
}

type BackendConfig struct {
	BaseURL string
	Timeout string
}

type ServerConfig struct {
	Port int
	// APIToken overrides the generated local API token. Only settable from
	// the environment.
	APIToken string
	// SessionTTL is how long an editing session may sit unused before the
	// server drops it.
	SessionTTL string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// IdentityConfig is the default owner used by CLI commands.
type IdentityConfig struct {
	OwnerID string
	Email   string
}

type RenderConfig struct {
	AnchorPolicy string
}

type LimitsConfig struct {
	DefaultFieldLimit int
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8001",
			Timeout: "60s",
		},
		Server: ServerConfig{
			Port:       4100,
			SessionTTL: "2h",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Render: RenderConfig{
			AnchorPolicy: render.AnchorFirst.String(),
		},
		Limits: LimitsConfig{
			DefaultFieldLimit: 2,
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/nomoreats/config.json, then applies environment variables
// (NOMOREATS_*). A .env file in the working directory is loaded first; it
// never overrides variables that are already set.
func Load() (Config, error) {
	loadDotenv(".env")
	return loadWith(newFileBackend(configFilePath()))
}

func loadDotenv(path string) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "[WARN] could not read %s: %v\n", path, err)
	}
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
		return fmt.Errorf("invalid backend.timeout %q: %w", c.Backend.Timeout, err)
	}
	if d, err := time.ParseDuration(c.Server.SessionTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid server.session_ttl %q: want a positive duration", c.Server.SessionTTL)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Render.AnchorPolicy {
	case render.AnchorFirst.String(), render.AnchorAny.String():
	default:
		return fmt.Errorf("invalid render.anchor_policy %q: want %q or %q",
			c.Render.AnchorPolicy, render.AnchorFirst, render.AnchorAny)
	}
	return nil
}

// BackendTimeout returns the parsed backend.timeout.
func (c Config) BackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// SessionTTL returns the parsed server.session_ttl.
func (c Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// RenderOptions returns the renderer settings.
func (c Config) RenderOptions() render.Options {
	return render.Options{Anchor: render.ParseAnchorPolicy(c.Render.AnchorPolicy)}
}
