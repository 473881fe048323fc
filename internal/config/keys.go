package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "backend.base_url", typ: kString, env: "NOMOREATS_BACKEND_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Backend.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.BaseURL },
	},
	{
		key: "backend.timeout", typ: kString, env: "NOMOREATS_BACKEND_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Backend.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Timeout },
	},
	{
		key: "server.port", typ: kInt, env: "NOMOREATS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.session_ttl", typ: kString, env: "NOMOREATS_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Server.SessionTTL = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.SessionTTL },
	},
	{
		key: "server.api_token", typ: kString, env: "NOMOREATS_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "storage.data_dir", typ: kString, env: "NOMOREATS_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "NOMOREATS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "identity.owner_id", typ: kString, env: "NOMOREATS_OWNER_ID",
		apply:   func(cfg *Config, v any) { cfg.Identity.OwnerID = v.(string) },
		extract: func(cfg Config) any { return cfg.Identity.OwnerID },
	},
	{
		key: "identity.email", typ: kString, env: "NOMOREATS_EMAIL",
		apply:   func(cfg *Config, v any) { cfg.Identity.Email = v.(string) },
		extract: func(cfg Config) any { return cfg.Identity.Email },
	},
	{
		key: "render.anchor_policy", typ: kString, env: "NOMOREATS_RENDER_ANCHOR_POLICY",
		apply:   func(cfg *Config, v any) { cfg.Render.AnchorPolicy = v.(string) },
		extract: func(cfg Config) any { return cfg.Render.AnchorPolicy },
	},
	{
		key: "limits.default_field_limit", typ: kInt, env: "NOMOREATS_DEFAULT_FIELD_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Limits.DefaultFieldLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Limits.DefaultFieldLimit },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
