package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/overlay-studio/internal/logx"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STUDIO_"

// SecretEnvVar overrides admin.secret.
const SecretEnvVar = "STUDIO_ADMIN_SECRET"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (STUDIO_*). A double underscore separates
// nested keys: STUDIO_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if secret := os.Getenv(SecretEnvVar); secret != "" {
		cfg.Admin.Secret = secret
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	if c.SiteDir == "" {
		return fmt.Errorf("site_dir is required")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Icons.Dir == "" || !filepath.IsLocal(c.Icons.Dir) {
		return fmt.Errorf("icons.dir %q must be a path inside site_dir", c.Icons.Dir)
	}

	if c.Admin.Secret == "" {
		return fmt.Errorf("admin.secret is required")
	}

	if c.Admin.RedirectDelay < 0 {
		return fmt.Errorf("admin.redirect_delay must be non-negative")
	}

	if c.Editor.ReconcileInterval <= 0 {
		return fmt.Errorf("editor.reconcile_interval must be positive")
	}

	if _, err := logx.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be console or json", c.Log.Format)
	}

	return nil
}

// ConfigPath is where the icon config document lives.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "icon-config.json")
}

// AuditPath is the audit database file.
func (c *Config) AuditPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}
