package config

import (
	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/assets"
	"github.com/ziadkadry99/overlay-studio/internal/overlay"
)

// DefaultPath is the configuration file looked up by every command.
const DefaultPath = "studio.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		SiteDir: "public",
		DataDir: ".studio",
		Icons: IconsConfig{
			Dir:     "icons",
			Allowed: append([]string(nil), assets.DefaultAllowed...),
		},
		Admin: AdminConfig{
			Secret:        admin.DefaultSecret,
			RedirectURL:   admin.DefaultRedirectURL,
			RedirectDelay: admin.DefaultRedirectDelay,
		},
		Editor: EditorConfig{
			SiteURL:           "http://localhost:8080",
			ReconcileInterval: overlay.DefaultInterval,
			Push:              true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
