package config

import "time"

// Config is the top-level studio configuration, corresponding to studio.yml.
type Config struct {
	Server  ServerConfig `yaml:"server" koanf:"server"`
	SiteDir string       `yaml:"site_dir" koanf:"site_dir"`
	DataDir string       `yaml:"data_dir" koanf:"data_dir"`
	Icons   IconsConfig  `yaml:"icons" koanf:"icons"`
	Admin   AdminConfig  `yaml:"admin" koanf:"admin"`
	Editor  EditorConfig `yaml:"editor" koanf:"editor"`
	Log     LogConfig    `yaml:"log" koanf:"log"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// IconsConfig controls where uploaded icons land. They are served from
// /<dir>/ under the site.
type IconsConfig struct {
	// Dir is relative to the site directory.
	Dir string `yaml:"dir" koanf:"dir"`
	// Allowed are doublestar patterns matched against lowercased names.
	Allowed []string `yaml:"allowed" koanf:"allowed"`
}

// AdminConfig configures the admin gate.
type AdminConfig struct {
	Secret        string        `yaml:"secret" koanf:"secret"`
	RedirectURL   string        `yaml:"redirect_url" koanf:"redirect_url"`
	RedirectDelay time.Duration `yaml:"redirect_delay" koanf:"redirect_delay"`
}

// EditorConfig configures the editor agent.
type EditorConfig struct {
	SiteURL           string        `yaml:"site_url" koanf:"site_url"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval" koanf:"reconcile_interval"`
	Headless          bool          `yaml:"headless" koanf:"headless"`
	// Remote is a DevTools websocket URL of an already running browser.
	Remote string `yaml:"remote" koanf:"remote"`
	Push   bool   `yaml:"push" koanf:"push"`
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
