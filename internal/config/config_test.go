package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.SiteDir != "public" {
		t.Errorf("expected default site_dir %q, got %q", "public", cfg.SiteDir)
	}
	if cfg.Editor.ReconcileInterval != 5*time.Second {
		t.Errorf("expected default interval 5s, got %s", cfg.Editor.ReconcileInterval)
	}
	if cfg.Admin.RedirectDelay != 2*time.Second {
		t.Errorf("expected default redirect delay 2s, got %s", cfg.Admin.RedirectDelay)
	}
	if len(cfg.Icons.Allowed) == 0 {
		t.Error("expected default allowed patterns")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.yml")

	original := DefaultConfig()
	original.Server.Port = 9090
	original.SiteDir = "dist"
	original.Icons.Allowed = []string{"*.svg", "*.png"}
	original.Admin.RedirectDelay = 1500 * time.Millisecond
	original.Editor.ReconcileInterval = 30 * time.Second
	original.Editor.Headless = true

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Server.Port != 9090 {
		t.Errorf("port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.SiteDir != "dist" {
		t.Errorf("site_dir: got %q, want %q", loaded.SiteDir, "dist")
	}
	if loaded.Admin.RedirectDelay != original.Admin.RedirectDelay {
		t.Errorf("redirect_delay: got %s, want %s", loaded.Admin.RedirectDelay, original.Admin.RedirectDelay)
	}
	if loaded.Editor.ReconcileInterval != original.Editor.ReconcileInterval {
		t.Errorf("reconcile_interval: got %s, want %s", loaded.Editor.ReconcileInterval, original.Editor.ReconcileInterval)
	}
	if !loaded.Editor.Headless {
		t.Error("headless: got false, want true")
	}
	if len(loaded.Icons.Allowed) != 2 || loaded.Icons.Allowed[0] != "*.svg" {
		t.Errorf("allowed: got %v", loaded.Icons.Allowed)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadHumanDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.yml")
	yml := "editor:\n  reconcile_interval: 10s\nadmin:\n  redirect_delay: 500ms\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Editor.ReconcileInterval != 10*time.Second {
		t.Errorf("reconcile_interval = %s, want 10s", cfg.Editor.ReconcileInterval)
	}
	if cfg.Admin.RedirectDelay != 500*time.Millisecond {
		t.Errorf("redirect_delay = %s, want 500ms", cfg.Admin.RedirectDelay)
	}
	if cfg.SiteDir != "public" {
		t.Errorf("unset keys should keep defaults, got site_dir %q", cfg.SiteDir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("STUDIO_SERVER__PORT", "7000")
	t.Setenv("STUDIO_SITE_DIR", "www")
	t.Setenv(SecretEnvVar, "from-env")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 7000 {
		t.Errorf("env override failed: got port %d, want 7000", loaded.Server.Port)
	}
	if loaded.SiteDir != "www" {
		t.Errorf("env override failed: got site_dir %q, want %q", loaded.SiteDir, "www")
	}
	if loaded.Admin.Secret != "from-env" {
		t.Errorf("secret override failed: got %q", loaded.Admin.Secret)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STUDIO_SERVER__PORT", "server.port"},
		{"STUDIO_SITE_DIR", "site_dir"},
		{"STUDIO_EDITOR__RECONCILE_INTERVAL", "editor.reconcile_interval"},
		{"STUDIO_LOG__LEVEL", "log.level"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty site dir", func(c *Config) { c.SiteDir = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"icons outside site", func(c *Config) { c.Icons.Dir = "../icons" }},
		{"empty secret", func(c *Config) { c.Admin.Secret = "" }},
		{"negative delay", func(c *Config) { c.Admin.RedirectDelay = -time.Second }},
		{"zero interval", func(c *Config) { c.Editor.ReconcileInterval = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "data"
	if got := cfg.ConfigPath(); got != filepath.Join("data", "icon-config.json") {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := cfg.AuditPath(); got != filepath.Join("data", "audit.db") {
		t.Errorf("AuditPath = %q", got)
	}
}

func TestDetectSiteDir(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if got := detectSiteDir(); got != "" {
		t.Errorf("empty dir detected %q", got)
	}
	os.MkdirAll(filepath.Join(dir, "dist"), 0755)
	os.WriteFile(filepath.Join(dir, "dist", "index.html"), []byte("<html></html>"), 0644)
	if got := detectSiteDir(); got != "dist" {
		t.Errorf("detectSiteDir = %q, want dist", got)
	}
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"*.{png,svg}", []string{"*.{png,svg}"}},
		{"*.{png,svg}, icons/*.ico", []string{"*.{png,svg}", "icons/*.ico"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitPatterns(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitPatterns(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitPatterns(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
