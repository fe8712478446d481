package cmd

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/config"
	"github.com/ziadkadry99/overlay-studio/internal/logx"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `studio init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the command logger. --verbose forces debug.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logx.New(level, cfg.Log.Format)
}

// resolveURL resolves ref against base, so relative redirects work from
// the site root.
func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
