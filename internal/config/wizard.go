package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// siteDirCandidates are the build output directories checked, in order, for
// an index.html.
var siteDirCandidates = []string{"public", "dist", "build", "out", "static", "site"}

// detectSiteDir returns the first candidate directory holding an index.html.
func detectSiteDir() string {
	for _, dir := range siteDirCandidates {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			return dir
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to overlay studio! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site directory.
	siteDefault := cfg.SiteDir
	if detected := detectSiteDir(); detected != "" {
		fmt.Printf("Detected site directory: %s\n\n", detected)
		siteDefault = detected
	}
	sitePrompt := promptui.Prompt{
		Label:   "Static site directory",
		Default: siteDefault,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("site directory is required")
			}
			return nil
		},
	}
	siteDir, err := sitePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}
	cfg.SiteDir = strings.TrimSpace(siteDir)

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)
	cfg.Editor.SiteURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	// 3. Allowed icon types.
	allowedPrompt := promptui.Prompt{
		Label:   "Allowed icon patterns (comma-separated globs)",
		Default: strings.Join(cfg.Icons.Allowed, ","),
	}
	allowedStr, err := allowedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("allowed patterns: %w", err)
	}
	if allowed := splitPatterns(allowedStr); len(allowed) > 0 {
		cfg.Icons.Allowed = allowed
	}

	// 4. Admin secret.
	secretPrompt := promptui.Prompt{
		Label: "Admin secret (leave blank to set " + SecretEnvVar + " later)",
		Mask:  '*',
	}
	secret, err := secretPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("admin secret: %w", err)
	}
	if secret != "" {
		cfg.Admin.Secret = secret
	}

	// 5. Browser mode.
	modePrompt := promptui.Select{
		Label: "Editor browser",
		Items: []string{
			"visible  - open a browser window to edit in",
			"headless - drive the page without a window",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("browser mode: %w", err)
	}
	cfg.Editor.Headless = modeIdx == 1

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if secret == "" && os.Getenv(SecretEnvVar) == "" {
		fmt.Printf("\nNote: the default admin secret is in use. Set %s before sharing the editor.\n", SecretEnvVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitPatterns splits a comma-separated list of globs. Commas inside
// braces belong to the pattern.
func splitPatterns(s string) []string {
	var result []string
	depth, start := 0, 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) {
			switch s[i] {
			case '{':
				depth++
				continue
			case '}':
				if depth > 0 {
					depth--
				}
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		if token := strings.TrimSpace(s[start:i]); token != "" {
			result = append(result, token)
		}
		start = i + 1
	}
	return result
}
