package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:  "file",
			Path:     filepath.Join(GlobalDir(), "state.json"),
			SealKeys: []string{"token"},
		},
		Locale: LocaleConfig{
			Supported: []string{"en", "tr"},
			Fallback:  "en",
		},
		Theme: ThemeConfig{
			Default: "light",
		},
		Effects: EffectsConfig{
			Attempts: 1,
			Backoff:  50 * time.Millisecond,
		},
		Rules: RulesConfig{
			Engine: "expr",
			Gate: map[string]string{
				"onboarding": "!user.isOnboardingSeen",
				"auth":       "!auth.isAuthenticated",
				"home":       "true",
			},
			GateOrder: []string{"onboarding", "auth", "home"},
		},
		Activity: ActivityConfig{
			Enabled: true,
			Channel: "appstate",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes DefaultConfig as YAML to path.
func WriteDefault(path string) error {
	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("config: marshal defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	header := []byte("# appstate configuration\n")
	return os.WriteFile(path, append(header, out...), 0o644)
}
