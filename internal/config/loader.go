package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. APPSTATE_STORAGE_BACKEND.
const EnvPrefix = "APPSTATE"

// Load merges defaults, the global config, the project config and finally
// explicit, then applies environment overrides. Missing global and project
// files are skipped; a missing explicit file is an error.
func Load(explicit string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	for _, path := range []string{GlobalConfigPath(), ProjectConfigPath()} {
		if path == "" {
			continue
		}
		if err := mergeFile(v, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}
	if explicit != "" {
		if err := mergeFile(v, explicit); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", explicit, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.I18n.CatalogDir = expandHome(cfg.I18n.CatalogDir)
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return v.MergeConfig(f)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.secret", cfg.Storage.Secret)
	v.SetDefault("storage.seal_keys", cfg.Storage.SealKeys)
	v.SetDefault("locale.supported", cfg.Locale.Supported)
	v.SetDefault("locale.fallback", cfg.Locale.Fallback)
	v.SetDefault("locale.device", cfg.Locale.Device)
	v.SetDefault("theme.default", cfg.Theme.Default)
	v.SetDefault("i18n.catalog_dir", cfg.I18n.CatalogDir)
	v.SetDefault("effects.attempts", cfg.Effects.Attempts)
	v.SetDefault("effects.backoff", cfg.Effects.Backoff)
	v.SetDefault("rules.engine", cfg.Rules.Engine)
	v.SetDefault("rules.gate", cfg.Rules.Gate)
	v.SetDefault("rules.gate_order", cfg.Rules.GateOrder)
	v.SetDefault("activity.enabled", cfg.Activity.Enabled)
	v.SetDefault("activity.channel", cfg.Activity.Channel)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// GlobalDir returns ~/.appstate, or .appstate when there is no home dir.
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".appstate"
	}
	return filepath.Join(home, ".appstate")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".appstate", "config.yaml")
}
