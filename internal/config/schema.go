package config

import "time"

// Config is the full appstate configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Locale   LocaleConfig   `yaml:"locale" mapstructure:"locale"`
	Theme    ThemeConfig    `yaml:"theme" mapstructure:"theme"`
	I18n     I18nConfig     `yaml:"i18n" mapstructure:"i18n"`
	Effects  EffectsConfig  `yaml:"effects" mapstructure:"effects"`
	Rules    RulesConfig    `yaml:"rules" mapstructure:"rules"`
	Activity ActivityConfig `yaml:"activity" mapstructure:"activity"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	// Backend is "memory", "file" or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
	// Secret enables sealing of SealKeys when set.
	Secret   string   `yaml:"secret" mapstructure:"secret"`
	SealKeys []string `yaml:"seal_keys" mapstructure:"seal_keys"`
}

// LocaleConfig configures the initial language.
type LocaleConfig struct {
	Supported []string `yaml:"supported" mapstructure:"supported"`
	Fallback  string   `yaml:"fallback" mapstructure:"fallback"`
	// Device overrides the locales read from LC_ALL, LC_MESSAGES and LANG.
	Device []string `yaml:"device" mapstructure:"device"`
}

// ThemeConfig seeds the appearance layer when the OS reports nothing.
type ThemeConfig struct {
	Default string `yaml:"default" mapstructure:"default"`
}

// I18nConfig locates extra message catalogs.
type I18nConfig struct {
	CatalogDir string `yaml:"catalog_dir" mapstructure:"catalog_dir"`
}

// EffectsConfig is the effect runner retry policy.
type EffectsConfig struct {
	Attempts int           `yaml:"attempts" mapstructure:"attempts"`
	Backoff  time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

// RulesConfig selects the rule engine for Watch and the startup gate.
type RulesConfig struct {
	// Engine is "expr", "cel" or "js".
	Engine string `yaml:"engine" mapstructure:"engine"`
	// Gate maps destinations to rules; the first matching destination in
	// GateOrder wins.
	Gate      map[string]string `yaml:"gate" mapstructure:"gate"`
	GateOrder []string          `yaml:"gate_order" mapstructure:"gate_order"`
}

// ActivityConfig controls store change events.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// LogConfig controls the slog handler built by the CLI.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}
