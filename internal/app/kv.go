package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-appstate/internal/config"
	"github.com/goliatone/go-appstate/pkg/storage"
)

// OpenKV opens the backend described by cfg, sealing cfg.SealKeys when a
// secret is configured.
func OpenKV(cfg config.StorageConfig) (storage.KV, error) {
	var (
		kv  storage.KV
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		kv = storage.NewMemory(nil)
	case "file":
		kv, err = storage.OpenFile(cfg.Path)
	case "sqlite":
		kv, err = storage.OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("app: unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("app: open storage: %w", err)
	}

	if cfg.Secret == "" {
		return kv, nil
	}
	sealed, err := storage.NewSealed(kv, cfg.Secret, storage.SealKeys(cfg.SealKeys...))
	if err != nil {
		storage.Close(kv)
		return nil, fmt.Errorf("app: seal storage: %w", err)
	}
	return sealed, nil
}

// DeviceLocales reads the process locale from LC_ALL, LC_MESSAGES and LANG,
// in that order, turning "tr_TR.UTF-8" into "tr-TR".
func DeviceLocales() []string {
	var out []string
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(name)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		value, _, _ = strings.Cut(value, ".")
		value, _, _ = strings.Cut(value, "@")
		out = append(out, strings.ReplaceAll(value, "_", "-"))
	}
	return out
}
