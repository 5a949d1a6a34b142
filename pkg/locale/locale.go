// Package locale holds the selected UI language. The selection is persisted
// under StorageKey and mirrored into the localization and calendar engines
// through effects.
package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/effect"
	"github.com/goliatone/go-appstate/pkg/persist"
	"github.com/goliatone/go-appstate/pkg/storage"
	"golang.org/x/text/language"
)

const (
	StoreName  = "locale"
	StorageKey = "locale-storage"
	// DefaultFallback is used when the device language is not supported.
	DefaultFallback = "en"
)

// DefaultSupported lists the languages with bundled catalogs.
var DefaultSupported = []string{"en", "tr"}

// State is the locale record.
type State struct {
	SelectedLocale string `json:"selectedLocale"`
	Loading        bool   `json:"loading"`
}

// Persisted is the subset written to storage.
type Persisted struct {
	SelectedLocale string `json:"selectedLocale"`
}

// Config controls the initial selection.
type Config struct {
	Supported     []string
	Fallback      string
	DeviceLocales []string
}

// Initial picks the first device locale that matches a supported language,
// or the fallback.
func Initial(cfg Config) State {
	return State{SelectedLocale: Resolve(cfg)}
}

// Resolve returns the two-letter code Initial would select.
func Resolve(cfg Config) string {
	fallback := strings.TrimSpace(cfg.Fallback)
	if fallback == "" {
		fallback = DefaultFallback
	}
	supported := cfg.Supported
	if len(supported) == 0 {
		supported = DefaultSupported
	}

	tags := make([]language.Tag, 0, len(supported))
	codes := make([]string, 0, len(supported))
	for _, code := range supported {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, baseOf(tag))
	}
	if len(tags) == 0 {
		return fallback
	}

	device := make([]language.Tag, 0, len(cfg.DeviceLocales))
	for _, code := range cfg.DeviceLocales {
		if tag, err := language.Parse(strings.ReplaceAll(code, "_", "-")); err == nil {
			device = append(device, tag)
		}
	}
	if len(device) == 0 {
		return fallback
	}

	_, index, confidence := language.NewMatcher(tags).Match(device...)
	if confidence == language.No || index < 0 || index >= len(codes) {
		return fallback
	}
	return codes[index]
}

func baseOf(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}

// Change is the pure transition behind ChangeLocale. code is not validated.
func Change(prev State, code string) effect.Transition[State] {
	next := prev
	next.SelectedLocale = code
	return effect.Transition[State]{State: next, Effects: syncEffects(code)}
}

func syncEffects(code string) []effect.Effect {
	return []effect.Effect{effect.ChangeLanguage(code), effect.SetCalendarLocale(code)}
}

// Store is the locale store.
type Store struct {
	appstate.Observable[State]

	core   *appstate.Store[State]
	runner *effect.Runner
}

// NewStore builds the locale store over kv. runner may be nil, in which case
// effects are dropped.
func NewStore(kv storage.KV, runner *effect.Runner, cfg Config, opts ...appstate.StoreOption[State]) (*Store, error) {
	adapter, err := persist.New[State, Persisted](kv, StorageKey,
		persist.NewJSONCodec(persist.JSONValidate(func(p *Persisted) error {
			if strings.TrimSpace(p.SelectedLocale) == "" {
				return errors.New("selectedLocale is empty")
			}
			return nil
		})),
		func(s State) Persisted { return Persisted{SelectedLocale: s.SelectedLocale} },
		func(s State, p Persisted) State {
			s.SelectedLocale = p.SelectedLocale
			return s
		},
	)
	if err != nil {
		return nil, fmt.Errorf("locale: %w", err)
	}

	s := &Store{runner: runner}
	storeOpts := append([]appstate.StoreOption[State]{appstate.WithPersister[State](adapter)}, opts...)
	storeOpts = append(storeOpts, appstate.WithOnRehydrate(func(ctx context.Context, state State) {
		s.run(ctx, syncEffects(state.SelectedLocale))
	}))
	s.core = appstate.NewStore(StoreName, Initial(cfg), storeOpts...)
	s.Observable = s.core
	return s, nil
}

// ChangeLocale commits code, then tells the localization and calendar
// engines. Engine failures are logged; the state change stands.
func (s *Store) ChangeLocale(ctx context.Context, code string) {
	s.core.SetState(func(prev State) State {
		return Change(prev, code).State
	})
	// the effects depend only on code, so they are known even when the
	// commit above was queued behind an active dispatch
	s.run(ctx, syncEffects(code))
}

// SetLoading toggles the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.core.SetState(func(prev State) State {
		prev.Loading = loading
		return prev
	})
}

func (s *Store) run(ctx context.Context, effects []effect.Effect) {
	if err := s.runner.Run(ctx, effects...); err != nil {
		s.core.Logger().Warn("locale effects failed", "error", err)
	}
}
