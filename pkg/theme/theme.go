// Package theme holds the light/dark preference. The whole record is
// persisted under StorageKey and every change is pushed to the OS appearance
// layer.
package theme

import (
	"context"
	"errors"
	"fmt"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/appearance"
	"github.com/goliatone/go-appstate/pkg/effect"
	"github.com/goliatone/go-appstate/pkg/persist"
	"github.com/goliatone/go-appstate/pkg/storage"
)

const (
	StoreName  = "theme"
	StorageKey = "theme-storage"
)

// ErrInvalidMode is returned for modes other than Light and Dark.
var ErrInvalidMode = errors.New("theme: invalid mode")

// Mode is a theme variant.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// DefaultMode is used when the OS reports no preference.
const DefaultMode = Light

func (m Mode) Valid() bool {
	return m == Light || m == Dark
}

// ParseMode validates s.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return mode, nil
}

// State is the theme record.
type State struct {
	SelectedTheme Mode `json:"selectedTheme"`
}

// Initial reads the OS preference, falling back to DefaultMode.
func Initial(api appearance.API) State {
	if api != nil {
		if scheme, ok := api.ColorScheme(); ok {
			if mode := Mode(scheme); mode.Valid() {
				return State{SelectedTheme: mode}
			}
		}
	}
	return State{SelectedTheme: DefaultMode}
}

// Change is the pure transition behind ChangeTheme.
func Change(prev State, mode Mode) (effect.Transition[State], error) {
	if !mode.Valid() {
		return effect.Transition[State]{State: prev}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	next := prev
	next.SelectedTheme = mode
	return effect.Transition[State]{
		State:   next,
		Effects: []effect.Effect{effect.SetColorScheme(string(mode))},
	}, nil
}

// Store is the theme store.
type Store struct {
	appstate.Observable[State]

	core   *appstate.Store[State]
	runner *effect.Runner
}

// NewStore builds the theme store. api seeds the initial mode.
func NewStore(kv storage.KV, runner *effect.Runner, api appearance.API, opts ...appstate.StoreOption[State]) (*Store, error) {
	adapter, err := persist.New[State, State](kv, StorageKey,
		persist.NewJSONCodec(persist.JSONValidate(func(s *State) error {
			if !s.SelectedTheme.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidMode, s.SelectedTheme)
			}
			return nil
		})),
		func(s State) State { return s },
		func(_ State, p State) State { return p },
	)
	if err != nil {
		return nil, fmt.Errorf("theme: %w", err)
	}

	s := &Store{runner: runner}
	storeOpts := append([]appstate.StoreOption[State]{appstate.WithPersister[State](adapter)}, opts...)
	storeOpts = append(storeOpts, appstate.WithOnRehydrate(func(ctx context.Context, state State) {
		s.run(ctx, []effect.Effect{effect.SetColorScheme(string(state.SelectedTheme))})
	}))
	s.core = appstate.NewStore(StoreName, Initial(api), storeOpts...)
	s.Observable = s.core
	return s, nil
}

// ChangeTheme commits mode and applies it to the OS appearance layer. Repeated
// calls with the same mode apply it again.
func (s *Store) ChangeTheme(ctx context.Context, mode Mode) error {
	transition, err := Change(State{}, mode)
	if err != nil {
		return err
	}
	s.core.SetState(func(prev State) State {
		next, _ := Change(prev, mode)
		return next.State
	})
	s.run(ctx, transition.Effects)
	return nil
}

func (s *Store) run(ctx context.Context, effects []effect.Effect) {
	if err := s.runner.Run(ctx, effects...); err != nil {
		s.core.Logger().Warn("theme effects failed", "error", err)
	}
}

// AppearanceHandler applies appearance.set_color_scheme effects to api.
func AppearanceHandler(api appearance.API) effect.Handler {
	return func(_ context.Context, e effect.Effect) error {
		value, err := effect.StringPayload(e)
		if err != nil {
			return err
		}
		scheme, err := appearance.Parse(value)
		if err != nil {
			return err
		}
		return api.SetColorScheme(scheme)
	}
}
