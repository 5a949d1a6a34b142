// Package app is the composition root. It owns every store instance, the
// key-value backend, the engines the stores drive and the effect runner
// that connects them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/internal/config"
	"github.com/goliatone/go-appstate/pkg/activity"
	"github.com/goliatone/go-appstate/pkg/activity/usersink"
	"github.com/goliatone/go-appstate/pkg/appearance"
	"github.com/goliatone/go-appstate/pkg/auth"
	"github.com/goliatone/go-appstate/pkg/calendar"
	"github.com/goliatone/go-appstate/pkg/effect"
	"github.com/goliatone/go-appstate/pkg/form"
	"github.com/goliatone/go-appstate/pkg/i18n"
	"github.com/goliatone/go-appstate/pkg/locale"
	"github.com/goliatone/go-appstate/pkg/rules"
	"github.com/goliatone/go-appstate/pkg/storage"
	"github.com/goliatone/go-appstate/pkg/telemetry"
	"github.com/goliatone/go-appstate/pkg/theme"
	"github.com/goliatone/go-appstate/pkg/user"
	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ErrNotHydrated is returned by reads that need Start to have finished.
var ErrNotHydrated = errors.New("app: stores not hydrated")

// Deps are the collaborators New does not build from configuration. Every
// field is optional.
type Deps struct {
	Logger *slog.Logger
	// KV replaces the backend described by cfg.Storage.
	KV            storage.KV
	Appearance    appearance.API
	Telemetry     telemetry.Collector
	Hooks         activity.Hooks
	ActivitySink  usertypes.ActivitySink
	DeviceLocales []string
}

// App holds the wired stores.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	kv     storage.KV

	I18n       *i18n.Engine
	Calendar   *calendar.Engine
	Appearance appearance.API
	Telemetry  telemetry.Collector
	Runner     *effect.Runner
	Evaluator  rules.Evaluator

	Locale *locale.Store
	Theme  *theme.Store
	Auth   *auth.Store
	User   *user.Store
	Form   *form.Store

	startOnce sync.Once
	startErr  error
	ready     chan struct{}
	hydrated  atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New wires an App. It performs no hydration; call Start.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	kv := deps.KV
	if kv == nil {
		opened, err := OpenKV(cfg.Storage)
		if err != nil {
			return nil, err
		}
		kv = opened
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		kv:         kv,
		Appearance: resolveAppearance(deps.Appearance, cfg.Theme.Default),
		Telemetry:  deps.Telemetry,
		ready:      make(chan struct{}),
	}
	if a.Telemetry == nil {
		a.Telemetry = telemetry.SlogCollector{Logger: logger.With("component", "telemetry")}
	}

	if err := a.buildEngines(); err != nil {
		storage.Close(kv)
		return nil, err
	}
	if err := a.buildRunner(); err != nil {
		storage.Close(kv)
		return nil, err
	}

	evaluator, err := NewEvaluator(cfg.Rules.Engine, logger)
	if err != nil {
		storage.Close(kv)
		return nil, err
	}
	a.Evaluator = evaluator

	hooks := append(activity.Hooks{}, deps.Hooks...)
	hooks = append(hooks, telemetry.Hook{Collector: a.Telemetry})
	if deps.ActivitySink != nil {
		hooks = append(hooks, usersink.Hook{Sink: deps.ActivitySink})
	}
	emitter := activity.NewEmitter(hooks, activity.Config{Enabled: cfg.Activity.Enabled, Channel: cfg.Activity.Channel})

	device := deps.DeviceLocales
	if len(device) == 0 {
		device = cfg.Locale.Device
	}
	if len(device) == 0 {
		device = DeviceLocales()
	}

	if err := a.buildStores(emitter, device); err != nil {
		storage.Close(kv)
		return nil, err
	}
	return a, nil
}

func resolveAppearance(api appearance.API, fallback string) appearance.API {
	if api != nil {
		return api
	}
	system := appearance.NewSystem()
	if _, ok := system.ColorScheme(); ok {
		return system
	}
	if scheme, err := appearance.Parse(fallback); err == nil {
		return appearance.NewStatic(scheme)
	}
	return system
}

func (a *App) buildEngines() error {
	a.I18n = i18n.New(
		i18n.WithBuiltins(),
		i18n.WithFallback(a.cfg.Locale.Fallback),
		i18n.WithLogger(a.logger.With("component", "i18n")),
	)
	if dir := a.cfg.I18n.CatalogDir; dir != "" {
		if err := a.I18n.LoadDir(dir); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	a.Calendar = calendar.New()
	return nil
}

func (a *App) buildRunner() error {
	registry := effect.NewRegistry()
	handlers := map[string]effect.Handler{
		effect.KindChangeLanguage: func(ctx context.Context, e effect.Effect) error {
			code, err := effect.StringPayload(e)
			if err != nil {
				return err
			}
			return a.I18n.ChangeLanguage(ctx, code)
		},
		effect.KindSetCalendarLang: func(_ context.Context, e effect.Effect) error {
			code, err := effect.StringPayload(e)
			if err != nil {
				return err
			}
			return a.Calendar.SetLocale(code)
		},
		effect.KindSetColorScheme: theme.AppearanceHandler(a.Appearance),
	}
	for kind, handler := range handlers {
		if err := registry.Register(kind, a.reported(handler)); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	a.Runner = effect.NewRunner(registry,
		effect.WithPolicy(effect.Policy{Attempts: a.cfg.Effects.Attempts, Backoff: a.cfg.Effects.Backoff}),
		effect.WithLogger(a.logger.With("component", "effects")),
	)
	return nil
}

// reported forwards handler failures to the telemetry collector.
func (a *App) reported(handler effect.Handler) effect.Handler {
	return func(ctx context.Context, e effect.Effect) error {
		err := handler(ctx, e)
		if err != nil {
			a.Telemetry.RecordError(fmt.Errorf("%s: %w", e.Kind, err))
		}
		return err
	}
}

func (a *App) buildStores(emitter *activity.Emitter, device []string) error {
	var err error
	a.Locale, err = locale.NewStore(a.kv, a.Runner,
		locale.Config{Supported: a.cfg.Locale.Supported, Fallback: a.cfg.Locale.Fallback, DeviceLocales: device},
		storeOptions[locale.State](a, locale.StoreName, emitter)...)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.Theme, err = theme.NewStore(a.kv, a.Runner, a.Appearance, storeOptions[theme.State](a, theme.StoreName, emitter)...)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.User, err = user.NewStore(a.kv, storeOptions[user.State](a, user.StoreName, emitter)...)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.Auth = auth.NewStore(storeOptions[auth.State](a, auth.StoreName, emitter)...)
	a.Form = form.NewStore(storeOptions[form.State](a, form.StoreName, emitter)...)
	return nil
}

func storeOptions[T any](a *App, name string, emitter *activity.Emitter) []appstate.StoreOption[T] {
	return []appstate.StoreOption[T]{
		appstate.WithLogger[T](a.logger.With("store", name)),
		appstate.WithActivity[T](emitter),
		appstate.WithEvaluator[T](a.Evaluator),
	}
}

// KV returns the storage backend.
func (a *App) KV() storage.KV {
	return a.kv
}

// Close releases the storage backend. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = storage.Close(a.kv)
	})
	return a.closeErr
}
