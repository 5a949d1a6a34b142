package app

import (
	"context"
	"fmt"

	"github.com/goliatone/go-appstate/pkg/effect"
	"golang.org/x/sync/errgroup"
)

// Start hydrates every store concurrently, then derives the auth flag from
// token presence, then closes Ready. Only context errors fail Start; storage
// problems degrade to defaults. Later calls return the first result.
func (a *App) Start(ctx context.Context) error {
	a.startOnce.Do(func() {
		a.startErr = a.start(ctx)
		a.hydrated.Store(a.startErr == nil)
		close(a.ready)
	})
	return a.startErr
}

func (a *App) start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, hydrate := range []func(context.Context) error{
		a.Locale.Hydrate,
		a.Theme.Hydrate,
		a.User.Hydrate,
		a.Auth.Hydrate,
		a.Form.Hydrate,
	} {
		hydrate := hydrate
		g.Go(func() error { return hydrate(gctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: hydrate: %w", err)
	}

	// without a persisted entry no rehydrate effects ran, so the engines
	// still hold their defaults
	if !a.Locale.Hydrated() {
		code := a.Locale.GetState().SelectedLocale
		if err := a.Runner.Run(ctx, effect.ChangeLanguage(code), effect.SetCalendarLocale(code)); err != nil {
			a.logger.Warn("initial locale sync failed", "locale", code, "error", err)
		}
	}

	if err := a.Auth.Derive(ctx, a.kv); err != nil {
		a.logger.Warn("auth derive failed, signed out", "error", err)
		a.Telemetry.RecordError(err)
	}

	a.logger.Debug("stores ready",
		"locale", a.Locale.GetState().SelectedLocale,
		"theme", a.Theme.GetState().SelectedTheme,
		"onboarding_seen", a.User.GetState().IsOnboardingSeen,
		"authenticated", a.Auth.GetState().IsAuthenticated,
	)
	return nil
}

// Ready is closed once Start has finished, whether or not it succeeded.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// started reports whether Start completed successfully.
func (a *App) started() bool {
	return a.hydrated.Load()
}
