package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-appstate/internal/schema"
	"github.com/goliatone/go-appstate/pkg/rules"
	"github.com/goliatone/go-appstate/pkg/storage"
)

// Snapshot returns every store's fields keyed by store name.
func (a *App) Snapshot() map[string]any {
	return map[string]any{
		a.Locale.Name(): a.Locale.Fields(),
		a.Theme.Name():  a.Theme.Fields(),
		a.Auth.Name():   a.Auth.Fields(),
		a.User.Name():   a.User.Fields(),
		a.Form.Name():   a.Form.Fields(),
	}
}

// Schemas returns a JSON Schema per store record, keyed by store name.
func (a *App) Schemas() map[string]any {
	out := map[string]any{}
	for name, record := range a.records() {
		out[name] = schema.Document(name, record)
	}
	return out
}

// Paths returns the flattened field paths per store record.
func (a *App) Paths() map[string][]schema.Field {
	out := map[string][]schema.Field{}
	for name, record := range a.records() {
		out[name] = schema.Fields(record)
	}
	return out
}

func (a *App) records() map[string]any {
	return map[string]any{
		a.Locale.Name(): a.Locale.GetState(),
		a.Theme.Name():  a.Theme.GetState(),
		a.Auth.Name():   a.Auth.GetState(),
		a.User.Name():   a.User.GetState(),
		a.Form.Name():   a.Form.GetState(),
	}
}

// Gate returns the first destination in the configured order whose rule
// holds for the current snapshot.
func (a *App) Gate() (string, error) {
	if !a.started() {
		return "", ErrNotHydrated
	}
	snapshot := a.Snapshot()
	for _, destination := range a.cfg.Rules.GateOrder {
		expr, ok := a.cfg.Rules.Gate[destination]
		if !ok {
			return "", fmt.Errorf("app: gate %q has no rule", destination)
		}
		matched, err := rules.Truthy(a.Evaluator.Evaluate(rules.RuleContext{Snapshot: snapshot, Store: "gate"}, expr))
		if err != nil {
			return "", fmt.Errorf("app: gate %q: %w", destination, err)
		}
		if matched {
			return destination, nil
		}
	}
	return "", errors.New("app: no gate rule matched")
}

// DeleteUser deletes the account token and signs the session out.
func (a *App) DeleteUser(ctx context.Context) error {
	err := a.User.DeleteUser(ctx)
	a.Auth.SetIsAuthenticated(false)
	return err
}

// WipeData removes every stored entry and resets the stores that depend on
// them. It is the only path that clears the onboarding flag.
func (a *App) WipeData(ctx context.Context) error {
	var errs []error
	if clearer, ok := a.kv.(storage.Clearer); ok {
		if err := clearer.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: clear storage: %w", err))
		}
	} else if err := a.User.DeleteUser(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.User.ResetOnboarding(ctx); err != nil {
		errs = append(errs, err)
	}
	a.Auth.SetIsAuthenticated(false)
	a.Form.ClearForm()
	return errors.Join(errs...)
}
