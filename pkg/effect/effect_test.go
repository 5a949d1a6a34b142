package effect_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-appstate/pkg/effect"
)

func TestRegistryRejectsDuplicatesCaseInsensitively(t *testing.T) {
	registry := effect.NewRegistry()
	noop := func(context.Context, effect.Effect) error { return nil }
	if err := registry.Register(effect.KindChangeLanguage, noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(strings.ToUpper(effect.KindChangeLanguage), noop); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register("", noop); err == nil {
		t.Fatalf("expected empty kind to fail")
	}
	if err := registry.Register("x", nil); err == nil {
		t.Fatalf("expected nil handler to fail")
	}

	clone := registry.Clone()
	_ = clone.Register("extra", noop)
	if !reflect.DeepEqual(registry.Kinds(), []string{effect.KindChangeLanguage}) {
		t.Fatalf("clone must not leak into original: %v", registry.Kinds())
	}
	if _, err := registry.Lookup("missing"); !errors.Is(err, effect.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRunnerRunsInOrderAndSkipsUnknown(t *testing.T) {
	var calls []string
	registry := effect.NewRegistry()
	record := func(_ context.Context, e effect.Effect) error {
		code, err := effect.StringPayload(e)
		if err != nil {
			return err
		}
		calls = append(calls, e.Kind+":"+code)
		return nil
	}
	_ = registry.Register(effect.KindChangeLanguage, record)
	_ = registry.Register(effect.KindSetCalendarLang, record)

	runner := effect.NewRunner(registry)
	err := runner.Run(context.Background(),
		effect.ChangeLanguage("tr"),
		effect.SetColorScheme("dark"),
		effect.SetCalendarLocale("tr"),
	)

	want := []string{"i18n.change_language:tr", "calendar.set_locale:tr"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("unexpected calls: %v", calls)
	}
	if !errors.Is(err, effect.ErrUnknownKind) {
		t.Fatalf("expected unknown kind to be reported, got %v", err)
	}
}

func TestRunnerFailureDoesNotStopLaterEffects(t *testing.T) {
	boom := errors.New("engine down")
	var calls []string
	registry := effect.NewRegistry()
	_ = registry.Register(effect.KindChangeLanguage, func(context.Context, effect.Effect) error {
		calls = append(calls, "i18n")
		return boom
	})
	_ = registry.Register(effect.KindSetCalendarLang, func(context.Context, effect.Effect) error {
		calls = append(calls, "calendar")
		return nil
	})

	err := effect.NewRunner(registry).Run(context.Background(), effect.ChangeLanguage("tr"), effect.SetCalendarLocale("tr"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if !reflect.DeepEqual(calls, []string{"i18n", "calendar"}) {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestRunnerRetriesWithPolicy(t *testing.T) {
	attempts := 0
	registry := effect.NewRegistry()
	_ = registry.Register(effect.KindSetColorScheme, func(context.Context, effect.Effect) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	runner := effect.NewRunner(registry, effect.WithPolicy(effect.Policy{Attempts: 3, Backoff: time.Millisecond}))
	if err := runner.Run(context.Background(), effect.SetColorScheme("dark")); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	called := false
	registry := effect.NewRegistry()
	_ = registry.Register(effect.KindChangeLanguage, func(context.Context, effect.Effect) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := effect.NewRunner(registry).Run(ctx, effect.ChangeLanguage("tr"))
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancellation before handler, err=%v called=%v", err, called)
	}
}

func TestStringPayload(t *testing.T) {
	if _, err := effect.StringPayload(effect.Effect{Kind: "k", Payload: 1}); err == nil {
		t.Fatalf("expected non-string payload to fail")
	}
	if _, err := effect.StringPayload(effect.ChangeLanguage(" ")); err == nil {
		t.Fatalf("expected blank payload to fail")
	}
	if got := effect.ChangeLanguage("tr").String(); got != "i18n.change_language(tr)" {
		t.Fatalf("unexpected string form %q", got)
	}
}

func TestNilRunnerIsNoop(t *testing.T) {
	var runner *effect.Runner
	if err := runner.Run(context.Background(), effect.ChangeLanguage("tr")); err != nil {
		t.Fatalf("expected nil runner to be a no-op, got %v", err)
	}
}
