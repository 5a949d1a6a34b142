package auth_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/activity"
	"github.com/goliatone/go-appstate/pkg/auth"
	"github.com/goliatone/go-appstate/pkg/storage"
)

type brokenKV struct{ storage.KV }

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("unavailable")
}

func TestDefaultsToSignedOut(t *testing.T) {
	store := auth.NewStore()
	if store.GetState().IsAuthenticated {
		t.Fatalf("expected signed out by default")
	}
}

func TestSetIsAuthenticatedNotifiesAndEmitsOnChange(t *testing.T) {
	capture := &activity.CaptureHook{}
	store := auth.NewStore(appstate.WithActivity[auth.State](activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})))
	var seen []bool
	store.Subscribe(func(next, _ auth.State) { seen = append(seen, next.IsAuthenticated) })

	store.SetIsAuthenticated(true)
	store.SetIsAuthenticated(true)
	store.SetIsAuthenticated(false)

	if !reflect.DeepEqual(seen, []bool{true, true, false}) {
		t.Fatalf("unexpected notifications %v", seen)
	}
	var accountEvents int
	for _, event := range capture.Events() {
		if event.Verb == activity.VerbAuthChanged {
			accountEvents++
			if event.ObjectType != activity.ObjectTypeAccount {
				t.Fatalf("unexpected object type %q", event.ObjectType)
			}
		}
	}
	if accountEvents != 2 {
		t.Fatalf("expected two auth.changed events, got %d", accountEvents)
	}
}

func TestDeriveFromTokenPresence(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(nil)
	store := auth.NewStore()

	if err := store.Derive(ctx, kv); err != nil || store.GetState().IsAuthenticated {
		t.Fatalf("expected signed out without token, err=%v", err)
	}
	_ = kv.Set(ctx, auth.TokenKey, "abc")
	if err := store.Derive(ctx, kv); err != nil || !store.GetState().IsAuthenticated {
		t.Fatalf("expected signed in with token, err=%v", err)
	}
	if err := store.Derive(ctx, brokenKV{kv}); err == nil || store.GetState().IsAuthenticated {
		t.Fatalf("expected read failure to sign out and return error")
	}
}

func TestSignInAndOut(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(nil)
	store := auth.NewStore()

	if err := store.SignIn(ctx, kv, " "); err == nil {
		t.Fatalf("expected empty token to fail")
	}
	if err := store.SignIn(ctx, kv, "abc"); err != nil || !store.GetState().IsAuthenticated {
		t.Fatalf("sign in: %v", err)
	}
	if err := store.SignOut(ctx, kv); err != nil || store.GetState().IsAuthenticated {
		t.Fatalf("sign out: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, auth.TokenKey); ok {
		t.Fatalf("expected token removed")
	}
}
