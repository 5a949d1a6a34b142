// Package auth tracks whether a session is signed in. The flag itself is not
// persisted; Derive recomputes it from the presence of the stored token.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/activity"
	"github.com/goliatone/go-appstate/pkg/storage"
)

const (
	StoreName = "auth"
	// TokenKey is the storage key holding the authentication token.
	TokenKey = "token"
)

// State is the auth record.
type State struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Store is the auth store.
type Store struct {
	appstate.Observable[State]

	core *appstate.Store[State]
}

func NewStore(opts ...appstate.StoreOption[State]) *Store {
	core := appstate.NewStore(StoreName, State{}, opts...)
	return &Store{Observable: core, core: core}
}

// SetIsAuthenticated sets the flag. Sign-in and sign-out flows call it.
func (s *Store) SetIsAuthenticated(authenticated bool) {
	prev := s.core.GetState().IsAuthenticated
	s.core.SetState(func(state State) State {
		state.IsAuthenticated = authenticated
		return state
	})
	if prev == authenticated {
		return
	}
	event := activity.BuildAccountEvent(activity.VerbAuthChanged, activity.StateEventInput{
		Store:    StoreName,
		OldValue: prev,
		NewValue: authenticated,
		Metadata: map[string]any{"authenticated": strconv.FormatBool(authenticated)},
	})
	if err := s.core.Emitter().Emit(context.Background(), event); err != nil {
		s.core.Logger().Debug("auth activity hook failed", "error", err)
	}
}

// Derive sets the flag from token presence in kv. A read failure leaves the
// session signed out and is returned.
func (s *Store) Derive(ctx context.Context, kv storage.KV) error {
	token, ok, err := kv.Get(ctx, TokenKey)
	if err != nil {
		s.SetIsAuthenticated(false)
		return fmt.Errorf("auth: read token: %w", err)
	}
	s.SetIsAuthenticated(ok && strings.TrimSpace(token) != "")
	return nil
}

// SignIn stores token and marks the session authenticated.
func (s *Store) SignIn(ctx context.Context, kv storage.KV, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("auth: token is empty")
	}
	if err := kv.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("auth: store token: %w", err)
	}
	s.SetIsAuthenticated(true)
	return nil
}

// SignOut removes the token and marks the session signed out.
func (s *Store) SignOut(ctx context.Context, kv storage.KV) error {
	err := kv.Delete(ctx, TokenKey)
	s.SetIsAuthenticated(false)
	if err != nil {
		return fmt.Errorf("auth: delete token: %w", err)
	}
	return nil
}
