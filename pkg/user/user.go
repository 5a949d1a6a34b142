// Package user holds the onboarding flag and account-deletion flow.
package user

import (
	"context"
	"fmt"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/activity"
	"github.com/goliatone/go-appstate/pkg/auth"
	"github.com/goliatone/go-appstate/pkg/persist"
	"github.com/goliatone/go-appstate/pkg/storage"
)

const (
	StoreName = "user"
	// OnboardingKey stores the flag as a bare "true" or "false".
	OnboardingKey = "isOnboardingSeen"
)

// State is the user record.
type State struct {
	IsOnboardingSeen bool `json:"isOnboardingSeen"`
	Loading          bool `json:"loading"`
}

// Store is the user store.
type Store struct {
	appstate.Observable[State]

	core    *appstate.Store[State]
	kv      storage.KV
	adapter *persist.Adapter[State, bool]
}

// NewStore builds the user store over kv.
func NewStore(kv storage.KV, opts ...appstate.StoreOption[State]) (*Store, error) {
	adapter, err := persist.New[State, bool](kv, OnboardingKey, persist.BoolCodec{},
		func(s State) bool { return s.IsOnboardingSeen },
		func(s State, seen bool) State {
			s.IsOnboardingSeen = seen
			return s
		},
	)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	core := appstate.NewStore(StoreName, State{}, append([]appstate.StoreOption[State]{appstate.WithPersister[State](adapter)}, opts...)...)
	return &Store{Observable: core, core: core, kv: kv, adapter: adapter}, nil
}

// SetIsOnboardingSeen records the flag. The flag only moves from false to
// true; a false after true is ignored. ResetOnboarding is the only way back.
func (s *Store) SetIsOnboardingSeen(seen bool) {
	if !seen && s.core.GetState().IsOnboardingSeen {
		s.core.Logger().Info("ignoring onboarding reset", "store", StoreName)
		return
	}
	s.core.SetState(func(prev State) State {
		prev.IsOnboardingSeen = prev.IsOnboardingSeen || seen
		return prev
	})
}

// ResetOnboarding clears the stored flag. It is part of full data deletion.
func (s *Store) ResetOnboarding(ctx context.Context) error {
	s.core.SetState(func(prev State) State {
		prev.IsOnboardingSeen = false
		return prev
	})
	// the commit above mirrors "false"; drop the entry entirely
	if err := s.adapter.Clear(ctx); err != nil {
		return fmt.Errorf("user: %w", err)
	}
	event := activity.BuildStateClearedEvent(activity.StateEventInput{Store: StoreName, Fields: []string{"isOnboardingSeen"}})
	if err := s.core.Emitter().Emit(ctx, event); err != nil {
		s.core.Logger().Debug("user activity hook failed", "error", err)
	}
	return nil
}

// DeleteUser removes the authentication token. Loading is true while the
// token is deleted and always false afterwards. The onboarding flag is kept.
func (s *Store) DeleteUser(ctx context.Context) error {
	s.setLoading(true)
	err := s.kv.Delete(ctx, auth.TokenKey)
	s.setLoading(false)
	if err != nil {
		return fmt.Errorf("user: delete token: %w", err)
	}

	event := activity.BuildAccountEvent(activity.VerbUserDeleted, activity.StateEventInput{Store: StoreName})
	if err := s.core.Emitter().Emit(ctx, event); err != nil {
		s.core.Logger().Debug("user activity hook failed", "error", err)
	}
	return nil
}

func (s *Store) setLoading(loading bool) {
	s.core.SetState(func(prev State) State {
		prev.Loading = loading
		return prev
	})
}
