// Package form keeps the registration draft for the current session. Nothing
// here is persisted.
package form

import (
	"context"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/activity"
)

const StoreName = "form"

// RegisterFields is a partial registration form. Nil fields are absent.
type RegisterFields struct {
	Email         *string `json:"email,omitempty"`
	FirstName     *string `json:"firstName,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
	Password      *string `json:"password,omitempty"`
	PrivacyPolicy *bool   `json:"privacyPolicy,omitempty"`
	TermsOfUse    *bool   `json:"termsOfUse,omitempty"`
}

// String returns a pointer to s for building partial updates.
func String(s string) *string { return &s }

// Bool returns a pointer to b for building partial updates.
func Bool(b bool) *bool { return &b }

func (f RegisterFields) GetEmail() string     { return str(f.Email) }
func (f RegisterFields) GetFirstName() string { return str(f.FirstName) }
func (f RegisterFields) GetLastName() string  { return str(f.LastName) }
func (f RegisterFields) GetPassword() string  { return str(f.Password) }
func (f RegisterFields) GetPrivacyPolicy() bool {
	return f.PrivacyPolicy != nil && *f.PrivacyPolicy
}
func (f RegisterFields) GetTermsOfUse() bool {
	return f.TermsOfUse != nil && *f.TermsOfUse
}

// Complete reports whether every field is present and both agreements are
// accepted.
func (f RegisterFields) Complete() bool {
	return f.GetEmail() != "" && f.GetFirstName() != "" && f.GetLastName() != "" &&
		f.GetPassword() != "" && f.GetPrivacyPolicy() && f.GetTermsOfUse()
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Empty is the cleared form: every field present with its zero value.
func Empty() RegisterFields {
	return RegisterFields{
		Email:         String(""),
		FirstName:     String(""),
		LastName:      String(""),
		Password:      String(""),
		PrivacyPolicy: Bool(false),
		TermsOfUse:    Bool(false),
	}
}

// State is the form draft record.
type State struct {
	FormValues RegisterFields `json:"formValues"`
}

// Store is the form draft store.
type Store struct {
	appstate.Observable[State]

	core *appstate.Store[State]
}

func NewStore(opts ...appstate.StoreOption[State]) *Store {
	core := appstate.NewStore(StoreName, State{}, opts...)
	return &Store{Observable: core, core: core}
}

// SetFormValues merges values into the draft; nil fields are left untouched.
func (s *Store) SetFormValues(values RegisterFields) {
	s.core.Patch(State{FormValues: values})
}

// ClearForm resets every field to "" or false and emits state.cleared.
func (s *Store) ClearForm() {
	s.core.Replace(State{FormValues: Empty()})
	event := activity.BuildStateClearedEvent(activity.StateEventInput{Store: StoreName, Fields: []string{"formValues"}})
	if err := s.core.Emitter().Emit(context.Background(), event); err != nil {
		s.core.Logger().Debug("form activity hook failed", "error", err)
	}
}
