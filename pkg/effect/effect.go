// Package effect describes side effects as data. Store transitions return the
// next state plus a list of Effects; a Runner owned by the composition root
// executes them against registered handlers after the state is committed.
package effect

import (
	"fmt"
	"strings"
)

// Effect kinds issued by the built-in stores.
const (
	KindChangeLanguage  = "i18n.change_language"
	KindSetCalendarLang = "calendar.set_locale"
	KindSetColorScheme  = "appearance.set_color_scheme"
)

// Effect is a request to change something outside the store.
type Effect struct {
	Kind    string
	Payload any
}

func (e Effect) String() string {
	return fmt.Sprintf("%s(%v)", e.Kind, e.Payload)
}

// Transition is the result of a pure state change.
type Transition[T any] struct {
	State   T
	Effects []Effect
}

// ChangeLanguage asks the localization engine to switch to code.
func ChangeLanguage(code string) Effect {
	return Effect{Kind: KindChangeLanguage, Payload: code}
}

// SetCalendarLocale asks the calendar engine to switch to code.
func SetCalendarLocale(code string) Effect {
	return Effect{Kind: KindSetCalendarLang, Payload: code}
}

// SetColorScheme asks the OS appearance layer to apply scheme.
func SetColorScheme(scheme string) Effect {
	return Effect{Kind: KindSetColorScheme, Payload: scheme}
}

// StringPayload returns the payload of e as a non-empty string.
func StringPayload(e Effect) (string, error) {
	value, ok := e.Payload.(string)
	if !ok {
		return "", fmt.Errorf("effect: %s payload is %T, want string", e.Kind, e.Payload)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("effect: %s payload is empty", e.Kind)
	}
	return value, nil
}
