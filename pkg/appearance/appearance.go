// Package appearance models the operating system's color-scheme preference.
package appearance

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// EnvColorScheme seeds System with an initial preference.
const EnvColorScheme = "APPSTATE_COLOR_SCHEME"

// ColorScheme is an OS appearance preference.
type ColorScheme string

const (
	Light ColorScheme = "light"
	Dark  ColorScheme = "dark"
)

// Parse validates s as a ColorScheme.
func Parse(s string) (ColorScheme, error) {
	switch ColorScheme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	default:
		return "", fmt.Errorf("appearance: unknown color scheme %q", s)
	}
}

// API reads and sets the appearance preference.
type API interface {
	// ColorScheme reports the current preference; ok is false when the OS
	// expresses none.
	ColorScheme() (scheme ColorScheme, ok bool)
	SetColorScheme(scheme ColorScheme) error
}

// System is an in-process API. It remembers the last scheme applied.
type System struct {
	mu      sync.RWMutex
	scheme  ColorScheme
	set     bool
	applied []ColorScheme
}

// NewSystem seeds a System from EnvColorScheme when it holds a valid scheme.
func NewSystem() *System {
	s := &System{}
	if scheme, err := Parse(os.Getenv(EnvColorScheme)); err == nil {
		s.scheme, s.set = scheme, true
	}
	return s
}

// NewStatic returns a System reporting scheme.
func NewStatic(scheme ColorScheme) *System {
	return &System{scheme: scheme, set: scheme != ""}
}

func (s *System) ColorScheme() (ColorScheme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme, s.set
}

func (s *System) SetColorScheme(scheme ColorScheme) error {
	if _, err := Parse(string(scheme)); err != nil {
		return err
	}
	s.mu.Lock()
	s.scheme, s.set = scheme, true
	s.applied = append(s.applied, scheme)
	s.mu.Unlock()
	return nil
}

// Applied lists every scheme set so far, in order.
func (s *System) Applied() []ColorScheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ColorScheme(nil), s.applied...)
}
