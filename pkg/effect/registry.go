package effect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownKind is returned for effects with no registered handler.
var ErrUnknownKind = errors.New("effect: unknown kind")

// Handler performs one effect.
type Handler func(ctx context.Context, e Effect) error

// Registry maps effect kinds to handlers. Kinds are matched case-insensitively.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register stores handler under kind, rejecting duplicates.
func (r *Registry) Register(kind string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("effect: handler for %q is nil", kind)
	}
	if kind == "" {
		return fmt.Errorf("effect: kind must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string]Handler)
	}
	key := strings.ToLower(kind)
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("effect: handler for %q already registered", kind)
	}
	r.handlers[key] = handler
	return nil
}

func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{handlers: make(map[string]Handler, len(r.handlers))}
	for kind, handler := range r.handlers {
		clone.handlers[kind] = handler
	}
	return clone
}

// Lookup returns the handler for kind or ErrUnknownKind.
func (r *Registry) Lookup(kind string) (Handler, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q (registry is nil)", ErrUnknownKind, kind)
	}
	r.mu.RLock()
	handler := r.handlers[strings.ToLower(kind)]
	r.mu.RUnlock()
	if handler == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return handler, nil
}

// Kinds returns registered kinds sorted alphabetically.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
