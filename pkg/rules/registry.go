package rules

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

// Function is a helper callable from rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry maps lower-cased helper names to functions. Lookups read
// an immutable snapshot, so watch rules evaluated on every commit never
// contend with registration.
type FunctionRegistry struct {
	mu        sync.Mutex // serializes writers
	functions atomic.Pointer[map[string]Function]
}

func NewFunctionRegistry() *FunctionRegistry {
	r := &FunctionRegistry{}
	r.functions.Store(&map[string]Function{})
	return r
}

// Builtins returns a registry holding the helpers every engine understands:
//
//	startswith(s, prefix)   string prefix test
//	oneof(v, a, b, ...)     v equals one of the candidates
//	blank(v)                nil, "", false, 0 or an empty collection
func Builtins() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.Register("startswith", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("startswith expects 2 arguments, got %d", len(args))
		}
		return strings.HasPrefix(fmt.Sprint(args[0]), fmt.Sprint(args[1])), nil
	})
	_ = r.Register("oneof", func(args ...any) (any, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("oneof expects a value and at least one candidate, got %d arguments", len(args))
		}
		for _, candidate := range args[1:] {
			if fmt.Sprint(candidate) == fmt.Sprint(args[0]) {
				return true, nil
			}
		}
		return false, nil
	})
	_ = r.Register("blank", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("blank expects 1 argument, got %d", len(args))
		}
		if args[0] == nil {
			return true, nil
		}
		v := reflect.ValueOf(args[0])
		switch v.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
			return v.Len() == 0, nil
		default:
			return v.IsZero(), nil
		}
	})
	return r
}

// Register stores fn under name. Names must be identifiers, since all three
// engines call helpers by bare name, and are unique ignoring case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("rules: function %q is nil", name)
	}
	if !isIdentifier(name) {
		return fmt.Errorf("rules: function name %q is not an identifier", name)
	}
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.snapshot()
	if _, exists := current[key]; exists {
		return fmt.Errorf("rules: function %q already registered", name)
	}
	next := maps.Clone(current)
	if next == nil {
		next = map[string]Function{}
	}
	next[key] = fn
	r.functions.Store(&next)
	return nil
}

func (r *FunctionRegistry) snapshot() map[string]Function {
	if p := r.functions.Load(); p != nil {
		return *p
	}
	return nil
}

// Clone returns an independent registry with the same functions.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	clone := &FunctionRegistry{}
	functions := maps.Clone(r.snapshot())
	if functions == nil {
		functions = map[string]Function{}
	}
	clone.functions.Store(&functions)
	return clone
}

func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("rules: function registry is nil")
	}
	fn := r.snapshot()[strings.ToLower(name)]
	if fn == nil {
		return nil, fmt.Errorf("rules: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns the lower-cased names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.snapshot()))
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		if c == '_' || unicode.IsLetter(c) || (i > 0 && unicode.IsDigit(c)) {
			continue
		}
		return false
	}
	return true
}
