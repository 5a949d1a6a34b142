package appstate

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-appstate/internal/merge"
	"github.com/goliatone/go-appstate/pkg/rules"
)

// Watch compiles expr against the store's json field names and calls fn
// whenever its boolean result flips. The first evaluation only seeds the
// current value; fn is not called for it. Evaluation errors are logged and
// treated as "no change".
func (s *Store[T]) Watch(expr string, fn func(matched bool, state T)) (unsubscribe func(), err error) {
	if fn == nil {
		return nil, fmt.Errorf("appstate: watch %q: callback is required", expr)
	}
	rule, err := s.cfg.evaluator.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("appstate: watch %q: %w", expr, err)
	}

	current, err := s.evaluate(rule, s.GetState())
	if err != nil {
		return nil, fmt.Errorf("appstate: watch %q: %w", expr, err)
	}

	var mu sync.Mutex
	last := current
	return s.Subscribe(func(next, _ T) {
		matched, err := s.evaluate(rule, next)
		if err != nil {
			s.cfg.logger.Warn("watch rule failed", "store", s.name, "expr", expr, "error", err)
			return
		}
		mu.Lock()
		changed := matched != last
		last = matched
		mu.Unlock()
		if changed {
			fn(matched, next)
		}
	}), nil
}

func (s *Store[T]) evaluate(rule rules.CompiledRule, state T) (bool, error) {
	return rules.Truthy(rule.Evaluate(rules.RuleContext{
		Snapshot: merge.Fields(state),
		Store:    s.name,
	}))
}
