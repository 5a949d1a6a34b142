package effect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Policy controls retries for a single effect.
type Policy struct {
	// Attempts is the total number of tries; values below 1 mean 1.
	Attempts int
	// Backoff is the wait between tries, doubled after each failure.
	Backoff time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPolicy sets the retry policy.
func WithPolicy(policy Policy) RunnerOption {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes effects in order. Failures never roll back state; they are
// logged and returned joined so callers may surface them.
type Runner struct {
	registry *Registry
	policy   Policy
	logger   *slog.Logger
}

func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}
	r := &Runner{
		registry: registry,
		policy:   Policy{Attempts: 1},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Registry returns the handler registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run performs effects sequentially. Unknown kinds are logged and skipped;
// the remaining effects still run.
func (r *Runner) Run(ctx context.Context, effects ...Effect) error {
	if r == nil || len(effects) == 0 {
		return nil
	}
	var errs []error
	for _, e := range effects {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		handler, err := r.registry.Lookup(e.Kind)
		if err != nil {
			r.logger.Warn("effect skipped", "kind", e.Kind, "error", err)
			errs = append(errs, err)
			continue
		}
		if err := r.runOne(ctx, handler, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, handler Handler, e Effect) error {
	attempts := r.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.policy.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = handler(ctx, e); err == nil {
			r.logger.Debug("effect applied", "kind", e.Kind, "attempt", attempt)
			return nil
		}
		r.logger.Warn("effect failed", "kind", e.Kind, "attempt", attempt, "attempts", attempts, "error", err)
		if attempt == attempts {
			break
		}
		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("effect: %s: %w", e.Kind, errors.Join(err, ctx.Err()))
			case <-timer.C:
			}
			backoff *= 2
		}
	}
	return fmt.Errorf("effect: %s failed after %d attempt(s): %w", e.Kind, attempts, err)
}
