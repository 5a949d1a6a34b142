package appstate

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-appstate/pkg/activity"
	"github.com/goliatone/go-appstate/pkg/rules"
)

// Persister mirrors a subset of a store's state to durable storage.
// Hydrate merges the persisted subset into current and reports whether an
// entry was found. Persist runs after every update commit with the states on
// either side of it; implementations skip the write when their subset did
// not change, so unrelated commits never overwrite a stored entry.
type Persister[T any] interface {
	Hydrate(ctx context.Context, current T) (T, bool, error)
	Persist(ctx context.Context, prev, next T) error
}

// StoreOption configures a Store at construction.
type StoreOption[T any] func(*storeConfig[T])

type storeConfig[T any] struct {
	persister   Persister[T]
	onRehydrate []func(context.Context, T)
	logger      *slog.Logger
	emitter     *activity.Emitter
	evaluator   rules.Evaluator
}

// WithPersister mirrors committed state through p.
func WithPersister[T any](p Persister[T]) StoreOption[T] {
	return func(cfg *storeConfig[T]) {
		cfg.persister = p
	}
}

// WithOnRehydrate registers fn to run once after a persisted snapshot has been
// merged into the store. Callbacks run in registration order.
func WithOnRehydrate[T any](fn func(ctx context.Context, state T)) StoreOption[T] {
	return func(cfg *storeConfig[T]) {
		if fn != nil {
			cfg.onRehydrate = append(cfg.onRehydrate, fn)
		}
	}
}

func WithLogger[T any](logger *slog.Logger) StoreOption[T] {
	return func(cfg *storeConfig[T]) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithActivity emits state.updated and state.hydrated events through emitter.
func WithActivity[T any](emitter *activity.Emitter) StoreOption[T] {
	return func(cfg *storeConfig[T]) {
		cfg.emitter = emitter
	}
}

// WithEvaluator selects the rule engine used by Watch. Defaults to expr.
func WithEvaluator[T any](evaluator rules.Evaluator) StoreOption[T] {
	return func(cfg *storeConfig[T]) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

func applyStoreOptions[T any](opts []StoreOption[T]) storeConfig[T] {
	cfg := storeConfig[T]{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		cfg.evaluator = rules.NewExprEvaluator(rules.ExprWithProgramCache(rules.NewMapCache()))
	}
	return cfg
}
