package appstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/goliatone/go-appstate/internal/merge"
	"github.com/goliatone/go-appstate/pkg/activity"
)

// Updater computes the next state from a detached copy of the previous one.
// Fields it leaves alone keep their values.
type Updater[T any] func(prev T) T

// Listener observes every commit.
type Listener[T any] func(next, prev T)

type commitKind int

const (
	commitUpdate commitKind = iota
	commitHydrate
)

type pendingCommit[T any] struct {
	update Updater[T]
	kind   commitKind
}

type listenerEntry[T any] struct {
	id uint64
	fn Listener[T]
}

// Observable is the read side of a Store. Domain stores embed it so callers
// can read, subscribe and hydrate but only mutate through domain actions.
type Observable[T any] interface {
	Name() string
	GetState() T
	Fields() map[string]any
	Subscribe(fn Listener[T]) (unsubscribe func())
	Watch(expr string, fn func(matched bool, state T)) (unsubscribe func(), err error)
	Hydrate(ctx context.Context) error
	Ready() <-chan struct{}
	Hydrated() bool
}

var _ Observable[struct{}] = (*Store[struct{}])(nil)

// Store is a typed reactive record. All methods are safe for concurrent use;
// commits are serialized and listeners run synchronously on the goroutine
// that is dispatching.
type Store[T any] struct {
	name string
	cfg  storeConfig[T]

	mu        sync.Mutex
	idle      *sync.Cond
	state     T
	queue     []pendingCommit[T]
	owner     uint64 // goroutine dispatching, 0 when idle
	listeners []listenerEntry[T]
	nextID    uint64

	hydrateOnce sync.Once
	ready       chan struct{}
	hydrated    bool
}

// NewStore builds a store holding initial. Construction performs no I/O; call
// Hydrate to restore persisted state.
func NewStore[T any](name string, initial T, opts ...StoreOption[T]) *Store[T] {
	cfg := applyStoreOptions(opts)
	s := &Store[T]{
		name:  name,
		cfg:   cfg,
		state: merge.Clone(initial),
		ready: make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Name returns the store name used in logs and activity events.
func (s *Store[T]) Name() string {
	return s.name
}

// Logger returns the logger configured with WithLogger.
func (s *Store[T]) Logger() *slog.Logger {
	return s.cfg.logger
}

// Emitter returns the activity emitter, which may be nil.
func (s *Store[T]) Emitter() *activity.Emitter {
	return s.cfg.emitter
}

// GetState returns the current snapshot. Snapshots are detached from later
// commits.
func (s *Store[T]) GetState() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return merge.Clone(s.state)
}

// Fields returns the current state flattened by json field name.
func (s *Store[T]) Fields() map[string]any {
	return merge.Fields(s.GetState())
}

// SetState commits update and returns once it has been committed. When called
// from inside an updater or listener, the update is queued instead and
// committed once the current notification cycle completes. Calls from other
// goroutines wait for the active dispatch to finish.
func (s *Store[T]) SetState(update Updater[T]) {
	if update == nil {
		return
	}
	s.enqueue(pendingCommit[T]{update: update, kind: commitUpdate})
}

// Replace swaps the whole record.
func (s *Store[T]) Replace(next T) {
	s.SetState(func(T) T { return next })
}

// Patch overlays partial on the current state. Nil pointer, map, slice and
// interface fields in partial are left untouched; all other fields overwrite.
func (s *Store[T]) Patch(partial T) {
	s.SetState(func(prev T) T { return merge.Overlay(prev, partial) })
}

// Subscribe registers fn for every subsequent commit. The returned function
// removes it and may be called more than once.
func (s *Store[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store[T]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.listeners {
		if entry.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *Store[T]) enqueue(commit pendingCommit[T]) {
	id := goroutineID()
	s.mu.Lock()
	if s.owner == id {
		s.queue = append(s.queue, commit)
		s.mu.Unlock()
		return
	}
	for s.owner != 0 {
		s.idle.Wait()
	}
	s.owner = id
	s.queue = append(s.queue, commit)
	s.dispatch()
}

// dispatch drains the queue. It is entered with s.mu held and returns with it
// released. A panicking updater or listener drops the rest of the queue and
// frees the store for the next caller.
func (s *Store[T]) dispatch() {
	locked := true
	defer func() {
		if !locked {
			s.mu.Lock()
		}
		s.queue = nil
		s.owner = 0
		s.idle.Broadcast()
		s.mu.Unlock()
	}()

	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]

		prev := s.state
		// Only the owner writes s.state, so the updater can run unlocked and
		// may read the store.
		s.mu.Unlock()
		locked = false
		committed := merge.Clone(next.update(merge.Clone(prev)))
		s.mu.Lock()
		locked = true
		s.state = committed
		listeners := append([]listenerEntry[T](nil), s.listeners...)
		s.mu.Unlock()
		locked = false

		s.afterCommit(next.kind, committed, prev, listeners)

		s.mu.Lock()
		locked = true
	}
}

func (s *Store[T]) afterCommit(kind commitKind, next, prev T, listeners []listenerEntry[T]) {
	for _, entry := range listeners {
		entry.fn(merge.Clone(next), merge.Clone(prev))
	}

	ctx := context.Background()
	if kind == commitUpdate && s.cfg.persister != nil {
		if err := s.cfg.persister.Persist(ctx, prev, next); err != nil {
			s.cfg.logger.Warn("state persist failed", "store", s.name, "error", err)
		}
	}

	fields := merge.Changed(prev, next)
	if kind == commitUpdate && len(fields) == 0 {
		return
	}
	input := activity.StateEventInput{Store: s.name, Fields: fields}
	event := activity.BuildStateUpdatedEvent(input)
	if kind == commitHydrate {
		event = activity.BuildStateHydratedEvent(input)
	}
	if err := s.cfg.emitter.Emit(ctx, event); err != nil {
		s.cfg.logger.Debug("state activity hook failed", "store", s.name, "error", err)
	}
}

// Hydrate restores the persisted subset once. A missing or unreadable entry
// leaves the initial state in place and is not an error; only context
// cancellation is returned. Ready is closed when Hydrate finishes, whatever
// the outcome. Later calls return nil immediately.
func (s *Store[T]) Hydrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	s.hydrateOnce.Do(func() {
		defer close(s.ready)
		err = s.hydrate(ctx)
	})
	return err
}

func (s *Store[T]) hydrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.persister == nil {
		return nil
	}

	restored, ok, err := s.cfg.persister.Hydrate(ctx, s.GetState())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.cfg.logger.Warn("state hydrate failed, keeping defaults", "store", s.name, "error", err)
		return nil
	}
	if !ok {
		s.cfg.logger.Debug("no persisted state", "store", s.name)
		return nil
	}

	s.enqueue(pendingCommit[T]{update: func(T) T { return restored }, kind: commitHydrate})

	s.mu.Lock()
	s.hydrated = true
	s.mu.Unlock()

	for _, fn := range s.cfg.onRehydrate {
		fn(ctx, s.GetState())
	}
	return nil
}

// Ready is closed once Hydrate has completed.
func (s *Store[T]) Ready() <-chan struct{} {
	return s.ready
}

// Hydrated reports whether a persisted snapshot was restored.
func (s *Store[T]) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}
