package persist

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-appstate/pkg/storage"
)

// Adapter persists the subset P of a store state T under one key. It
// satisfies appstate.Persister[T].
type Adapter[T, P any] struct {
	kv    storage.KV
	key   string
	codec Codec[P]
	pick  func(T) P
	apply func(T, P) T
}

// New builds an Adapter. pick extracts the persisted subset from a state;
// apply merges a restored subset into the current state.
func New[T, P any](kv storage.KV, key string, codec Codec[P], pick func(T) P, apply func(T, P) T) (*Adapter[T, P], error) {
	switch {
	case kv == nil:
		return nil, errors.New("persist: kv is required")
	case key == "":
		return nil, errors.New("persist: key is required")
	case codec == nil:
		return nil, fmt.Errorf("persist: codec is required for key %q", key)
	case pick == nil || apply == nil:
		return nil, fmt.Errorf("persist: pick and apply are required for key %q", key)
	}
	return &Adapter[T, P]{kv: kv, key: key, codec: codec, pick: pick, apply: apply}, nil
}

// Key returns the storage key.
func (a *Adapter[T, P]) Key() string {
	return a.key
}

// Load reads and decodes the stored subset.
func (a *Adapter[T, P]) Load(ctx context.Context) (P, bool, error) {
	var zero P
	raw, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return zero, false, fmt.Errorf("persist: read %q: %w", a.key, err)
	}
	if !ok {
		return zero, false, nil
	}
	value, err := a.codec.Decode(a.key, raw)
	if err != nil {
		return zero, false, fmt.Errorf("persist: decode %q: %w", a.key, err)
	}
	return value, true, nil
}

// Hydrate applies the stored subset over current. ok is false when nothing
// is stored.
func (a *Adapter[T, P]) Hydrate(ctx context.Context, current T) (T, bool, error) {
	value, ok, err := a.Load(ctx)
	if err != nil || !ok {
		return current, false, err
	}
	return a.apply(current, value), true, nil
}

// Persist writes the subset picked from next. Nothing is written when the
// subset equals the one picked from prev.
func (a *Adapter[T, P]) Persist(ctx context.Context, prev, next T) error {
	value := a.pick(next)
	if reflect.DeepEqual(a.pick(prev), value) {
		return nil
	}
	return a.Save(ctx, value)
}

// Save writes value directly.
func (a *Adapter[T, P]) Save(ctx context.Context, value P) error {
	raw, err := a.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("persist: encode %q: %w", a.key, err)
	}
	if err := a.kv.Set(ctx, a.key, raw); err != nil {
		return fmt.Errorf("persist: write %q: %w", a.key, err)
	}
	return nil
}

// Clear removes the stored entry.
func (a *Adapter[T, P]) Clear(ctx context.Context) error {
	if err := a.kv.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("persist: delete %q: %w", a.key, err)
	}
	return nil
}
