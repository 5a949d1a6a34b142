package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the persisted entry being decoded.
type Context struct {
	Key     string
	Version int
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder turns persisted envelopes into typed snapshots.
type Decoder[T any] struct {
	version      int
	migrations   map[int]PreHook
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
}

// Envelope is the stored wrapper around a persisted subset.
type Envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// WithVersion sets the version written by the current code. Payloads with an
// older version pass through the registered migrations first.
func WithVersion[T any](version int) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.version = version
	}
}

// WithMigration registers hook to upgrade a payload from version from to
// from+1.
func WithMigration[T any](from int, hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook == nil {
			return
		}
		if d.migrations == nil {
			d.migrations = map[int]PreHook{}
		}
		d.migrations[from] = hook
	}
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields invokes json.Decoder.DisallowUnknownFields.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Version returns the version new envelopes are written with.
func (d *Decoder[T]) Version() int {
	return d.version
}

// DecodeEnvelope parses raw as an Envelope and decodes its state.
func (d *Decoder[T]) DecodeEnvelope(key, raw string) (T, error) {
	var zero T
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return zero, fmt.Errorf("hydrate: envelope for key %q: %w", key, err)
	}
	if len(env.State) == 0 || bytes.Equal(env.State, []byte("null")) {
		return zero, fmt.Errorf("hydrate: envelope for key %q has no state", key)
	}
	var payload map[string]any
	if err := json.Unmarshal(env.State, &payload); err != nil {
		return zero, fmt.Errorf("hydrate: state for key %q: %w", key, err)
	}
	return d.Decode(Context{Key: key, Version: env.Version}, payload)
}

// EncodeEnvelope wraps value in an Envelope stamped with the decoder version.
func (d *Decoder[T]) EncodeEnvelope(value T) (string, error) {
	state, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("hydrate: marshal state: %w", err)
	}
	out, err := json.Marshal(Envelope{State: state, Version: d.version})
	if err != nil {
		return "", fmt.Errorf("hydrate: marshal envelope: %w", err)
	}
	return string(out), nil
}

// Decode converts payload into T, running migrations, pre-hooks, JSON decoding
// and post-hooks in that order.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for key %q", ctx.Key)
	}
	if ctx.Version > d.version {
		return zero, fmt.Errorf("hydrate: key %q has version %d, newer than supported %d", ctx.Key, ctx.Version, d.version)
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: clone payload for key %q: %w", ctx.Key, err)
	}

	for v := ctx.Version; v < d.version; v++ {
		migrate, ok := d.migrations[v]
		if !ok {
			continue
		}
		next, err := migrate(Context{Key: ctx.Key, Version: v}, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: migrate key %q from version %d: %w", ctx.Key, v, err)
		}
		if next != nil {
			current = next
		}
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for key %q failed: %w", ctx.Key, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal payload for key %q: %w", ctx.Key, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configureDec {
		if configure != nil {
			configure(decoder)
		}
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode key %q: %w", ctx.Key, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for key %q failed: %w", ctx.Key, err)
		}
	}

	return result, nil
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
