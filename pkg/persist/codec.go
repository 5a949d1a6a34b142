package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-appstate/internal/hydrate"
)

// Codec converts the persisted subset P to and from its stored string.
type Codec[P any] interface {
	Encode(P) (string, error)
	Decode(key, raw string) (P, error)
}

// JSONOption configures a JSONCodec.
type JSONOption[P any] func(*jsonConfig[P])

type jsonConfig[P any] struct {
	decoderOpts []hydrate.DecoderOption[P]
}

// JSONVersion sets the envelope version written on Encode.
func JSONVersion[P any](version int) JSONOption[P] {
	return func(c *jsonConfig[P]) {
		c.decoderOpts = append(c.decoderOpts, hydrate.WithVersion[P](version))
	}
}

// JSONMigration upgrades payloads stored with version from.
func JSONMigration[P any](from int, migrate func(map[string]any) (map[string]any, error)) JSONOption[P] {
	return func(c *jsonConfig[P]) {
		if migrate == nil {
			return
		}
		c.decoderOpts = append(c.decoderOpts, hydrate.WithMigration[P](from, func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
			return migrate(payload)
		}))
	}
}

// JSONValidate rejects decoded snapshots for which validate returns an error.
func JSONValidate[P any](validate func(*P) error) JSONOption[P] {
	return func(c *jsonConfig[P]) {
		if validate == nil {
			return
		}
		c.decoderOpts = append(c.decoderOpts, hydrate.WithPostHook[P](func(_ hydrate.Context, value *P) error {
			return validate(value)
		}))
	}
}

// JSONStrict rejects unknown fields inside the envelope state.
func JSONStrict[P any]() JSONOption[P] {
	return func(c *jsonConfig[P]) {
		c.decoderOpts = append(c.decoderOpts, hydrate.WithDisallowUnknownFields[P]())
	}
}

// JSONCodec stores P inside a versioned envelope.
type JSONCodec[P any] struct {
	decoder *hydrate.Decoder[P]
}

// NewJSONCodec builds a JSONCodec.
func NewJSONCodec[P any](opts ...JSONOption[P]) JSONCodec[P] {
	cfg := jsonConfig[P]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return JSONCodec[P]{decoder: hydrate.NewDecoder(cfg.decoderOpts...)}
}

func (c JSONCodec[P]) Encode(value P) (string, error) {
	return c.dec().EncodeEnvelope(value)
}

func (c JSONCodec[P]) Decode(key, raw string) (P, error) {
	return c.dec().DecodeEnvelope(key, raw)
}

func (c JSONCodec[P]) dec() *hydrate.Decoder[P] {
	if c.decoder == nil {
		return hydrate.NewDecoder[P]()
	}
	return c.decoder
}

// BoolCodec stores a bool as the literal "true" or "false".
type BoolCodec struct{}

func (BoolCodec) Encode(value bool) (string, error) {
	return strconv.FormatBool(value), nil
}

func (BoolCodec) Decode(key, raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("persist: key %q holds %q, want \"true\" or \"false\"", key, raw)
	}
}
