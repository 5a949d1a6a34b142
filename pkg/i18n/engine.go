// Package i18n is the localization engine driven by the locale store. It
// holds flat key/template catalogs per language and renders {param}
// placeholders.
package i18n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultFallback is used when no fallback language is configured.
const DefaultFallback = "en"

// ErrInvalidLanguage is returned for codes that are not BCP 47 tags.
var ErrInvalidLanguage = errors.New("i18n: invalid language code")

// Catalog maps dotted message keys to templates.
type Catalog map[string]string

// Option configures an Engine.
type Option func(*Engine)

// WithFallback sets the language consulted when a key is missing.
func WithFallback(code string) Option {
	return func(e *Engine) {
		if tag, err := Canonical(code); err == nil {
			e.fallback = tag
		}
	}
}

// WithCatalog registers messages for code, merging into any existing catalog.
func WithCatalog(code string, catalog Catalog) Option {
	return func(e *Engine) {
		_ = e.AddCatalog(code, catalog)
	}
}

// WithBuiltins registers the bundled en and tr catalogs.
func WithBuiltins() Option {
	return func(e *Engine) {
		for code, catalog := range Builtins() {
			_ = e.AddCatalog(code, catalog)
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine resolves messages for the active language.
type Engine struct {
	mu       sync.RWMutex
	catalogs map[string]Catalog
	language string
	fallback string
	logger   *slog.Logger
}

func New(opts ...Option) *Engine {
	e := &Engine{
		catalogs: map[string]Catalog{},
		fallback: DefaultFallback,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.language = e.fallback
	return e
}

// Canonical normalizes a language code ("TR", "en_us") to its BCP 47 form.
func Canonical(code string) (string, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLanguage)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, code, err)
	}
	return tag.String(), nil
}

func base(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	b, _ := tag.Base()
	return b.String()
}

// AddCatalog merges catalog into the messages for code.
func (e *Engine) AddCatalog(code string, catalog Catalog) error {
	tag, err := Canonical(code)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	existing := e.catalogs[tag]
	if existing == nil {
		existing = Catalog{}
		e.catalogs[tag] = existing
	}
	for key, value := range catalog {
		existing[key] = value
	}
	return nil
}

// ChangeLanguage switches the active language. Codes without a catalog are
// accepted; lookups then fall back.
func (e *Engine) ChangeLanguage(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tag, err := Canonical(code)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.language = tag
	_, known := e.catalogs[tag]
	if !known {
		_, known = e.catalogs[base(tag)]
	}
	e.mu.Unlock()
	if !known {
		e.logger.Warn("no catalog for language, using fallback", "language", tag, "fallback", e.fallback)
	}
	e.logger.Debug("language changed", "language", tag)
	return nil
}

// Language returns the active language code.
func (e *Engine) Language() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.language
}

// Languages returns the codes that have catalogs.
func (e *Engine) Languages() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.catalogs))
	for code := range e.catalogs {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// T renders key in the active language. Lookup order is the exact language,
// its base language, the fallback language, and finally the key itself.
func (e *Engine) T(key string, params map[string]any) string {
	e.mu.RLock()
	template, ok := e.lookup(key)
	e.mu.RUnlock()
	if !ok {
		return Format(key, params)
	}
	return Format(template, params)
}

func (e *Engine) lookup(key string) (string, bool) {
	for _, code := range []string{e.language, base(e.language), e.fallback} {
		if catalog, ok := e.catalogs[code]; ok {
			if template, ok := catalog[key]; ok {
				return template, true
			}
		}
	}
	return "", false
}

var placeholder = regexp.MustCompile(`\{\{?\s*([A-Za-z0-9_.]+)\s*\}?\}`)

// Format replaces {name} (or {{name}}) placeholders with params. Unknown
// placeholders are left as written.
func Format(template string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(template, "{") {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		value, ok := params[name]
		if !ok {
			return match
		}
		return fmt.Sprint(value)
	})
}
