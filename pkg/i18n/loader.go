package i18n

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ParseTOML reads a TOML document into a flat catalog. Tables become dotted
// key prefixes.
func ParseTOML(r io.Reader) (Catalog, error) {
	var raw map[string]any
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("i18n: parse toml: %w", err)
	}
	return flatten(raw), nil
}

// ParseYAML reads a YAML document into a flat catalog. Mappings become dotted
// key prefixes.
func ParseYAML(r io.Reader) (Catalog, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return Catalog{}, nil
		}
		return nil, fmt.Errorf("i18n: parse yaml: %w", err)
	}
	return flatten(raw), nil
}

// LoadFile adds the catalog at path. The language is the file name without
// extension, e.g. "tr.yaml" or "en-US.toml".
func (e *Engine) LoadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	code := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("i18n: open %q: %w", path, err)
	}
	defer f.Close()

	var catalog Catalog
	switch ext {
	case ".toml":
		catalog, err = ParseTOML(f)
	case ".yaml", ".yml":
		catalog, err = ParseYAML(f)
	default:
		return fmt.Errorf("i18n: unsupported catalog format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("i18n: load %q: %w", path, err)
	}
	if err := e.AddCatalog(code, catalog); err != nil {
		return fmt.Errorf("i18n: load %q: %w", path, err)
	}
	e.logger.Debug("catalog loaded", "path", path, "language", code, "keys", len(catalog))
	return nil
}

// LoadDir loads every .toml, .yaml and .yml file in dir, in name order.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("i18n: read dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".toml", ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.LoadFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func flatten(raw map[string]any) Catalog {
	out := Catalog{}
	flattenInto(out, "", raw)
	return out
}

func flattenInto(out Catalog, prefix string, value any) {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			flattenInto(out, join(prefix, key), child)
		}
	case map[any]any:
		for key, child := range typed {
			flattenInto(out, join(prefix, fmt.Sprint(key)), child)
		}
	case nil:
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprint(typed)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
