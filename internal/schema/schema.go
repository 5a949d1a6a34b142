// Package schema describes store records. It renders either a JSON Schema
// object or a flat list of dotted paths with their Go types.
package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-appstate/internal/merge"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// Field is one leaf of a record.
type Field struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
}

// Document returns a JSON Schema for value with title set to name.
func Document(name string, value any) map[string]any {
	doc := build(reflect.TypeOf(value))
	doc["$schema"] = draft
	if name != "" {
		doc["title"] = name
	}
	return doc
}

func build(t reflect.Type) map[string]any {
	if t == nil {
		return map[string]any{"type": "null"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": build(t.Elem())}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": build(t.Elem())}
	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return map[string]any{"type": "string", "format": "date-time"}
		}
		return object(t)
	default:
		return map[string]any{}
	}
}

func object(t reflect.Type) map[string]any {
	properties := map[string]any{}
	var required []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}
		name := merge.FieldName(sf)
		properties[name] = build(sf.Type)
		if sf.Type.Kind() != reflect.Pointer && !strings.Contains(sf.Tag.Get("json"), "omitempty") {
			required = append(required, name)
		}
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		sort.Strings(required)
		out["required"] = required
	}
	return out
}

// Fields flattens value into sorted dotted paths.
func Fields(value any) []Field {
	fields := walk(reflect.TypeOf(value), "")
	if fields == nil {
		return []Field{}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func walk(t reflect.Type, prefix string) []Field {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == reflect.TypeOf(time.Time{}) {
		if prefix == "" {
			return nil
		}
		return []Field{{Path: prefix, Type: typeName(t)}}
	}
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}
		fields = append(fields, walk(sf.Type, join(prefix, merge.FieldName(sf)))...)
	}
	return fields
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Slice:
		return "[]" + typeName(t.Elem())
	case reflect.Map:
		return fmt.Sprintf("map[%s]%s", typeName(t.Key()), typeName(t.Elem()))
	}
	if t == reflect.TypeOf(time.Time{}) {
		return "time"
	}
	return t.Kind().String()
}

func join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
