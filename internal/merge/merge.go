// Package merge holds the reflective helpers the store uses to apply partial
// updates and to detach committed snapshots from caller-owned memory.
package merge

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Overlay applies patch on top of base. Nil pointers, maps, slices and
// interfaces in patch are treated as "not mentioned" and keep the base value;
// every other field in patch overwrites base. Maps are merged key by key.
func Overlay[T any](base, patch T) T {
	merged := overlayValue(reflect.ValueOf(&patch).Elem(), reflect.ValueOf(&base).Elem())
	if !merged.IsValid() {
		var zero T
		return zero
	}
	out := reflect.New(reflect.TypeOf(&base).Elem()).Elem()
	out.Set(merged)
	return out.Interface().(T)
}

// Clone returns a deep copy of value. Unexported struct fields are copied
// as they are (shallowly), so values such as time.Time survive intact.
func Clone[T any](value T) T {
	src := reflect.ValueOf(&value).Elem()
	out := reflect.New(src.Type()).Elem()
	if copied := cloneValue(src); copied.IsValid() {
		out.Set(copied)
	}
	return out.Interface().(T)
}

func overlayValue(patch, base reflect.Value) reflect.Value {
	if !patch.IsValid() {
		return cloneValue(base)
	}

	switch patch.Kind() {
	case reflect.Pointer:
		if patch.IsNil() {
			return cloneValue(base)
		}
		var baseElem reflect.Value
		if base.IsValid() && base.Kind() == reflect.Pointer && !base.IsNil() {
			baseElem = base.Elem()
		}
		result := reflect.New(patch.Type().Elem())
		result.Elem().Set(overlayValue(patch.Elem(), baseElem))
		return result
	case reflect.Interface:
		if patch.IsNil() {
			return cloneValue(base)
		}
		var baseElem reflect.Value
		if base.IsValid() && !base.IsNil() {
			baseElem = base.Elem()
		}
		return overlayValue(patch.Elem(), baseElem).Convert(patch.Type())
	case reflect.Struct:
		// unexported fields come from patch as they are
		result := reflect.New(patch.Type()).Elem()
		result.Set(patch)
		sameType := base.IsValid() && base.Type() == patch.Type()
		for i := 0; i < patch.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			var baseField reflect.Value
			if sameType {
				baseField = base.Field(i)
			}
			field.Set(overlayValue(patch.Field(i), baseField))
		}
		return result
	case reflect.Map:
		if patch.IsNil() {
			return cloneValue(base)
		}
		result := reflect.MakeMapWithSize(patch.Type(), patch.Len())
		if base.IsValid() && base.Kind() == reflect.Map && !base.IsNil() {
			iter := base.MapRange()
			for iter.Next() {
				result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := patch.MapRange()
		for iter.Next() {
			if existing := result.MapIndex(iter.Key()); existing.IsValid() {
				result.SetMapIndex(iter.Key(), overlayValue(iter.Value(), existing))
				continue
			}
			result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return result
	case reflect.Slice:
		if patch.IsNil() {
			return cloneValue(base)
		}
		return cloneValue(patch)
	default:
		return cloneValue(patch)
	}
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if field := clone.Field(i); field.CanSet() {
				field.Set(cloneValue(v.Field(i)))
			}
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}

// Changed lists the top-level struct fields that differ between prev and
// next, using the json tag name when one is present. Non-struct values yield
// nil.
func Changed[T any](prev, next T) []string {
	pv := reflect.ValueOf(&prev).Elem()
	nv := reflect.ValueOf(&next).Elem()
	if pv.Kind() != reflect.Struct {
		return nil
	}
	var fields []string
	for i := 0; i < pv.NumField(); i++ {
		sf := pv.Type().Field(i)
		if !sf.IsExported() {
			continue
		}
		if reflect.DeepEqual(pv.Field(i).Interface(), nv.Field(i).Interface()) {
			continue
		}
		fields = append(fields, FieldName(sf))
	}
	sort.Strings(fields)
	return fields
}

// FieldName returns the json name of a struct field, falling back to the Go
// field name.
func FieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" || tag == "-" {
		return sf.Name
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return sf.Name
}

// Fields flattens the exported top-level fields of a struct into a map keyed
// by json name. Pointer fields are dereferenced; nil pointers map to nil.
func Fields(value any) map[string]any {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]any{}
		}
		v = v.Elem()
	}
	out := map[string]any{}
	if v.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < v.NumField(); i++ {
		sf := v.Type().Field(i)
		if !sf.IsExported() {
			continue
		}
		field := v.Field(i)
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				out[FieldName(sf)] = nil
				continue
			}
			field = field.Elem()
		}
		if field.Kind() == reflect.Struct && field.Type() != timeType {
			out[FieldName(sf)] = Fields(field.Interface())
			continue
		}
		out[FieldName(sf)] = plain(field)
	}
	return out
}

// plain converts named scalar types (type Mode string) to their builtin kind
// so rule engines see ordinary strings, bools and numbers.
func plain(v reflect.Value) any {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return v.Interface()
	}
}
