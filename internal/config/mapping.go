package config

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
)

// Mapping is a nested key/value store addressed by dot-delimited paths.
// Nested tables are always stored as map[string]any.
type Mapping map[string]any

// Get returns the value stored at path.
func (m Mapping) Get(path string) (any, bool) {
	var current any = map[string]any(m)
	for _, part := range strings.Split(path, ".") {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = table[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores value at path, creating intermediate tables as needed. A
// non-table value found on the way is replaced by a table.
func (m Mapping) Set(path string, value any) {
	parts := strings.Split(path, ".")
	table := map[string]any(m)
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			table[part] = next
		}
		table = next
	}
	table[parts[len(parts)-1]] = normalize(value)
}

// Has reports whether a value exists at path.
func (m Mapping) Has(path string) bool {
	_, ok := m.Get(path)
	return ok
}

// Bool interprets the value at path as a flag. Missing keys and values that
// are not flags are false.
func (m Mapping) Bool(path string) bool {
	v, ok := m.Get(path)
	if !ok {
		return false
	}
	b, _ := parseBool(v)
	return b
}

// parseBool accepts booleans, numbers and the strings 1/0, true/false,
// yes/no and on/off.
func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off", "":
			return false, true
		}
	case int:
		return b != 0, true
	case int64:
		return b != 0, true
	case float64:
		return b != 0, true
	}
	return false, false
}

// Merge deep-merges src into m. Values in src win for overlapping keys;
// tables present on both sides are merged key by key.
func (m Mapping) Merge(src Mapping) error {
	dst := map[string]any(m)
	layer, _ := normalize(src).(map[string]any)
	if err := mergo.Merge(&dst, layer, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge configuration: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	return Mapping(clone(map[string]any(m)).(map[string]any))
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = clone(val)
		}
		return out
	default:
		return v
	}
}

// normalize converts decoder-specific table types into map[string]any so
// every layer merges against the same shape.
func normalize(v any) any {
	switch t := v.(type) {
	case Mapping:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return v
	}
}
