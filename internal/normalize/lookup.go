// Package normalize turns loosely typed upstream JSON into fixed records.
//
// Upstream deployments disagree on key casing (snake_case, camelCase, PascalCase)
// and on a few historical field names. Every field therefore has an ordered list
// of accepted spellings; the first key present in the object wins and a missing
// field yields the zero value. Nothing in this package returns an error.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// spellings expands each snake_case name into its snake, camel and Pascal
// forms (plus Go-style ID/URL initialisms), keeping the order names were given.
func spellings(names ...string) []string {
	out := make([]string, 0, len(names)*5)
	seen := map[string]struct{}{}
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for _, n := range names {
		add(n)
		add(camel(n, false, false))
		add(camel(n, true, false))
		add(camel(n, false, true))
		add(camel(n, true, true))
	}
	return out
}

func camel(snake string, upperFirst, initialisms bool) string {
	var b strings.Builder
	for i, p := range strings.Split(snake, "_") {
		if p == "" {
			continue
		}
		if i == 0 && !upperFirst {
			b.WriteString(p)
			continue
		}
		if initialisms && (p == "id" || p == "url") {
			b.WriteString(strings.ToUpper(p))
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

// Object returns v as a JSON object, or nil.
func Object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func lookup(m map[string]any, keys []string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func str(m map[string]any, keys []string) string {
	v, ok := lookup(m, keys)
	if !ok {
		return ""
	}
	return String(v)
}

func integer(m map[string]any, keys []string) int {
	v, ok := lookup(m, keys)
	if !ok {
		return 0
	}
	return Int(v)
}

func boolean(m map[string]any, keys []string) bool {
	v, ok := lookup(m, keys)
	if !ok {
		return false
	}
	return Bool(v)
}

// String converts a scalar JSON value to a string. Numeric ids keep their
// integer form.
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// Int converts a scalar JSON value to an int, truncating fractions.
func Int(v any) int {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			return int(t)
		}
	case int:
		return t
	case int64:
		return int(t)
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	case bool:
		if t {
			return 1
		}
	}
	return 0
}

// Bool accepts real booleans, numeric 0/1 and the strings "true"/"false"/"1"/"0".
func Bool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1":
			return true
		}
	}
	return false
}

var (
	listKeys  = spellings("list", "items", "records")
	totalKeys = spellings("total", "count")
)

// Items returns the elements of a bare array or of an object wrapping one
// under a list key, together with the reported total (or the length when the
// total is absent).
func Items(v any) ([]any, int) {
	switch t := v.(type) {
	case []any:
		return t, len(t)
	case map[string]any:
		raw, _ := lookup(t, listKeys)
		items, _ := raw.([]any)
		total := len(items)
		if n, ok := lookup(t, totalKeys); ok {
			total = Int(n)
		}
		return items, total
	}
	return nil, 0
}

// Strings converts a JSON array of scalars to strings, skipping empty ones.
func Strings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := String(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
