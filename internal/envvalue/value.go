// Package envvalue implements envoy's ValueProcessor: coercion of a raw
// JSON value (string, list, or scalar) into a single string, followed by
// variable expansion.
package envvalue

import (
	"fmt"
	"strings"

	"github.com/gtvfx-contrib/envoy/internal/expand"
)

// Process coerces raw into a single string and expands ${NAME}/{$NAME}
// references in it using lookup.
//
//   - []interface{} (JSON array): each element is stringified, then joined
//     with sep (the target runtime's path-list separator). Forward slashes
//     inside path elements are left untouched; neither this package nor
//     internal/launch converts them.
//   - string: used verbatim.
//   - any other scalar (bool, float64, nil, ...): stringified with the
//     obvious conversion.
func Process(raw interface{}, sep string, lookup expand.Lookup) string {
	return expand.Expand(Stringify(raw, sep), lookup)
}

// Stringify coerces raw into a single string without expansion, applying
// the same list-join/scalar-conversion rules as Process.
func Stringify(raw interface{}, sep string) string {
	switch v := raw.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = scalarString(elem)
		}
		return strings.Join(parts, sep)
	case []string:
		return strings.Join(v, sep)
	default:
		return scalarString(v)
	}
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode to float64; print integers without a
		// trailing ".0".
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
