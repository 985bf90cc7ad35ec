// Package expand implements envoy's variable-reference syntax: pure string
// substitution of ${NAME} (canonical) and {$NAME} (legacy) forms against an
// ordered chain of name->value lookups. It never consults the host process
// environment; values only enter scope through the lookups a caller passes
// in.
package expand

import "regexp"

// refPattern recognises both the canonical ${NAME} and legacy {$NAME}
// forms in a single pass. Exactly one of the two capture groups is
// non-empty for any match.
var refPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\{\$([A-Za-z_][A-Za-z0-9_]*)\}`)

// Lookup resolves a variable name to a value. Ok is false when the name is
// unresolved, in which case the reference expands to the empty string.
type Lookup func(name string) (value string, ok bool)

// ChainLookup builds a Lookup that consults each given map in order,
// returning the first hit. Use it to give special variables precedence
// over the in-progress environment map, per spec: special variables first,
// then the map being built.
func ChainLookup(maps ...map[string]string) Lookup {
	return func(name string) (string, bool) {
		for _, m := range maps {
			if m == nil {
				continue
			}
			if v, ok := m[name]; ok {
				return v, true
			}
		}
		return "", false
	}
}

// Expand substitutes every ${NAME}/{$NAME} reference in s using lookup.
// Replacement is single-pass: the output is never re-scanned for further
// references, so expanded text containing literal "${" sequences is never
// re-expanded.
func Expand(s string, lookup Lookup) string {
	return refPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := refPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if v, ok := lookup(name); ok {
			return v
		}
		return ""
	})
}
