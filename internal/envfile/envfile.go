// Package envfile implements envoy's EnvFileParser: turning one environment
// JSON file into an ordered sequence of (operator, variable name, raw
// value) entries. Three top-level shapes are accepted: a flat object, a
// pair array, and a structured object carrying "environment" /
// "environment_allowlist".
package envfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/gtvfx-contrib/envoy/internal/envoyerr"
	"github.com/gtvfx-contrib/envoy/internal/logger"
)

// Op is one of the four merge operators a key prefix selects.
type Op int

const (
	// OpAssign is the bare (unprefixed) form: unconditional replacement.
	OpAssign Op = iota
	// OpAppend is "+=NAME": current value, separator, then new value.
	OpAppend
	// OpPrepend is "^=NAME": new value, separator, then current value.
	OpPrepend
	// OpDefault is "?=NAME": assign only if NAME is not already set.
	OpDefault
)

func (o Op) String() string {
	switch o {
	case OpAppend:
		return "+="
	case OpPrepend:
		return "^="
	case OpDefault:
		return "?="
	default:
		return ""
	}
}

// EnvEntry is one assignment inside a parsed file, in declaration order.
// Raw holds the decoded-but-unprocessed JSON value: a string, a
// []interface{}, or any other JSON scalar.
type EnvEntry struct {
	Op   Op
	Name string
	Raw  interface{}
}

// ParsedEnvFile is one env JSON file, parsed. It is immutable once built.
type ParsedEnvFile struct {
	Path      string
	Entries   []EnvEntry
	Allowlist []string
}

// identPattern matches the identifier grammar shared by variable names:
// a leading letter or underscore followed by letters, digits, underscores.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse reads one environment JSON document and returns its ordered entry
// list. path is recorded on the result and used in error messages; it is
// not re-read from disk here — callers read the file themselves and pass
// the bytes in.
func Parse(path string, data []byte) (*ParsedEnvFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "empty document"}
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "malformed JSON"}
	}

	switch trimmed[0] {
	case '[':
		entries, err := parsePairArray(trimmed)
		if err != nil {
			return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "malformed pair array", Cause: err}
		}
		return &ParsedEnvFile{Path: path, Entries: entries}, nil

	case '{':
		keys, err := orderedObjectKeys(trimmed)
		if err != nil {
			return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "malformed JSON object", Cause: err}
		}
		hasEnvironment := gjson.GetBytes(trimmed, "environment").Exists()
		if !hasEnvironment {
			entries, err := entriesFromKV(keys)
			if err != nil {
				return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "malformed entry", Cause: err}
			}
			return &ParsedEnvFile{Path: path, Entries: entries}, nil
		}
		return parseStructured(path, keys)

	default:
		return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "top-level value is neither an object nor an array"}
	}
}

// parseStructured handles the structured-object shape: "environment" plus
// optional "environment_allowlist"; unknown keys are ignored with a
// logged warning.
func parseStructured(path string, keys []kv) (*ParsedEnvFile, error) {
	pf := &ParsedEnvFile{Path: path}

	for _, k := range keys {
		switch k.Key {
		case "environment":
			envTrimmed := bytes.TrimSpace(k.Raw)
			var entries []EnvEntry
			var err error
			if len(envTrimmed) > 0 && envTrimmed[0] == '[' {
				entries, err = parsePairArray(envTrimmed)
			} else if len(envTrimmed) > 0 && envTrimmed[0] == '{' {
				var objKeys []kv
				objKeys, err = orderedObjectKeys(envTrimmed)
				if err == nil {
					entries, err = entriesFromKV(objKeys)
				}
			} else {
				err = fmt.Errorf("\"environment\" must be an object or array")
			}
			if err != nil {
				return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "malformed \"environment\" value", Cause: err}
			}
			pf.Entries = entries

		case "environment_allowlist":
			var list []string
			if err := json.Unmarshal(k.Raw, &list); err != nil {
				return nil, &envoyerr.InvalidEnvFileError{Path: path, Reason: "malformed \"environment_allowlist\" value", Cause: err}
			}
			pf.Allowlist = list

		default:
			logger.Warn("envfile: %s: ignoring unknown top-level key %q", path, k.Key)
		}
	}

	return pf, nil
}

// entriesFromKV converts an ordered list of object keys/raw-values into
// EnvEntry values, splitting operator prefixes off each key.
func entriesFromKV(keys []kv) ([]EnvEntry, error) {
	entries := make([]EnvEntry, 0, len(keys))
	for _, k := range keys {
		op, name, err := splitOperator(k.Key)
		if err != nil {
			return nil, err
		}
		var raw interface{}
		if err := json.Unmarshal(k.Raw, &raw); err != nil {
			return nil, fmt.Errorf("value for %q: %w", k.Key, err)
		}
		entries = append(entries, EnvEntry{Op: op, Name: name, Raw: raw})
	}
	return entries, nil
}

// parsePairArray handles the pair-array shape: a top-level JSON array
// whose elements are two-element [key, value] arrays.
func parsePairArray(data []byte) ([]EnvEntry, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make([]EnvEntry, 0, len(raw))
	for i, elemRaw := range raw {
		var pair []json.RawMessage
		if err := json.Unmarshal(elemRaw, &pair); err != nil {
			return nil, fmt.Errorf("element %d: not an array: %w", i, err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("element %d: expected a 2-element [key, value] array, got %d elements", i, len(pair))
		}
		var key string
		if err := json.Unmarshal(pair[0], &key); err != nil {
			return nil, fmt.Errorf("element %d: key is not a string: %w", i, err)
		}
		op, name, err := splitOperator(key)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		var value interface{}
		if err := json.Unmarshal(pair[1], &value); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		entries = append(entries, EnvEntry{Op: op, Name: name, Raw: value})
	}
	return entries, nil
}

// splitOperator separates the operator prefix (if any) from a key and
// validates that the remainder is a legal identifier.
func splitOperator(key string) (Op, string, error) {
	op := OpAssign
	name := key
	if len(key) >= 2 {
		switch key[:2] {
		case "?=":
			op, name = OpDefault, key[2:]
		case "+=":
			op, name = OpAppend, key[2:]
		case "^=":
			op, name = OpPrepend, key[2:]
		}
	}
	if !identPattern.MatchString(name) {
		return op, name, fmt.Errorf("invalid variable name %q", name)
	}
	return op, name, nil
}

// kv is one key and its still-encoded JSON value, in source order.
type kv struct {
	Key string
	Raw json.RawMessage
}

// orderedObjectKeys walks a top-level JSON object token-by-token to
// recover the source order of its keys, which encoding/json's map
// decoding does not preserve. Required so EnvComposer can honor "entries
// within a file are processed in the order the parser emitted them."
func orderedObjectKeys(data []byte) ([]kv, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []kv
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		out = append(out, kv{Key: key, Raw: raw})
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}
