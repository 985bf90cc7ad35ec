// Package seedbuilder implements envoy's SeedBuilder: producing the
// initial base map handed to EnvComposer, in either closed (allowlist
// intersection) or inherited (full host copy) mode.
package seedbuilder

import (
	"os"
	"strings"
)

// Mode selects how the base map is seeded.
type Mode int

const (
	// ModeClosed seeds only the intersection of the host environment
	// with the core allowlist, envoy's own allowlist, and any
	// caller-supplied extra allowlist. This is the default mode.
	ModeClosed Mode = iota
	// ModeInherited seeds a full copy of the host environment.
	ModeInherited
)

// CoreAllowlist is the built-in core set: user identity, home
// directories, temp directories, platform system directories, processor
// identity, console/terminal variables, locale variables, and XDG base
// directories, plus PATH so a spawned DCC tool can still locate the
// system binaries it shells out to.
var CoreAllowlist = []string{
	// User identity
	"USER", "LOGNAME", "USERNAME",
	// Home / profile directories
	"HOME", "USERPROFILE", "HOMEDRIVE", "HOMEPATH",
	// Temp directories
	"TMPDIR", "TEMP", "TMP",
	// Platform system directories
	"SystemRoot", "windir", "ProgramFiles", "ProgramFiles(x86)", "ProgramData", "ComSpec",
	"PATH",
	// Processor identity
	"PROCESSOR_ARCHITECTURE", "PROCESSOR_IDENTIFIER", "NUMBER_OF_PROCESSORS",
	// Console / terminal
	"TERM", "COLORTERM", "SHELL",
	// Locale
	"LANG", "LC_ALL", "LC_CTYPE", "LANGUAGE",
	// XDG base directories
	"XDG_CONFIG_HOME", "XDG_CACHE_HOME", "XDG_DATA_HOME", "XDG_RUNTIME_DIR",
}

// EnvoyOwnAllowlist covers the variables envoy itself reads for discovery
// and allowlist configuration. They are part of the closed-mode seed so
// bundles that shell out to envoy recursively (or that introspect their
// own invocation) still see them.
var EnvoyOwnAllowlist = []string{
	"ENVOY_ROOTS",
	"ENVOY_ALLOWLIST",
	"ENVOY_COMMANDS_FILE",
	"ENVOY_CONFIG_DIR",
}

// HostEnviron returns the host process environment as "KEY=VALUE"
// strings. It exists as an explicit collaborator — rather than reading
// os.Environ() inline — so SeedBuilder stays mockable in tests, matching
// the "host environment as immutable external resource" design note.
type HostEnviron func() []string

// Builder produces the base map EnvComposer merges files on top of.
type Builder struct {
	Mode Mode

	// ExtraAllowlist is the caller-supplied extra allowlist, added to
	// the core and envoy-own sets in closed mode. Ignored in inherited
	// mode.
	ExtraAllowlist []string

	// Environ returns the host environment. Defaults to os.Environ via
	// New.
	Environ HostEnviron
}

// New returns a Builder for mode, defaulting Environ to os.Environ.
func New(mode Mode, extraAllowlist []string, environ HostEnviron) *Builder {
	if environ == nil {
		environ = os.Environ
	}
	return &Builder{Mode: mode, ExtraAllowlist: extraAllowlist, Environ: environ}
}

// Build returns the seed map: a full host copy in inherited mode, or the
// host-environment intersection with the effective allowlist in closed
// mode. A variable is seeded only if present in the host environment.
func (b *Builder) Build() map[string]string {
	hostPairs := b.Environ()

	if b.Mode == ModeInherited {
		m := make(map[string]string, len(hostPairs))
		for _, kv := range hostPairs {
			k, v, ok := splitPair(kv)
			if ok {
				m[k] = v
			}
		}
		return m
	}

	allow := make(map[string]bool, len(CoreAllowlist)+len(EnvoyOwnAllowlist)+len(b.ExtraAllowlist))
	for _, n := range CoreAllowlist {
		allow[n] = true
	}
	for _, n := range EnvoyOwnAllowlist {
		allow[n] = true
	}
	for _, n := range b.ExtraAllowlist {
		allow[n] = true
	}

	m := make(map[string]string, len(allow))
	for _, kv := range hostPairs {
		k, v, ok := splitPair(kv)
		if !ok || !allow[k] {
			continue
		}
		m[k] = v
	}
	return m
}

func splitPair(kv string) (key, value string, ok bool) {
	idx := strings.IndexByte(kv, '=')
	if idx < 0 {
		return "", "", false
	}
	return kv[:idx], kv[idx+1:], true
}
