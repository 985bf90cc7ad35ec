// Package envcompose implements envoy's EnvComposer: the central merge
// engine that consumes an ordered list of parsed env files plus a base
// map and produces the final environment map.
package envcompose

import (
	"os"
	"path/filepath"

	"github.com/gtvfx-contrib/envoy/internal/envfile"
	"github.com/gtvfx-contrib/envoy/internal/envvalue"
	"github.com/gtvfx-contrib/envoy/internal/expand"
)

// bundleEnvDirName is the ancestor directory name EnvComposer walks up to
// find when computing per-file special variables.
const bundleEnvDirName = "envoy_env"

// HostEnvLookup reads one variable from the host process environment. It
// exists so the composer's allowlist pre-pass stays a pure, mockable
// function of its inputs: the host environment is read, never written,
// and is passed in as an explicit collaborator rather than read directly
// from os.Environ inside the merge loop.
type HostEnvLookup func(name string) (value string, ok bool)

// Composer merges parsed env files into a single environment map.
type Composer struct {
	// Separator is the target runtime's path-list separator, used to
	// join list values and to glue APPEND/PREPEND operands to the
	// current value.
	Separator string

	// HostEnv is consulted only during the allowlist pre-pass. Defaults
	// to os.LookupEnv when nil.
	HostEnv HostEnvLookup
}

// New returns a Composer configured for sep, defaulting HostEnv to
// os.LookupEnv.
func New(sep string) *Composer {
	return &Composer{Separator: sep, HostEnv: os.LookupEnv}
}

// Compose applies files, in order, on top of base and returns the
// resulting environment map. base is never mutated. Compose is a pure
// function of (files, base, the host environment consulted through
// HostEnv): running it twice with the same inputs produces equal output,
// and concurrent calls against the same Composer/files/base are safe
// since each call owns a private working map.
func (c *Composer) Compose(files []*envfile.ParsedEnvFile, base map[string]string) map[string]string {
	hostEnv := c.HostEnv
	if hostEnv == nil {
		hostEnv = os.LookupEnv
	}

	m := make(map[string]string, len(base))
	for k, v := range base {
		m[k] = v
	}

	// Pre-pass: allowlist seeding runs before any entry is processed, in
	// file declaration order, so a later file's allowlist is visible to
	// +=/^= operators in an earlier file.
	for _, f := range files {
		for _, name := range f.Allowlist {
			if _, present := m[name]; present {
				continue
			}
			if v, ok := hostEnv(name); ok {
				m[name] = v
			}
		}
	}

	// Main pass: files strictly in input order, entries within a file in
	// parser-emitted order.
	for _, f := range files {
		special := SpecialVars(f.Path)
		lookup := expand.ChainLookup(special, m)

		for _, e := range f.Entries {
			v := envvalue.Process(e.Raw, c.Separator, lookup)

			switch e.Op {
			case envfile.OpDefault:
				if _, present := m[e.Name]; !present {
					m[e.Name] = v
				}
			case envfile.OpAppend:
				if cur, ok := m[e.Name]; ok && cur != "" {
					m[e.Name] = cur + c.Separator + v
				} else {
					m[e.Name] = v
				}
			case envfile.OpPrepend:
				if cur, ok := m[e.Name]; ok && cur != "" {
					m[e.Name] = v + c.Separator + cur
				} else {
					m[e.Name] = v
				}
			default: // envfile.OpAssign
				m[e.Name] = v
			}
		}
	}

	return m
}

// SpecialVars computes the four bundle-local special variables visible
// only inside ${…} expansion for entries belonging to the file at path.
// It walks path's ancestors looking for a directory named "envoy_env";
// that directory becomes __BUNDLE_ENV__ and its parent __BUNDLE__. If no
// such ancestor exists, both fall back to the file's own parent
// directory.
func SpecialVars(path string) map[string]string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	dir := filepath.Dir(abs)
	bundleEnv := dir
	bundle := dir

	for {
		if filepath.Base(dir) == bundleEnvDirName {
			bundleEnv = dir
			bundle = filepath.Dir(dir)
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding an
			// envoy_env ancestor; fall back to the file's own
			// parent directory.
			break
		}
		dir = parent
	}

	return map[string]string{
		"__FILE__":        filepath.ToSlash(abs),
		"__BUNDLE__":      filepath.ToSlash(bundle),
		"__BUNDLE_ENV__":  filepath.ToSlash(bundleEnv),
		"__BUNDLE_NAME__": filepath.Base(bundle),
	}
}
