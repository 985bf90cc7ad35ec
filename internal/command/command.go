// Package command implements envoy's CommandRegistry and reference
// resolver: mapping command names to CommandDefinition records and
// recursively resolving environment-list references into an ordered file
// chain.
package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/gtvfx-contrib/envoy/internal/envoyerr"
	"github.com/gtvfx-contrib/envoy/internal/logger"
)

// globalEnvFileName is the per-bundle file always prepended ahead of a
// resolved command's own file chain in multi-bundle mode.
const globalEnvFileName = "global_env.json"

// commandsFileName is the conventional name of a bundle's command
// registry file.
const commandsFileName = "commands.json"

// CommandDefinition is one command entry: an executable (or alias chain)
// plus an ordered list of environment references.
type CommandDefinition struct {
	Name string

	// Environment is the ordered list of references: entries whose
	// basename contains a dot are file names, entries without a dot
	// are references to another command's Environment list.
	Environment []string

	// Alias is the optional executable + base-args chain. Alias[0] is
	// the executable; Alias[1:] are base arguments prepended to
	// caller-supplied arguments. When empty, the command's own Name is
	// the executable.
	Alias []string

	// Description is a one-line human-readable summary printed by the info
	// subcommand. It is never consulted by resolution logic.
	Description string

	// BundleID is the originating bundle id ("<namespace>:<name>"), or
	// empty in single-file mode.
	BundleID string

	// EnvDir is the directory this definition's file references resolve
	// against. A reference spliced in from another command carries its
	// own originally-declaring EnvDir, not the splicing command's.
	EnvDir string
}

// Bundle is a discovered bundle: a directory with an envoy_env/
// subdirectory containing commands.json and environment JSON files.
// Bundle is a data-only type; filesystem discovery that builds it lives
// outside this package.
type Bundle struct {
	Path      string
	Name      string
	Namespace string

	// Checkout is a reserved production-bundle version sentinel. It is
	// stored and surfaced but no resolver logic depends on it today.
	Checkout string

	// EnvFiles indexes this bundle's env-file basenames (including
	// "commands.json" and "global_env.json") to their absolute paths.
	EnvFiles map[string]string
}

// BndlID returns the bundle's "<namespace>:<name>" identifier.
func (b *Bundle) BndlID() string {
	return b.Namespace + ":" + b.Name
}

// ResolvedEnvRef is one entry in a resolved reference chain: a file name
// paired with the env_dir it should be resolved against.
type ResolvedEnvRef struct {
	FileName string
	EnvDir   string
	BundleID string
}

// Registry is a read-only, built-once collection of command definitions.
// Once built it supports concurrent Resolve/Describe calls: Resolve is a
// pure function of the registry's contents, so two resolutions of the
// same name always produce the same reference chain.
type Registry struct {
	commands map[string]*CommandDefinition
	origin   map[string]string
	bundles  []*Bundle

	// Diagnostics accumulates non-fatal warnings from loading (skipped
	// invalid command entries, cross-bundle overrides) as a combined
	// multierr.Error. It is nil when there was no such warning. Loading itself
	// never fails because of these; they are already logged as
	// warnings through internal/logger.
	Diagnostics error
}

// rawCommand is the on-disk shape of one commands.json value.
// Environment is a pointer so a JSON-absent field can be distinguished
// from a present-but-empty array: an absent "environment" field skips the
// entry entirely.
type rawCommand struct {
	Environment *[]string `json:"environment"`
	Alias       []string  `json:"alias,omitempty"`
	Description string    `json:"description,omitempty"`
}

// LoadFile builds a Registry from a single commands.json file. File
// references in every definition resolve against path's directory
// (single-file mode).
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("command registry: %w", err)
	}
	return parseCommandsJSON(data, filepath.Dir(path), "")
}

// LoadBundles builds a Registry from a list of bundles, loading each
// bundle's commands.json in declaration order. On a command-name
// collision the later bundle overrides the earlier one; a warning
// naming both bundle ids is logged and recorded in Diagnostics. If the
// same commands.json path is reachable from two discovery roots, it is
// read and merged only once — under the bundle id it was first
// encountered at — so it never collides with and overrides itself.
func LoadBundles(bundles []*Bundle) (*Registry, error) {
	merged := &Registry{
		commands: make(map[string]*CommandDefinition),
		origin:   make(map[string]string),
		bundles:  bundles,
	}

	seenPaths := make(map[string]bool, len(bundles))

	for _, b := range bundles {
		cmdPath, ok := b.EnvFiles[commandsFileName]
		if !ok {
			continue
		}
		if seenPaths[cmdPath] {
			continue
		}
		seenPaths[cmdPath] = true

		data, err := os.ReadFile(cmdPath)
		if err != nil {
			return nil, fmt.Errorf("command registry: bundle %q: %w", b.BndlID(), err)
		}

		sub, err := parseCommandsJSON(data, filepath.Dir(cmdPath), b.BndlID())
		if err != nil {
			return nil, fmt.Errorf("command registry: bundle %q: %w", b.BndlID(), err)
		}
		merged.Diagnostics = multierr.Append(merged.Diagnostics, sub.Diagnostics)

		for name, def := range sub.commands {
			if existing, ok := merged.commands[name]; ok {
				warning := fmt.Errorf("command %q overridden by bundle %q (was %q)", name, b.BndlID(), existing.BundleID)
				logger.Warn("command registry: %v", warning)
				merged.Diagnostics = multierr.Append(merged.Diagnostics, warning)
			}
			merged.commands[name] = def
			merged.origin[name] = b.BndlID()
		}
	}

	return merged, nil
}

// parseCommandsJSON parses one commands.json document's top-level object.
// Invalid entries (malformed shape, or missing "environment") are skipped
// with a logged warning; a malformed top-level document is a fatal error.
func parseCommandsJSON(data []byte, envDir, bundleID string) (*Registry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &envoyerr.InvalidEnvFileError{Path: filepath.Join(envDir, commandsFileName), Reason: "malformed commands.json", Cause: err}
	}

	r := &Registry{
		commands: make(map[string]*CommandDefinition, len(raw)),
		origin:   make(map[string]string, len(raw)),
	}

	for name, rawVal := range raw {
		var rc rawCommand
		if err := json.Unmarshal(rawVal, &rc); err != nil {
			warning := fmt.Errorf("entry %q: invalid shape: %w", name, err)
			logger.Warn("command registry: skipping %v", warning)
			r.Diagnostics = multierr.Append(r.Diagnostics, warning)
			continue
		}
		if rc.Environment == nil {
			warning := fmt.Errorf("entry %q: missing \"environment\" field", name)
			logger.Warn("command registry: skipping %v", warning)
			r.Diagnostics = multierr.Append(r.Diagnostics, warning)
			continue
		}

		r.commands[name] = &CommandDefinition{
			Name:        name,
			Environment: *rc.Environment,
			Alias:       rc.Alias,
			Description: rc.Description,
			BundleID:    bundleID,
			EnvDir:      envDir,
		}
		r.origin[name] = bundleID
	}

	return r, nil
}

// isFileRef reports whether an environment-list entry is a file name
// (basename contains a dot) rather than a command reference. This test
// is purely syntactic and deliberately so: a command literally named
// "v1.2" is treated as a file reference too.
func isFileRef(entry string) bool {
	return strings.Contains(filepath.Base(entry), ".")
}

// Resolve recursively expands name's environment list into an ordered
// ResolvedEnvRef chain, splicing in referenced commands' own lists in
// place. The visited set is carried by value through the recursion so
// that concurrent Resolve calls against the same Registry never share
// mutable state.
func (r *Registry) Resolve(name string) ([]ResolvedEnvRef, error) {
	return r.resolve(name, nil, false)
}

func (r *Registry) resolve(name string, visited []string, nested bool) ([]ResolvedEnvRef, error) {
	for _, v := range visited {
		if v == name {
			chain := make([]string, 0, len(visited)+1)
			chain = append(chain, visited...)
			chain = append(chain, name)
			return nil, &envoyerr.CircularReferenceError{Command: name, Chain: chain}
		}
	}

	def, ok := r.commands[name]
	if !ok {
		if nested {
			return nil, fmt.Errorf("%w: %q", envoyerr.ErrUnknownReference, name)
		}
		return nil, fmt.Errorf("%w: %q", envoyerr.ErrUnknownCommand, name)
	}

	newVisited := make([]string, 0, len(visited)+1)
	newVisited = append(newVisited, visited...)
	newVisited = append(newVisited, name)

	var refs []ResolvedEnvRef
	for _, entry := range def.Environment {
		if isFileRef(entry) {
			refs = append(refs, ResolvedEnvRef{FileName: entry, EnvDir: def.EnvDir, BundleID: def.BundleID})
			continue
		}
		sub, err := r.resolve(entry, newVisited, true)
		if err != nil {
			return nil, err
		}
		refs = append(refs, sub...)
	}

	return refs, nil
}

// CollectFilePaths turns a resolved reference chain into absolute file
// paths for single-file mode: env_dir/file_name. It fails with
// EnvFileMissingError if any referenced file does not exist on disk.
func CollectFilePaths(refs []ResolvedEnvRef) ([]string, error) {
	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		p := filepath.Join(ref.EnvDir, ref.FileName)
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if _, err := os.Stat(p); err != nil {
			return nil, &envoyerr.EnvFileMissingError{Path: p}
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// CollectBundlePaths turns a resolved reference chain into absolute file
// paths for multi-bundle mode: every bundle's global_env.json is
// prepended in bundle declaration order, then each resolved file name is
// looked up across bundle env-file indexes and appended wherever it
// exists (a name may appear in multiple bundles, contributing multiple
// paths, each merged in turn).
func (r *Registry) CollectBundlePaths(refs []ResolvedEnvRef) []string {
	var paths []string
	for _, b := range r.bundles {
		if p, ok := b.EnvFiles[globalEnvFileName]; ok {
			paths = append(paths, p)
		}
	}
	for _, ref := range refs {
		for _, b := range r.bundles {
			if p, ok := b.EnvFiles[ref.FileName]; ok {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// CommandDescriptor is a read-only, resolved view of a command used by
// list/info/which style reporting.
type CommandDescriptor struct {
	Definition *CommandDefinition
	FileChain  []string
}

// Describe resolves name and returns its definition alongside the
// ordered file-name chain its environment references expand to.
func (r *Registry) Describe(name string) (*CommandDescriptor, error) {
	def, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", envoyerr.ErrUnknownCommand, name)
	}
	refs, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	fileNames := make([]string, len(refs))
	for i, ref := range refs {
		fileNames[i] = ref.FileName
	}
	return &CommandDescriptor{Definition: def, FileChain: fileNames}, nil
}

// Lookup returns the definition for name, or false if unregistered.
func (r *Registry) Lookup(name string) (*CommandDefinition, bool) {
	def, ok := r.commands[name]
	return def, ok
}

// Names returns every registered command name, sorted, for --list.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
