// Package app wires envoy's cobra CLI front-end onto the core
// environment-composition engine and command registry. The CLI's full
// argument-parsing surface, pretty-printing polish, and signal forwarding
// are deliberately left thin.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gtvfx-contrib/envoy/internal/command"
	"github.com/gtvfx-contrib/envoy/internal/envcompose"
	"github.com/gtvfx-contrib/envoy/internal/envfile"
	"github.com/gtvfx-contrib/envoy/internal/envoyconfig"
	"github.com/gtvfx-contrib/envoy/internal/envoyerr"
	"github.com/gtvfx-contrib/envoy/internal/logger"
	"github.com/gtvfx-contrib/envoy/internal/platform"
	"github.com/gtvfx-contrib/envoy/internal/seedbuilder"
)

// globalFlags holds the flags shared by every subcommand.
type globalFlags struct {
	commandsFile string
	seedMode     string
	allowlist    []string
	logLevel     string
	logDir       string
}

// NewEnvoyCommand creates the root command for envoy.
func NewEnvoyCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "envoy",
		Short: "A cross-platform command launcher for DCC and pipeline tools.",
		Long: `Envoy resolves a named command against a registry of bundles, composes a
deterministic subprocess environment from an ordered chain of JSON files,
and hands off to a launcher.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logDir != "" {
				return logger.InitWithFile(flags.logLevel, flags.logDir)
			}
			logger.Init(flags.logLevel)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.commandsFile, "commands", "", "path to a commands.json (defaults to $ENVOY_COMMANDS_FILE)")
	cmd.PersistentFlags().StringVar(&flags.seedMode, "seed-mode", "", "seed mode: \"closed\" or \"inherited\" (defaults to envoy.yaml, then closed)")
	cmd.PersistentFlags().StringSliceVar(&flags.allowlist, "allowlist", nil, "extra environment variable names to seed in closed mode")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error, or fatal")
	cmd.PersistentFlags().StringVar(&flags.logDir, "log-dir", "", "write logs to a timestamped file in this directory, in addition to the console")

	cmd.AddCommand(newRunCommand(flags))
	cmd.AddCommand(newListCommand(flags))
	cmd.AddCommand(newInfoCommand(flags))
	cmd.AddCommand(newWhichCommand(flags))

	return cmd
}

// loadRegistry builds a command.Registry from --commands, falling back
// to $ENVOY_COMMANDS_FILE.
func loadRegistry(flags *globalFlags) (*command.Registry, error) {
	path := flags.commandsFile
	if path == "" {
		path = os.Getenv("ENVOY_COMMANDS_FILE")
	}
	if path == "" {
		return nil, fmt.Errorf("no commands file given: pass --commands or set $ENVOY_COMMANDS_FILE")
	}
	return command.LoadFile(path)
}

// buildSeed constructs a seedbuilder.Builder from envoy.yaml defaults:
// --seed-mode overrides the configured mode, and --allowlist names are
// added to the configured extra allowlist.
func buildSeed(cfg *envoyconfig.Config, flags *globalFlags) *seedbuilder.Builder {
	mode := cfg.Mode()
	switch flags.seedMode {
	case "inherited":
		mode = seedbuilder.ModeInherited
	case "closed":
		mode = seedbuilder.ModeClosed
	}

	extra := make([]string, 0, len(cfg.ExtraAllowlist)+len(flags.allowlist))
	extra = append(extra, cfg.ExtraAllowlist...)
	extra = append(extra, flags.allowlist...)

	return seedbuilder.New(mode, extra, os.Environ)
}

// composeEnvironment resolves name against reg, reads and parses its
// file chain, and composes the final environment map on top of seed's
// base. Every failure is wrapped with envoyerr.WrapBuild so callers can
// report which command the build was for.
func composeEnvironment(reg *command.Registry, name string, seed *seedbuilder.Builder) (map[string]string, error) {
	refs, err := reg.Resolve(name)
	if err != nil {
		return nil, envoyerr.WrapBuild(name, err)
	}

	paths, err := command.CollectFilePaths(refs)
	if err != nil {
		return nil, envoyerr.WrapBuild(name, err)
	}

	files := make([]*envfile.ParsedEnvFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, envoyerr.WrapBuild(name, err)
		}
		pf, err := envfile.Parse(p, data)
		if err != nil {
			return nil, envoyerr.WrapBuild(name, err)
		}
		files = append(files, pf)
	}

	composer := envcompose.New(platform.Separator())
	return composer.Compose(files, seed.Build()), nil
}
