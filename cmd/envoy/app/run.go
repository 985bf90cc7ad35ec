package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gtvfx-contrib/envoy/internal/envoyconfig"
	"github.com/gtvfx-contrib/envoy/internal/launch"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:                "run <command> [-- args...]",
		Short:              "Resolve a command, compose its environment, and launch it.",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var extra []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 && dash < len(args) {
				extra = args[dash:]
			} else {
				extra = args[1:]
			}

			reg, err := loadRegistry(flags)
			if err != nil {
				return err
			}

			def, ok := reg.Lookup(name)
			if !ok {
				return fmt.Errorf("run: unknown command %q", name)
			}

			cfg, err := envoyconfig.Load()
			if err != nil {
				return err
			}
			seed := buildSeed(cfg, flags)

			env, err := composeEnvironment(reg, name, seed)
			if err != nil {
				return err
			}

			executable := def.Name
			var baseArgs []string
			if len(def.Alias) > 0 {
				executable = def.Alias[0]
				baseArgs = def.Alias[1:]
			}
			finalArgs := append(append([]string{}, baseArgs...), extra...)

			launcher := launch.NewExecLauncher()
			code, err := launcher.Launch(context.Background(), executable, finalArgs, env)
			if err != nil {
				return fmt.Errorf("run: failed to start %q: %w", executable, err)
			}
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			osExit(code)
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}
