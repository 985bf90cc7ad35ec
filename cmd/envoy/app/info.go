package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInfoCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <command>",
		Short: "Describe a command: its executable, base arguments, and environment-file chain.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(flags)
			if err != nil {
				return err
			}
			desc, err := reg.Describe(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:        %s\n", desc.Definition.Name)
			if desc.Definition.Description != "" {
				fmt.Fprintf(out, "description: %s\n", desc.Definition.Description)
			}
			executable := desc.Definition.Name
			baseArgs := ""
			if len(desc.Definition.Alias) > 0 {
				executable = desc.Definition.Alias[0]
				baseArgs = strings.Join(desc.Definition.Alias[1:], " ")
			}
			fmt.Fprintf(out, "executable:  %s\n", executable)
			if baseArgs != "" {
				fmt.Fprintf(out, "base args:   %s\n", baseArgs)
			}
			fmt.Fprintf(out, "env files:   %s\n", strings.Join(desc.FileChain, ", "))
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}
