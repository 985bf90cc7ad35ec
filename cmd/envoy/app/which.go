package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/gtvfx-contrib/envoy/internal/command"
)

func newWhichCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "which <command>",
		Short: "Print the absolute paths of the environment files a command resolves to, in composition order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(flags)
			if err != nil {
				return err
			}
			refs, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			paths, err := command.CollectFilePaths(refs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !asJSON {
				for _, p := range paths {
					fmt.Fprintln(out, p)
				}
				return nil
			}

			doc := `{"command":"","files":[]}`
			doc, err = sjson.Set(doc, "command", args[0])
			if err != nil {
				return fmt.Errorf("which: building JSON output: %w", err)
			}
			for i, p := range paths {
				doc, err = sjson.Set(doc, fmt.Sprintf("files.%d", i), p)
				if err != nil {
					return fmt.Errorf("which: building JSON output: %w", err)
				}
			}
			fmt.Fprintln(out, doc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable JSON instead of one path per line")
	cmd.SilenceUsage = true
	return cmd
}
