package commands

import "github.com/spf13/cobra"

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Build, then rebuild whenever a source changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}
