package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the evaluation cache and generated output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cacheOnly, _ := cmd.Flags().GetBool("cache")
			outputOnly, _ := cmd.Flags().GetBool("output")

			opts := app.CleanOptions{Cache: true, Output: true}
			switch {
			case cacheOnly && !outputOnly:
				opts.Output = false
			case outputOnly && !cacheOnly:
				opts.Cache = false
			}
			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("cache", "c", false, "Only remove the evaluation cache")
	cmd.Flags().BoolP("output", "o", false, "Only remove generated output")

	return cmd
}
