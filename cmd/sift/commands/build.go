package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/app"
)

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the persistent evaluation cache")
	cmd.Flags().StringP("out-dir", "o", "", "Write output below this directory instead of the configured one")
	cmd.Flags().Bool("constant", false, "Fold constants only, never run module code")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	outDir, _ := cmd.Flags().GetString("out-dir")
	constant, _ := cmd.Flags().GetBool("constant")
	return app.BuildOptions{NoCache: noCache, OutDir: outDir, Constant: constant}
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Extract styles from files, or from every source in the project",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}
