// Package commands implements the CLI commands for sift.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/app"
	"go.trai.ch/sift/internal/build"
)

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, files []string, opts app.BuildOptions) error
	Watch(ctx context.Context, files []string, opts app.BuildOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// OutputSettings adjusts how the logger writes.
type OutputSettings interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

// CLI represents the command line interface for sift.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// New creates a new CLI instance. out may be nil.
func New(a Application, out OutputSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "sift",
		Short:         "Extract CSS from tagged templates at build time",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if out == nil {
			return
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json")
		out.SetVerbose(verbose)
		out.SetJSON(jsonLogs)
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
