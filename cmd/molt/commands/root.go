// Package commands implements the CLI commands for the molt development server.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.molt.dev/molt/internal/app"
	"go.molt.dev/molt/internal/build"
	"go.molt.dev/molt/internal/core/ports"
)

// CLI represents the command line interface for molt.
type CLI struct {
	app     *app.App
	logger  ports.Logger
	reload  <-chan os.Signal
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app. The reload channel
// carries manual reload triggers into the serve command; it may be nil.
func New(a *app.App, logger ports.Logger, reload <-chan os.Signal) *CLI {
	rootCmd := &cobra.Command{
		Use:           "molt",
		Short:         "A hot-reloading development server for modular sites",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")

	c := &CLI{
		app:     a,
		logger:  logger,
		reload:  reload,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if jsonLogs, _ := cmd.Flags().GetBool("json"); jsonLogs {
			if s, ok := c.logger.(interface{ SetJSON(bool) }); ok {
				s.SetJSON(true)
			}
		}
	}

	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newGraphCmd())
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

// SetOut sets the writer command output is written to. Used for testing.
func (c *CLI) SetOut(w io.Writer) {
	c.rootCmd.SetOut(w)
}
