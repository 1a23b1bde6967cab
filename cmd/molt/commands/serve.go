package commands

import (
	"github.com/spf13/cobra"
	"go.molt.dev/molt/internal/app"
	"go.molt.dev/molt/internal/core/domain"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the project and re-execute modules as their files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			addr, _ := cmd.Flags().GetString("addr")
			debounce, _ := cmd.Flags().GetDuration("debounce")
			return c.app.Serve(cmd.Context(), dir, app.Options{
				Addr:     addr,
				Debounce: debounce,
				Reload:   c.reload,
			})
		},
	}
	cmd.Flags().StringP("addr", "a", domain.DefaultAddr, "Address to serve on")
	cmd.Flags().DurationP("debounce", "d", 0, "Override the project's debounce window")
	return cmd
}
