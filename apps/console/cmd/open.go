package cmd

import (
	"github.com/spf13/cobra"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Open a section page, e.g. /technician/tasks",
		Long: `Opens a section page. PATH selects the section: its dashboard is rendered with PATH marked in the
navigation. Pages of another role's section redirect you to your own landing page, and a role without
section is redirected to /. Without a session you are asked to log in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mustApp(cmd.Context()).open(cmd.Context(), args[0])
		},
	}
}
