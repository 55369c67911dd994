package cmd

import (
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your email and password",
		Long: `Logs in against the API. The password is prompted for.
On success the landing page and navigation of your role are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mustApp(cmd.Context()).login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Sign-in email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
