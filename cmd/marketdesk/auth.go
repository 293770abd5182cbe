package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd(con *console) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the marketplace",
		Long: `Signs in and stores the session in the state file.

The password is read from --password or the MARKETDESK_PASSWORD environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("MARKETDESK_PASSWORD")
			}
			ctx := cmd.Context()
			con.ws.Session.Init(ctx)
			u, err := con.ws.Session.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(con.out, "Signed in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(con *console) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := con.ws.Session.Logout(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			fmt.Fprintln(con.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(con *console) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := con.require(cmd.Context(), ""); err != nil {
				return err
			}
			u, _ := con.ws.Session.User()
			fmt.Fprintf(con.out, "%s <%s>\nrole: %s\nid: %s\n", u.Name, u.Email, u.Role, u.ID)
			return nil
		},
	}
}
