package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"marketdesk/internal/domain"
	"marketdesk/internal/pkg/constants"

	"github.com/spf13/cobra"
)

func newAdminCmd(con *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users and support queries",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := con.open(cmd); err != nil {
				return err
			}
			return con.require(cmd.Context(), constants.Admin)
		},
	}
	cmd.AddCommand(
		newAdminDashboardCmd(con),
		newAdminUsersCmd(con),
		newAdminRoleCmd(con),
		newAdminSupportCmd(con),
		newAdminResolveCmd(con),
	)
	return cmd
}

func newAdminDashboardCmd(con *console) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the platform counters and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := con.ws.Dashboard().Load(cmd.Context(), con.ui)
			tw := tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
			if s := view.Stats; s != nil {
				fmt.Fprintf(tw, "Users\t%d\n", s.TotalUsers)
				fmt.Fprintf(tw, "Businesses\t%d\n", s.TotalBusinesses)
				fmt.Fprintf(tw, "Listings\t%d\n", s.TotalAssets)
				fmt.Fprintf(tw, "Leads\t%d\n", s.TotalLeads)
				fmt.Fprintf(tw, "Sales\t%d\n", s.TotalSales)
				fmt.Fprintf(tw, "Revenue\t%.2f\n", s.Revenue)
				fmt.Fprintf(tw, "Open queries\t%d\n", s.OpenQueries)
			}
			_ = tw.Flush()
			if len(view.Activity) > 0 {
				fmt.Fprintln(con.out)
				tw = tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
				for _, e := range view.Activity {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Type, e.Message)
				}
				_ = tw.Flush()
			}
			if len(view.Errors) == 2 {
				return errors.New("dashboard unavailable")
			}
			return nil
		},
	}
}

func newAdminUsersCmd(con *console) *cobra.Command {
	var f domain.UserFilter
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := con.loadUsers(cmd.Context(), f)
			if err != nil {
				return err
			}
			printUsers(con, users)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Search, "search", "", "name or email")
	cmd.Flags().StringVar(&f.Role, "role", "", "buyer, seller or admin")
	return cmd
}

func (c *console) loadUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	t := c.ws.Users()
	if f != (domain.UserFilter{}) {
		t.SetFilter(f)
		view, err := t.Wait(ctx, c.ui)
		return view.Users, err
	}
	view, err := t.Load(ctx, c.ui)
	return view.Users, err
}

func printUsers(con *console, rows []domain.User) {
	if len(rows) == 0 {
		fmt.Fprintln(con.out, "No users.")
		return
	}
	tw := tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	_ = tw.Flush()
}

func newAdminRoleCmd(con *console) *cobra.Command {
	return &cobra.Command{
		Use:   "role USER_ID ROLE",
		Short: "Change the role of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := con.loadUsers(ctx, domain.UserFilter{}); err != nil {
				return err
			}
			actor, _ := con.ws.Session.User()
			u, err := con.ws.Users().ChangeRole(ctx, con.ui, actor.ID, args[0], args[1])
			if err != nil {
				return err
			}
			printUsers(con, []domain.User{u})
			return nil
		},
	}
}

func newAdminSupportCmd(con *console) *cobra.Command {
	var f domain.SupportFilter
	var status string
	cmd := &cobra.Command{
		Use:   "support",
		Short: "List support queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := con.ws.Support()
			if err := t.Load(cmd.Context(), con.ui); err != nil {
				return err
			}
			f.Status = domain.SupportStatus(status)
			t.SetFilter(f)
			view := t.View()
			printSupport(con, view.Queries)
			fmt.Fprintf(con.out, "%d open of %d\n", view.Open, view.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "open or resolved")
	cmd.Flags().StringVar(&f.Search, "search", "", "name, email, subject or message")
	cmd.Flags().StringVar(&f.Sort, "sort", "", "newest, oldest or name")
	return cmd
}

func printSupport(con *console, rows []domain.SupportQuery) {
	if len(rows) == 0 {
		fmt.Fprintln(con.out, "No support queries.")
		return
	}
	tw := tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tSUBJECT\tSTATUS\tCREATED")
	for _, q := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", q.ID, q.Email, q.Subject, q.Status, q.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}

func newAdminResolveCmd(con *console) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve QUERY_ID",
		Short: "Mark a support query resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := con.ws.Support()
			if err := t.Load(ctx, con.ui); err != nil {
				return err
			}
			q, err := t.Resolve(ctx, con.ui, args[0])
			if err != nil {
				return err
			}
			printSupport(con, []domain.SupportQuery{q})
			return nil
		},
	}
}
