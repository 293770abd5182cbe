package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"marketdesk/internal/application/listings"
	"marketdesk/internal/domain"
	"marketdesk/internal/pkg/constants"

	"github.com/spf13/cobra"
)

func newListingsCmd(con *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Manage the listings of a business",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list BUSINESS_ID",
			Short: "List listings",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := con.listingBoard(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printListings(con, b.View().Listings)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle BUSINESS_ID LISTING_ID",
			Short: "Activate or deactivate a listing",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				b, err := con.listingBoard(ctx, args[0])
				if err != nil {
					return err
				}
				a, err := b.ToggleStatus(ctx, con.ui, args[1])
				if err != nil {
					return err
				}
				printListings(con, []domain.Asset{a})
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete BUSINESS_ID LISTING_ID",
			Short: "Delete a listing",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				b, err := con.listingBoard(ctx, args[0])
				if err != nil {
					return err
				}
				return b.Delete(ctx, con.ui, args[1])
			},
		},
	)
	return cmd
}

func (c *console) listingBoard(ctx context.Context, businessID string) (*listings.Board, error) {
	if err := c.require(ctx, constants.Seller); err != nil {
		return nil, err
	}
	b := c.ws.Listings()
	if err := b.SetBusiness(ctx, c.ui, businessID); err != nil {
		return nil, err
	}
	return b, nil
}

func printListings(con *console, rows []domain.Asset) {
	if len(rows) == 0 {
		fmt.Fprintln(con.out, "No listings.")
		return
	}
	tw := tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tQTY\tSTATUS")
	for _, a := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n", a.ID, a.Title, a.Category, a.Price, a.Quantity, a.Status)
	}
	_ = tw.Flush()
}
