package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"marketdesk/internal/application/invoice"
	"marketdesk/internal/application/leads"
	"marketdesk/internal/domain"
	"marketdesk/internal/pkg/constants"

	"github.com/spf13/cobra"
)

func newLeadsCmd(con *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Answer and close the leads of a business",
	}
	cmd.AddCommand(
		newLeadsListCmd(con),
		newLeadActionCmd(con, "accept", "Accept a negotiating lead", func(ctx context.Context, b *leads.Board, id string) (domain.Lead, error) {
			return b.Accept(ctx, con.ui, id)
		}),
		newLeadActionCmd(con, "reject", "Reject a negotiating lead", func(ctx context.Context, b *leads.Board, id string) (domain.Lead, error) {
			return b.Reject(ctx, con.ui, id)
		}),
		newLeadActionCmd(con, "unsold", "Record that an answered lead did not convert", func(ctx context.Context, b *leads.Board, id string) (domain.Lead, error) {
			return b.MarkUnsold(ctx, con.ui, id)
		}),
		newLeadActionCmd(con, "unmark", "Delete the recorded sale of a lead", func(ctx context.Context, b *leads.Board, id string) (domain.Lead, error) {
			return b.Unmark(ctx, con.ui, id)
		}),
		newLeadSoldCmd(con),
		newLeadInvoiceCmd(con),
	)
	return cmd
}

// board signs in as a seller and loads the business's leads.
func (c *console) board(ctx context.Context, businessID string) (*leads.Board, error) {
	if err := c.require(ctx, constants.Seller); err != nil {
		return nil, err
	}
	b := c.ws.Leads()
	if err := b.SetBusiness(ctx, c.ui, businessID); err != nil {
		return nil, err
	}
	return b, nil
}

func newLeadsListCmd(con *console) *cobra.Command {
	var f domain.LeadFilter
	var status, salesStatus string
	cmd := &cobra.Command{
		Use:   "list BUSINESS_ID",
		Short: "List leads, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := con.board(ctx, args[0])
			if err != nil {
				return err
			}
			f.Status = domain.LeadStatus(status)
			f.SalesStatus = domain.SalesStatus(salesStatus)
			if !f.IsZero() {
				b.SetFilter(f)
				if err := b.Apply(ctx, con.ui); err != nil {
					return err
				}
			}
			printLeads(con, b.View().Leads)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "negotiating, accepted or rejected")
	cmd.Flags().StringVar(&salesStatus, "sales-status", "", "sold or unsold")
	cmd.Flags().StringVar(&f.Search, "search", "", "buyer or listing text")
	return cmd
}

func printLeads(con *console, rows []domain.Lead) {
	if len(rows) == 0 {
		fmt.Fprintln(con.out, "No leads.")
		return
	}
	tw := tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUYER\tLISTING\tQTY\tPRICE\tSTATUS\tSALE\tCREATED")
	for _, l := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\t%s\t%s\t%s\n",
			l.ID, l.Buyer.Name, l.Asset.Title, l.Quantity, l.Price,
			l.State.Status(), l.State.SalesStatus(), l.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}

type leadAction func(ctx context.Context, b *leads.Board, id string) (domain.Lead, error)

func newLeadActionCmd(con *console, use, short string, act leadAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " BUSINESS_ID LEAD_ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := con.board(ctx, args[0])
			if err != nil {
				return err
			}
			l, err := act(ctx, b, args[1])
			if err != nil {
				return err
			}
			printLeads(con, []domain.Lead{l})
			return nil
		},
	}
}

func newLeadSoldCmd(con *console) *cobra.Command {
	var quantity int
	var total float64
	cmd := &cobra.Command{
		Use:   "sold BUSINESS_ID LEAD_ID",
		Short: "Record the sale of an accepted lead",
		Long: `Opens the price dialog prefilled with the requested quantity and its total,
applies --quantity and --total, and records the sale at total / quantity per unit.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := con.board(ctx, args[0])
			if err != nil {
				return err
			}
			entry, err := b.OpenPriceEntry(args[1])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("quantity") {
				entry.SetQuantity(quantity)
			}
			if cmd.Flags().Changed("total") {
				entry.SetTotal(total)
			}
			l, err := b.MarkSold(ctx, con.ui, args[1], entry)
			if err != nil {
				return err
			}
			printLeads(con, []domain.Lead{l})
			return nil
		},
	}
	cmd.Flags().IntVar(&quantity, "quantity", 0, "sold quantity (1 to the requested quantity)")
	cmd.Flags().Float64Var(&total, "total", 0, "total amount")
	return cmd
}

func newLeadInvoiceCmd(con *console) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "invoice BUSINESS_ID LEAD_ID",
		Short: "Write the PDF invoice of a sold lead",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := con.board(ctx, args[0])
			if err != nil {
				return err
			}
			l, ok := b.Lead(args[1])
			if !ok {
				return leads.ErrLeadNotFound
			}
			seller, _ := con.ws.Session.User()
			inv, err := invoice.FromLead(l, seller.Name, time.Now())
			if err != nil {
				return err
			}
			if out == "" {
				out = inv.FileName()
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := invoice.Render(f, inv); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(con.out, "Invoice %s written to %s\n", inv.Number, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default invoice-<number>.pdf)")
	return cmd
}
