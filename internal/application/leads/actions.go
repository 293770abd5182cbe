package leads

import (
	"context"
	"fmt"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/domain"
)

// Accept answers a negotiating lead with "accepted".
func (b *Board) Accept(ctx context.Context, ui feedback.UI, id string) (domain.Lead, error) {
	return b.answer(ctx, ui, id, domain.LeadAccepted)
}

// Reject answers a negotiating lead with "rejected".
func (b *Board) Reject(ctx context.Context, ui feedback.UI, id string) (domain.Lead, error) {
	return b.answer(ctx, ui, id, domain.LeadRejected)
}

func (b *Board) answer(ctx context.Context, ui feedback.UI, id string, status domain.LeadStatus) (domain.Lead, error) {
	lead, err := b.begin(id)
	if err != nil {
		return domain.Lead{}, err
	}
	defer b.end(id)

	if _, err := lead.WithStatus(status); err != nil {
		return lead, toastError(ui, err)
	}
	verb := "Accept"
	if status == domain.LeadRejected {
		verb = "Reject"
	}
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        verb + " lead",
		Message:      fmt.Sprintf("%s the interest of %s in %q?", verb, partyName(lead.Buyer), lead.Asset.Title),
		ConfirmLabel: verb,
		Destructive:  status == domain.LeadRejected,
	})
	if err != nil {
		return lead, err
	}

	ctx, cancel := b.life.Scope(ctx)
	defer cancel()
	resp, err := b.api.UpdateInterestStatus(ctx, id, status)
	if err != nil {
		feedback.Failed(ui, "Failed to update lead status")
		return lead, fmt.Errorf("update lead %s: %w", id, err)
	}

	var updated domain.Lead
	b.patch(id, func(l domain.Lead) domain.Lead {
		updated = merge(l, resp, status)
		return updated
	})
	feedback.Succeeded(ui, "Lead "+string(status))
	return updated, nil
}

// merge overlays the server's answer on the local row. Response fields win
// only when populated; sub-documents the response left unpopulated are kept.
func merge(local domain.Lead, resp *domain.Lead, status domain.LeadStatus) domain.Lead {
	out := local
	next, _ := domain.StateFor(status)
	out.State = next
	if resp == nil {
		return out
	}
	if resp.State != nil && resp.State.Status() == status {
		out.State = resp.State
	}
	if resp.Asset.Title != "" {
		out.Asset = resp.Asset
	}
	if resp.Buyer.Name != "" || resp.Buyer.Email != "" {
		out.Buyer = resp.Buyer
	}
	if resp.Quantity > 0 {
		out.Quantity = resp.Quantity
	}
	if resp.Price > 0 {
		out.Price = resp.Price
	}
	if resp.Message != "" {
		out.Message = resp.Message
	}
	return out
}

// MarkSold records the sale entered in the price dialog.
func (b *Board) MarkSold(ctx context.Context, ui feedback.UI, id string, entry PriceEntry) (domain.Lead, error) {
	lead, err := b.begin(id)
	if err != nil {
		return domain.Lead{}, err
	}
	defer b.end(id)

	if _, ok := lead.State.(domain.Accepted); !ok {
		return lead, toastError(ui, domain.ErrNotAccepted)
	}
	if entry.LeadID != id {
		return lead, toastError(ui, ErrPriceEntryForeign)
	}
	// The bound comes from the board's lead, not from the caller's entry.
	entry.MaxQuantity = maxQuantity(lead)
	if err := entry.Validate(); err != nil {
		return lead, toastError(ui, err)
	}
	price, quantity := entry.UnitPrice(), entry.Quantity
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Mark as sold",
		Message:      fmt.Sprintf("Record a sale of %d x %.2f (total %.2f)?", quantity, price, entry.Total),
		ConfirmLabel: "Mark as sold",
	})
	if err != nil {
		return lead, err
	}

	ctx, cancel := b.life.Scope(ctx)
	defer cancel()
	sale, err := b.api.CreateSale(ctx, domain.SaleFor(lead, domain.SalesSold, price, quantity))
	if err != nil {
		feedback.Failed(ui, "Failed to mark lead as sold")
		return lead, fmt.Errorf("create sale for lead %s: %w", id, err)
	}

	var updated domain.Lead
	b.patch(id, func(l domain.Lead) domain.Lead {
		if sold, err := l.MarkSold(sale.ID, price, quantity); err == nil {
			l = sold
		}
		updated = l
		return l
	})
	feedback.Succeeded(ui, "Lead marked as sold")
	return updated, nil
}

// MarkUnsold records that an answered lead did not convert.
func (b *Board) MarkUnsold(ctx context.Context, ui feedback.UI, id string) (domain.Lead, error) {
	lead, err := b.begin(id)
	if err != nil {
		return domain.Lead{}, err
	}
	defer b.end(id)

	if _, err := lead.MarkUnsold(""); err != nil {
		return lead, toastError(ui, err)
	}
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Mark as unsold",
		Message:      "This records the lead as not sold and sets its price to 0.",
		ConfirmLabel: "Mark as unsold",
		Destructive:  true,
	})
	if err != nil {
		return lead, err
	}

	ctx, cancel := b.life.Scope(ctx)
	defer cancel()
	sale, err := b.api.CreateSale(ctx, domain.SaleFor(lead, domain.SalesUnsold, 0, lead.Quantity))
	if err != nil {
		feedback.Failed(ui, "Failed to mark lead as unsold")
		return lead, fmt.Errorf("create unsold record for lead %s: %w", id, err)
	}

	var updated domain.Lead
	b.patch(id, func(l domain.Lead) domain.Lead {
		if unsold, err := l.MarkUnsold(sale.ID); err == nil {
			l = unsold
		}
		updated = l
		return l
	})
	feedback.Succeeded(ui, "Lead marked as unsold")
	return updated, nil
}

// Unmark deletes the sale record and returns the lead to its answer.
func (b *Board) Unmark(ctx context.Context, ui feedback.UI, id string) (domain.Lead, error) {
	lead, err := b.begin(id)
	if err != nil {
		return domain.Lead{}, err
	}
	defer b.end(id)

	if _, err := lead.Unmark(); err != nil {
		return lead, toastError(ui, err)
	}
	saleID := lead.SaleID()
	if saleID == "" {
		return lead, toastError(ui, ErrMissingSaleID)
	}
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Unmark sale",
		Message:      "This deletes the recorded sale for this lead.",
		ConfirmLabel: "Unmark",
		Destructive:  true,
	})
	if err != nil {
		return lead, err
	}

	ctx, cancel := b.life.Scope(ctx)
	defer cancel()
	if err := b.api.DeleteSale(ctx, saleID); err != nil {
		feedback.Failed(ui, "Failed to unmark sale")
		return lead, fmt.Errorf("delete sale %s: %w", saleID, err)
	}

	var updated domain.Lead
	b.patch(id, func(l domain.Lead) domain.Lead {
		if reverted, err := l.Unmark(); err == nil {
			l = reverted
		}
		updated = l
		return l
	})
	feedback.Succeeded(ui, "Sale unmarked")
	return updated, nil
}

func partyName(p domain.Party) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	}
	return "the buyer"
}
