package leads

import "marketdesk/internal/domain"

// PriceEntry is the "mark as sold" dialog. The seller edits the sold
// quantity and the total; the unit price is derived.
type PriceEntry struct {
	LeadID            string  `json:"leadId"`
	MaxQuantity       int     `json:"maxQuantity"`
	OriginalUnitPrice float64 `json:"originalUnitPrice"`
	Total             float64 `json:"total"`
	Quantity          int     `json:"quantity"`
}

// OpenPriceEntry prefills the dialog with the requested quantity and its
// total at the proposed unit price. Only accepted leads can be sold.
func (b *Board) OpenPriceEntry(id string) (PriceEntry, error) {
	lead, ok := b.Lead(id)
	if !ok {
		return PriceEntry{}, ErrLeadNotFound
	}
	if _, ok := lead.State.(domain.Accepted); !ok {
		return PriceEntry{}, domain.ErrNotAccepted
	}
	unit := lead.Price
	if unit <= 0 {
		unit = lead.Asset.Price
	}
	most := maxQuantity(lead)
	return PriceEntry{
		LeadID:            lead.ID,
		MaxQuantity:       most,
		OriginalUnitPrice: unit,
		Total:             unit * float64(most),
		Quantity:          most,
	}, nil
}

// maxQuantity is the most a sale of lead may record: the requested quantity.
func maxQuantity(lead domain.Lead) int {
	if lead.Quantity < 1 {
		return 1
	}
	return lead.Quantity
}

// SetQuantity clamps q to [1, MaxQuantity].
func (p *PriceEntry) SetQuantity(q int) {
	if q < 1 {
		q = 1
	}
	if p.MaxQuantity > 0 && q > p.MaxQuantity {
		q = p.MaxQuantity
	}
	p.Quantity = q
}

func (p *PriceEntry) SetTotal(total float64) {
	p.Total = total
}

// UnitPrice is total / quantity.
func (p PriceEntry) UnitPrice() float64 {
	if p.Quantity <= 0 {
		return 0
	}
	return p.Total / float64(p.Quantity)
}

func (p PriceEntry) Validate() error {
	if p.Total <= 0 {
		return ErrInvalidTotal
	}
	if p.Quantity < 1 || (p.MaxQuantity > 0 && p.Quantity > p.MaxQuantity) {
		return ErrInvalidQuantity
	}
	return nil
}
