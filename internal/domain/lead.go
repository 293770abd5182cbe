package domain

import (
	"encoding/json"
	"time"
)

// LeadStatus is the seller's answer to a buyer's interest (wire field "status").
type LeadStatus string

const (
	LeadNegotiating LeadStatus = "negotiating"
	LeadAccepted    LeadStatus = "accepted"
	LeadRejected    LeadStatus = "rejected"
)

// SalesStatus is the sale decision recorded for a lead (wire field "salesStatus").
type SalesStatus string

const (
	SalesNone   SalesStatus = ""
	SalesSold   SalesStatus = "sold"
	SalesUnsold SalesStatus = "unsold"
)

// LeadState is the single source of truth for where a lead is in its lifecycle.
// It replaces the independently settable status/salesStatus pair of the wire format.
type LeadState interface {
	Status() LeadStatus
	SalesStatus() SalesStatus
	isLeadState()
}

type Negotiating struct{}
type Accepted struct{}
type Rejected struct{}

// Sold can only be built from Accepted (see Lead.MarkSold).
type Sold struct {
	SaleID      string
	Price       float64
	Quantity    int
	TotalAmount float64
	Manual      bool
}

// Unsold remembers the status it was declared from so unmarking can restore it.
type Unsold struct {
	SaleID string
	Base   LeadStatus
}

func (Negotiating) Status() LeadStatus { return LeadNegotiating }
func (Accepted) Status() LeadStatus    { return LeadAccepted }
func (Rejected) Status() LeadStatus    { return LeadRejected }
func (Sold) Status() LeadStatus        { return LeadAccepted }
func (u Unsold) Status() LeadStatus    { return u.Base }

func (Negotiating) SalesStatus() SalesStatus { return SalesNone }
func (Accepted) SalesStatus() SalesStatus    { return SalesNone }
func (Rejected) SalesStatus() SalesStatus    { return SalesNone }
func (Sold) SalesStatus() SalesStatus        { return SalesSold }
func (Unsold) SalesStatus() SalesStatus      { return SalesUnsold }

func (Negotiating) isLeadState() {}
func (Accepted) isLeadState()    {}
func (Rejected) isLeadState()    {}
func (Sold) isLeadState()        {}
func (Unsold) isLeadState()      {}

// StateFor returns the bare negotiation state for a status.
func StateFor(s LeadStatus) (LeadState, bool) {
	switch s {
	case LeadNegotiating:
		return Negotiating{}, true
	case LeadAccepted:
		return Accepted{}, true
	case LeadRejected:
		return Rejected{}, true
	}
	return nil, false
}

// AssetRef is the populated asset sub-document of a lead.
type AssetRef struct {
	ID    string  `json:"_id"`
	Title string  `json:"title,omitempty"`
	Price float64 `json:"price,omitempty"`
}

// Party is a populated user sub-document (buyer or seller).
type Party struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Billing is a price/quantity/total breakdown shown in the expanded lead row.
type Billing struct {
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

// Lead is a buyer's interest in a seller's asset.
type Lead struct {
	ID         string
	BusinessID string
	SellerID   string
	Asset      AssetRef
	Buyer      Party
	Quantity   int
	Price      float64
	Message    string
	CreatedAt  time.Time
	State      LeadState
}

// RequestedBilling is what the buyer asked for.
func (l Lead) RequestedBilling() Billing {
	return Billing{UnitPrice: l.Price, Quantity: l.Quantity, Total: l.Price * float64(l.Quantity)}
}

// FinalBilling is the recorded sale, if the lead was sold.
func (l Lead) FinalBilling() (Billing, bool) {
	s, ok := l.State.(Sold)
	if !ok {
		return Billing{}, false
	}
	return Billing{UnitPrice: s.Price, Quantity: s.Quantity, Total: s.TotalAmount}, true
}

// SaleID returns the id of the sale attached to the lead, if any.
func (l Lead) SaleID() string {
	switch s := l.State.(type) {
	case Sold:
		return s.SaleID
	case Unsold:
		return s.SaleID
	}
	return ""
}

// WithStatus moves a negotiating lead to accepted or rejected.
func (l Lead) WithStatus(s LeadStatus) (Lead, error) {
	if _, ok := l.State.(Negotiating); !ok {
		return l, ErrNotNegotiating
	}
	if s != LeadAccepted && s != LeadRejected {
		return l, ErrInvalidStatus
	}
	l.State, _ = StateFor(s)
	return l, nil
}

// MarkSold records a sale. Only an accepted lead can be sold.
func (l Lead) MarkSold(saleID string, price float64, quantity int) (Lead, error) {
	if _, ok := l.State.(Accepted); !ok {
		return l, ErrNotAccepted
	}
	l.State = Sold{
		SaleID:      saleID,
		Price:       price,
		Quantity:    quantity,
		TotalAmount: price * float64(quantity),
		Manual:      true,
	}
	return l, nil
}

// MarkUnsold records an explicit non-conversion of an accepted or rejected lead.
func (l Lead) MarkUnsold(saleID string) (Lead, error) {
	switch l.State.(type) {
	case Accepted, Rejected:
	default:
		return l, ErrNotResolvable
	}
	l.State = Unsold{SaleID: saleID, Base: l.State.Status()}
	return l, nil
}

// Unmark drops the sale overlay and returns the lead to its negotiation status.
func (l Lead) Unmark() (Lead, error) {
	switch s := l.State.(type) {
	case Sold:
		l.State = Accepted{}
	case Unsold:
		l.State, _ = StateFor(s.Base)
	default:
		return l, ErrNoSale
	}
	return l, nil
}

// leadWire is the upstream JSON shape of an interest.
type leadWire struct {
	ID                   string      `json:"_id"`
	Business             string      `json:"business,omitempty"`
	Seller               string      `json:"seller,omitempty"`
	Asset                refOrID     `json:"asset"`
	Buyer                refOrID     `json:"buyer"`
	Quantity             int         `json:"quantity"`
	Price                float64     `json:"price"`
	Message              string      `json:"message,omitempty"`
	Status               LeadStatus  `json:"status"`
	SalesStatus          SalesStatus `json:"salesStatus,omitempty"`
	SoldPrice            *float64    `json:"soldPrice"`
	SoldQuantity         *int        `json:"soldQuantity"`
	SoldTotalAmount      *float64    `json:"soldTotalAmount"`
	SaleID               *string     `json:"saleId"`
	IsManuallyMarkedSold bool        `json:"isManuallyMarkedSold"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// refOrID accepts either a populated sub-document or a bare id string.
type refOrID struct {
	raw json.RawMessage
}

func (r *refOrID) UnmarshalJSON(b []byte) error {
	r.raw = append(r.raw[:0], b...)
	return nil
}

func (r refOrID) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

func (r refOrID) decode(v interface{}, id *string) {
	if len(r.raw) == 0 || string(r.raw) == "null" {
		return
	}
	var s string
	if err := json.Unmarshal(r.raw, &s); err == nil {
		*id = s
		return
	}
	_ = json.Unmarshal(r.raw, v)
}

func refOf(v interface{}) refOrID {
	b, _ := json.Marshal(v)
	return refOrID{raw: b}
}

// UnmarshalJSON converts the upstream status/salesStatus pair into a LeadState.
// An overlay that contradicts the status (sold without accepted) is dropped.
func (l *Lead) UnmarshalJSON(b []byte) error {
	var w leadWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*l = Lead{
		ID:         w.ID,
		BusinessID: w.Business,
		SellerID:   w.Seller,
		Quantity:   w.Quantity,
		Price:      w.Price,
		Message:    w.Message,
		CreatedAt:  w.CreatedAt,
	}
	w.Asset.decode(&l.Asset, &l.Asset.ID)
	w.Buyer.decode(&l.Buyer, &l.Buyer.ID)

	base, ok := StateFor(w.Status)
	if !ok {
		base = Negotiating{}
	}
	l.State = base
	saleID := ""
	if w.SaleID != nil {
		saleID = *w.SaleID
	}
	switch w.SalesStatus {
	case SalesSold:
		if _, accepted := base.(Accepted); accepted {
			s := Sold{SaleID: saleID, Manual: w.IsManuallyMarkedSold}
			if w.SoldPrice != nil {
				s.Price = *w.SoldPrice
			}
			if w.SoldQuantity != nil {
				s.Quantity = *w.SoldQuantity
			}
			if w.SoldTotalAmount != nil {
				s.TotalAmount = *w.SoldTotalAmount
			} else {
				s.TotalAmount = s.Price * float64(s.Quantity)
			}
			l.State = s
		}
	case SalesUnsold:
		if _, negotiating := base.(Negotiating); !negotiating {
			l.State = Unsold{SaleID: saleID, Base: base.Status()}
		}
	}
	return nil
}

// MarshalJSON renders the lead back in the wire shape the browser shell expects.
func (l Lead) MarshalJSON() ([]byte, error) {
	state := l.State
	if state == nil {
		state = Negotiating{}
	}
	w := leadWire{
		ID:          l.ID,
		Business:    l.BusinessID,
		Seller:      l.SellerID,
		Asset:       refOf(l.Asset),
		Buyer:       refOf(l.Buyer),
		Quantity:    l.Quantity,
		Price:       l.Price,
		Message:     l.Message,
		Status:      state.Status(),
		SalesStatus: state.SalesStatus(),
		CreatedAt:   l.CreatedAt,
	}
	switch s := state.(type) {
	case Sold:
		w.SoldPrice = &s.Price
		w.SoldQuantity = &s.Quantity
		w.SoldTotalAmount = &s.TotalAmount
		w.SaleID = &s.SaleID
		w.IsManuallyMarkedSold = s.Manual
	case Unsold:
		zero := 0.0
		w.SoldPrice = &zero
		w.SaleID = &s.SaleID
	}
	return json.Marshal(w)
}
