package leads

import "errors"

var (
	ErrNoBusiness        = errors.New("No business selected")
	ErrLeadNotFound      = errors.New("Lead not found")
	ErrBusy              = errors.New("Another action is already running for this lead")
	ErrMissingSaleID     = errors.New("Lead has no sale id")
	ErrInvalidTotal      = errors.New("Total amount must be greater than 0")
	ErrInvalidQuantity   = errors.New("Quantity is out of range")
	ErrPriceEntryForeign = errors.New("Price entry belongs to another lead")
)
