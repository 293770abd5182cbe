package domain

import "errors"

var (
	ErrNotNegotiating = errors.New("Lead has already been answered")
	ErrInvalidStatus  = errors.New("Invalid lead status")
	ErrNotAccepted    = errors.New("Lead must be Accepted to mark as sold")
	ErrNotResolvable  = errors.New("Lead must be Accepted or Rejected to mark as unsold")
	ErrNoSale         = errors.New("Lead has no sale to unmark")
)
