package marketapi

import (
	"context"
	"net/http"

	"marketdesk/internal/domain"
)

// ListBusinessInterests returns the leads of a business, filtered server-side.
func (c *Client) ListBusinessInterests(ctx context.Context, businessID string, f domain.LeadFilter) ([]domain.Lead, error) {
	var out []domain.Lead
	if err := c.do(ctx, http.MethodGet, "/interests/business/"+escape(businessID), f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInterestStatus answers a lead. The response may omit populated sub-documents.
func (c *Client) UpdateInterestStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	var out domain.Lead
	body := map[string]domain.LeadStatus{"status": status}
	if err := c.do(ctx, http.MethodPut, "/interests/"+escape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserInterests returns every lead a user took part in (admin user modal).
func (c *Client) ListUserInterests(ctx context.Context, userID string) ([]domain.Lead, error) {
	var out []domain.Lead
	if err := c.do(ctx, http.MethodGet, "/interests/user/"+escape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale records a sold or unsold decision for a lead.
func (c *Client) CreateSale(ctx context.Context, in domain.CreateSaleInput) (*domain.Sale, error) {
	var out domain.Sale
	if err := c.do(ctx, http.MethodPost, "/sales", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSale removes a sale record ("unmark").
func (c *Client) DeleteSale(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sales/"+escape(id), nil, nil, nil)
}
