package marketapi

import (
	"context"
	"net/http"

	"marketdesk/internal/domain"
)

// ListBusinessAssets returns the listings of a business, filtered server-side.
func (c *Client) ListBusinessAssets(ctx context.Context, businessID string, f domain.ListingFilter) ([]domain.Asset, error) {
	var out []domain.Asset
	if err := c.do(ctx, http.MethodGet, "/assets/business/"+escape(businessID), f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAssetStatus sets a listing active or inactive.
func (c *Client) UpdateAssetStatus(ctx context.Context, id string, status domain.AssetStatus) (*domain.Asset, error) {
	var out domain.Asset
	body := map[string]domain.AssetStatus{"status": status}
	if err := c.do(ctx, http.MethodPut, "/assets/"+escape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAsset removes a listing.
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/assets/"+escape(id), nil, nil, nil)
}

// AdminToggleAsset flips a listing's status from the admin console.
func (c *Client) AdminToggleAsset(ctx context.Context, id string) (*domain.Asset, error) {
	var out domain.Asset
	if err := c.do(ctx, http.MethodPatch, "/admin/assets/"+escape(id)+"/toggle-status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
