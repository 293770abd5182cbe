package marketapi

import (
	"context"
	"net/http"

	"marketdesk/internal/domain"
)

func (c *Client) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var out domain.AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminActivity(ctx context.Context) ([]domain.ActivityEntry, error) {
	var out []domain.ActivityEntry
	if err := c.do(ctx, http.MethodGet, "/admin/activity", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers is filtered server-side.
func (c *Client) ListUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	var out []domain.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+escape(id), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, id, role string) (*domain.User, error) {
	var out domain.User
	body := map[string]string{"role": role}
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+escape(id)+"/role", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUserAssets(ctx context.Context, userID string) ([]domain.Asset, error) {
	var out []domain.Asset
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+escape(userID)+"/listings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+escape(userID)+"/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	var out []domain.Business
	if err := c.do(ctx, http.MethodGet, "/admin/businesses", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	var out domain.Business
	if err := c.do(ctx, http.MethodGet, "/admin/businesses/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBusinessProducts(ctx context.Context, id string) ([]domain.Asset, error) {
	var out []domain.Asset
	if err := c.do(ctx, http.MethodGet, "/admin/businesses/"+escape(id)+"/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSupportQueries(ctx context.Context) ([]domain.SupportQuery, error) {
	var out []domain.SupportQuery
	if err := c.do(ctx, http.MethodGet, "/admin/support", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateSupportQuery(ctx context.Context, id string, status domain.SupportStatus) (*domain.SupportQuery, error) {
	var out domain.SupportQuery
	body := map[string]domain.SupportStatus{"status": status}
	if err := c.do(ctx, http.MethodPut, "/admin/support/"+escape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSupportQuery(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/support/"+escape(id), nil, nil, nil)
}
