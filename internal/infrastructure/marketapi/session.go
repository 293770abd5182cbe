package marketapi

import (
	"context"
	"net/http"

	"marketdesk/internal/domain"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

type userEnvelope struct {
	User domain.User `json:"user"`
}

// Me returns the user behind the current session cookies.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and captures the session cookie.
func (c *Client) Login(ctx context.Context, in Credentials) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, in Registration) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout ends the upstream session. Local cookies are dropped even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.ClearCookies()
	return err
}
