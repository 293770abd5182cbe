// Package admin holds the admin console view models: the users,
// businesses and support tables, the detail modals and the dashboard.
package admin

import (
	"context"
	"errors"

	"marketdesk/internal/domain"
)

var (
	ErrInvalidRole     = errors.New("Role must be one of buyer, seller or admin")
	ErrOwnRole         = errors.New("You cannot change your own role")
	ErrUnknownField    = errors.New("Field cannot be edited")
	ErrInvalidEmail    = errors.New("Invalid email format")
	ErrUserNotFound    = errors.New("User not found")
	ErrQueryNotFound   = errors.New("Support query not found")
	ErrProductNotFound = errors.New("Product not found")
	ErrUnknownTab      = errors.New("Unknown tab")
	ErrBusy            = errors.New("Another action is already running for this row")
	ErrAlreadyResolved = errors.New("Support query is already resolved")
)

type UsersAPI interface {
	ListUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*domain.User, error)
	UpdateUserRole(ctx context.Context, id, role string) (*domain.User, error)
}

type UserDetailAPI interface {
	ListUserAssets(ctx context.Context, userID string) ([]domain.Asset, error)
	ListUserInterests(ctx context.Context, userID string) ([]domain.Lead, error)
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

type BusinessesAPI interface {
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
}

type BusinessDetailAPI interface {
	GetBusiness(ctx context.Context, id string) (*domain.Business, error)
	ListBusinessProducts(ctx context.Context, id string) ([]domain.Asset, error)
	AdminToggleAsset(ctx context.Context, id string) (*domain.Asset, error)
}

type SupportAPI interface {
	ListSupportQueries(ctx context.Context) ([]domain.SupportQuery, error)
	UpdateSupportQuery(ctx context.Context, id string, status domain.SupportStatus) (*domain.SupportQuery, error)
	DeleteSupportQuery(ctx context.Context, id string) error
}

type DashboardAPI interface {
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
	AdminActivity(ctx context.Context) ([]domain.ActivityEntry, error)
}

// API is everything the admin console uses. The marketplace client implements it.
type API interface {
	UsersAPI
	UserDetailAPI
	BusinessesAPI
	BusinessDetailAPI
	SupportAPI
	DashboardAPI
}
