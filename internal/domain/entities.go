package domain

import (
	"encoding/json"
	"time"
)

// User is an account as the admin console and profile screens see it.
// Achievements and TrustScore are computed elsewhere and only displayed.
type User struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	Role         string          `json:"role"`
	BusinessID   string          `json:"business,omitempty"`
	Status       string          `json:"status,omitempty"`
	Avatar       string          `json:"avatar,omitempty"`
	Achievements json.RawMessage `json:"achievements,omitempty"`
	TrustScore   *float64        `json:"trustScore,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Business is a seller-owned storefront.
type Business struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry,omitempty"`
	Status      string    `json:"status,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Owner       Party     `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AssetStatus is the visibility of a listing.
type AssetStatus string

const (
	AssetActive   AssetStatus = "active"
	AssetInactive AssetStatus = "inactive"
)

// Toggled returns the opposite visibility.
func (s AssetStatus) Toggled() AssetStatus {
	if s == AssetActive {
		return AssetInactive
	}
	return AssetActive
}

// Asset is a listing offered by a business.
type Asset struct {
	ID          string      `json:"_id"`
	BusinessID  string      `json:"business,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	Price       float64     `json:"price"`
	Quantity    int         `json:"quantity"`
	Status      AssetStatus `json:"status"`
	Images      []string    `json:"images,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// SupportStatus of a support query.
type SupportStatus string

const (
	SupportOpen     SupportStatus = "open"
	SupportResolved SupportStatus = "resolved"
)

// SupportQuery is a contact/support request submitted by a visitor.
type SupportQuery struct {
	ID        string        `json:"_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    SupportStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Order is a buyer's purchase shown in the admin user modal.
type Order struct {
	ID        string    `json:"_id"`
	Asset     AssetRef  `json:"asset"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminStats are the dashboard counters.
type AdminStats struct {
	TotalUsers      int     `json:"totalUsers"`
	TotalBusinesses int     `json:"totalBusinesses"`
	TotalAssets     int     `json:"totalAssets"`
	TotalLeads      int     `json:"totalLeads"`
	TotalSales      int     `json:"totalSales"`
	Revenue         float64 `json:"revenue"`
	OpenQueries     int     `json:"openQueries"`
}

// ActivityEntry is one line of the admin activity feed.
type ActivityEntry struct {
	ID        string    `json:"_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
