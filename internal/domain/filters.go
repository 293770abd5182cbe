package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// LeadFilter is the seller lead filter panel.
type LeadFilter struct {
	Status      LeadStatus  `json:"status" query:"status"`
	SalesStatus SalesStatus `json:"salesStatus" query:"salesStatus"`
	Search      string      `json:"search" query:"search"`
}

// Query serializes the filter; empty fields are omitted.
func (f LeadFilter) Query() url.Values {
	q := url.Values{}
	set(q, "status", string(f.Status))
	set(q, "salesStatus", string(f.SalesStatus))
	set(q, "search", strings.TrimSpace(f.Search))
	return q
}

// IsZero reports whether no filter is active.
func (f LeadFilter) IsZero() bool {
	return len(f.Query()) == 0
}

// ListingFilter is the seller listing filter panel. Price bounds are optional.
type ListingFilter struct {
	Search   string      `json:"search" query:"search"`
	Status   AssetStatus `json:"status" query:"status"`
	Category string      `json:"category" query:"category"`
	MinPrice *float64    `json:"minPrice" query:"minPrice"`
	MaxPrice *float64    `json:"maxPrice" query:"maxPrice"`
}

func (f ListingFilter) Query() url.Values {
	q := url.Values{}
	set(q, "search", strings.TrimSpace(f.Search))
	set(q, "status", string(f.Status))
	set(q, "category", f.Category)
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	return q
}

func (f ListingFilter) IsZero() bool {
	return len(f.Query()) == 0
}

// UserFilter is sent to the server on every change (admin users table).
type UserFilter struct {
	Search string `json:"search" query:"search"`
	Role   string `json:"role" query:"role"`
}

func (f UserFilter) Query() url.Values {
	q := url.Values{}
	set(q, "search", strings.TrimSpace(f.Search))
	set(q, "role", f.Role)
	return q
}

// Sort orders for in-memory admin tables.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

// BusinessFilter is applied in memory by the admin businesses table.
type BusinessFilter struct {
	Search   string `json:"search" query:"search"`
	Industry string `json:"industry" query:"industry"`
	Status   string `json:"status" query:"status"`
	Sort     string `json:"sort" query:"sort"`
}

// SupportFilter is applied in memory by the admin support table.
type SupportFilter struct {
	Search string        `json:"search" query:"search"`
	Status SupportStatus `json:"status" query:"status"`
	Sort   string        `json:"sort" query:"sort"`
}

func set(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
