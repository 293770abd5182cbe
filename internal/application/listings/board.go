// Package listings is the seller's listing board for one business.
package listings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/domain"
)

var (
	ErrNoBusiness      = errors.New("No business selected")
	ErrListingNotFound = errors.New("Listing not found")
	ErrBusy            = errors.New("Another action is already running for this listing")
	ErrInvalidPrices   = errors.New("Minimum price cannot exceed maximum price")
)

// API is the part of the marketplace API the board needs.
type API interface {
	ListBusinessAssets(ctx context.Context, businessID string, f domain.ListingFilter) ([]domain.Asset, error)
	UpdateAssetStatus(ctx context.Context, id string, status domain.AssetStatus) (*domain.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
}

type Board struct {
	api  API
	life *mount.Lifetime

	mu         sync.RWMutex
	businessID string
	draft      domain.ListingFilter
	applied    domain.ListingFilter
	assets     []domain.Asset
	loaded     bool
	refetching bool
	gen        uint64
	busy       map[string]bool
}

func NewBoard(api API) *Board {
	return &Board{api: api, life: mount.New(), busy: map[string]bool{}}
}

type View struct {
	BusinessID string               `json:"businessId"`
	Draft      domain.ListingFilter `json:"draft"`
	Filter     domain.ListingFilter `json:"filter"`
	Listings   []domain.Asset       `json:"listings"`
	Loaded     bool                 `json:"loaded"`
	Refetching bool                 `json:"refetching"`
	Empty      bool                 `json:"empty"`
}

func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	assets := make([]domain.Asset, len(b.assets))
	copy(assets, b.assets)
	return View{
		BusinessID: b.businessID,
		Draft:      b.draft,
		Filter:     b.applied,
		Listings:   assets,
		Loaded:     b.loaded,
		Refetching: b.refetching,
		Empty:      b.loaded && len(b.assets) == 0,
	}
}

func (b *Board) Listing(id string) (domain.Asset, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.index(id); i >= 0 {
		return b.assets[i], true
	}
	return domain.Asset{}, false
}

// SetBusiness resets the filter and loads the business's listings.
func (b *Board) SetBusiness(ctx context.Context, ui feedback.UI, businessID string) error {
	if businessID == "" {
		return ErrNoBusiness
	}
	b.mu.Lock()
	if b.businessID == businessID && (b.loaded || b.refetching) {
		b.mu.Unlock()
		return nil
	}
	b.businessID = businessID
	b.draft = domain.ListingFilter{}
	b.applied = domain.ListingFilter{}
	b.assets = nil
	b.loaded = false
	b.mu.Unlock()
	return b.fetch(ctx, ui)
}

func (b *Board) SetFilter(f domain.ListingFilter) {
	b.mu.Lock()
	b.draft = f
	b.mu.Unlock()
}

func (b *Board) Apply(ctx context.Context, ui feedback.UI) error {
	b.mu.Lock()
	f := b.draft
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		b.mu.Unlock()
		feedback.Failed(ui, ErrInvalidPrices.Error())
		return ErrInvalidPrices
	}
	b.applied = f
	b.mu.Unlock()
	return b.fetch(ctx, ui)
}

func (b *Board) Clear(ctx context.Context, ui feedback.UI) error {
	b.mu.Lock()
	b.draft = domain.ListingFilter{}
	b.applied = domain.ListingFilter{}
	b.mu.Unlock()
	return b.fetch(ctx, ui)
}

func (b *Board) Refresh(ctx context.Context, ui feedback.UI) error {
	return b.fetch(ctx, ui)
}

func (b *Board) fetch(ctx context.Context, ui feedback.UI) error {
	if b.life.Closed() {
		return mount.ErrUnmounted
	}
	b.mu.Lock()
	if b.businessID == "" {
		b.mu.Unlock()
		return ErrNoBusiness
	}
	b.gen++
	gen := b.gen
	b.refetching = true
	businessID, filter := b.businessID, b.applied
	b.mu.Unlock()

	ctx, cancel := b.life.Scope(ctx)
	defer cancel()
	assets, err := b.api.ListBusinessAssets(ctx, businessID, filter)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.life.Closed() {
		return mount.ErrUnmounted
	}
	if gen != b.gen {
		return nil
	}
	b.refetching = false
	if err != nil {
		feedback.Failed(ui, "Failed to load listings")
		return fmt.Errorf("load listings: %w", err)
	}
	b.assets = assets
	b.loaded = true
	return nil
}

func (b *Board) Unmount() {
	b.life.Close()
}

// ToggleStatus flips active/inactive. The row changes only once the server
// acknowledged; on failure the board is reloaded to resync.
func (b *Board) ToggleStatus(ctx context.Context, ui feedback.UI, id string) (domain.Asset, error) {
	asset, err := b.begin(id)
	if err != nil {
		return domain.Asset{}, err
	}
	defer b.end(id)

	next := asset.Status.Toggled()
	verb := "Deactivate"
	if next == domain.AssetActive {
		verb = "Activate"
	}
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        verb + " listing",
		Message:      fmt.Sprintf("%s %q?", verb, asset.Title),
		ConfirmLabel: verb,
	})
	if err != nil {
		return asset, err
	}

	scoped, cancel := b.life.Scope(ctx)
	resp, err := b.api.UpdateAssetStatus(scoped, id, next)
	cancel()
	if err != nil {
		feedback.Failed(ui, "Failed to update listing status")
		if rerr := b.fetch(ctx, feedback.UI{}); rerr != nil && !errors.Is(rerr, mount.ErrUnmounted) {
			feedback.Failed(ui, "Failed to load listings")
		}
		return asset, fmt.Errorf("update listing %s: %w", id, err)
	}

	status := next
	if resp != nil && resp.Status != "" {
		status = resp.Status
	}
	var updated domain.Asset
	b.patch(id, func(a domain.Asset) domain.Asset {
		a.Status = status
		updated = a
		return a
	})
	feedback.Succeeded(ui, "Listing status updated")
	return updated, nil
}

// Delete removes a listing after the server deleted it.
func (b *Board) Delete(ctx context.Context, ui feedback.UI, id string) error {
	asset, err := b.begin(id)
	if err != nil {
		return err
	}
	defer b.end(id)

	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Delete listing",
		Message:      fmt.Sprintf("Delete %q? This cannot be undone.", asset.Title),
		ConfirmLabel: "Delete",
		Destructive:  true,
	})
	if err != nil {
		return err
	}

	ctx, cancel := b.life.Scope(ctx)
	defer cancel()
	if err := b.api.DeleteAsset(ctx, id); err != nil {
		feedback.Failed(ui, "Failed to delete listing")
		return fmt.Errorf("delete listing %s: %w", id, err)
	}

	b.mu.Lock()
	if i := b.index(id); i >= 0 {
		b.assets = append(b.assets[:i:i], b.assets[i+1:]...)
	}
	b.mu.Unlock()
	feedback.Succeeded(ui, "Listing deleted")
	return nil
}

func (b *Board) index(id string) int {
	for i := range b.assets {
		if b.assets[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) begin(id string) (domain.Asset, error) {
	if b.life.Closed() {
		return domain.Asset{}, mount.ErrUnmounted
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return domain.Asset{}, ErrListingNotFound
	}
	if b.busy[id] {
		return domain.Asset{}, ErrBusy
	}
	b.busy[id] = true
	return b.assets[i], nil
}

func (b *Board) end(id string) {
	b.mu.Lock()
	delete(b.busy, id)
	b.mu.Unlock()
}

func (b *Board) patch(id string, fn func(domain.Asset) domain.Asset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		b.assets[i] = fn(b.assets[i])
	}
}
