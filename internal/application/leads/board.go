// Package leads is the seller's lead board: the filtered list of buyer
// interests for one business, and every action a seller takes on a lead.
package leads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/domain"
)

// API is the part of the marketplace API the board needs.
type API interface {
	ListBusinessInterests(ctx context.Context, businessID string, f domain.LeadFilter) ([]domain.Lead, error)
	UpdateInterestStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error)
	CreateSale(ctx context.Context, in domain.CreateSaleInput) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
}

// Board holds the lead list of the active business.
type Board struct {
	api  API
	life *mount.Lifetime

	mu         sync.RWMutex
	businessID string
	draft      domain.LeadFilter
	applied    domain.LeadFilter
	leads      []domain.Lead
	loaded     bool
	refetching bool
	gen        uint64
	expanded   string
	busy       map[string]bool
}

func NewBoard(api API) *Board {
	return &Board{api: api, life: mount.New(), busy: map[string]bool{}}
}

// View is a snapshot of the board for rendering.
type View struct {
	BusinessID string            `json:"businessId"`
	Draft      domain.LeadFilter `json:"draft"`
	Filter     domain.LeadFilter `json:"filter"`
	Leads      []domain.Lead     `json:"leads"`
	Expanded   string            `json:"expanded,omitempty"`
	Loaded     bool              `json:"loaded"`
	Refetching bool              `json:"refetching"`
	Empty      bool              `json:"empty"`
}

func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	leads := make([]domain.Lead, len(b.leads))
	copy(leads, b.leads)
	return View{
		BusinessID: b.businessID,
		Draft:      b.draft,
		Filter:     b.applied,
		Leads:      leads,
		Expanded:   b.expanded,
		Loaded:     b.loaded,
		Refetching: b.refetching,
		Empty:      b.loaded && len(b.leads) == 0,
	}
}

// Lead returns one row of the current list.
func (b *Board) Lead(id string) (domain.Lead, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := b.index(id)
	if i < 0 {
		return domain.Lead{}, false
	}
	return b.leads[i], true
}

// SetBusiness switches the board to a business. Filters are reset and the
// full collection is fetched. Selecting the shown business again is a no-op.
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
	b.draft = domain.LeadFilter{}
	b.applied = domain.LeadFilter{}
	b.leads = nil
	b.loaded = false
	b.expanded = ""
	b.mu.Unlock()
	return b.fetch(ctx, ui)
}

// SetFilter edits the filter panel without fetching.
func (b *Board) SetFilter(f domain.LeadFilter) {
	b.mu.Lock()
	b.draft = f
	b.mu.Unlock()
}

// Apply fetches with the edited filter.
func (b *Board) Apply(ctx context.Context, ui feedback.UI) error {
	b.mu.Lock()
	b.applied = b.draft
	b.mu.Unlock()
	return b.fetch(ctx, ui)
}

// Clear resets the filter and fetches the full collection.
func (b *Board) Clear(ctx context.Context, ui feedback.UI) error {
	b.mu.Lock()
	b.draft = domain.LeadFilter{}
	b.applied = domain.LeadFilter{}
	b.mu.Unlock()
	return b.fetch(ctx, ui)
}

// Refresh refetches with the applied filter.
func (b *Board) Refresh(ctx context.Context, ui feedback.UI) error {
	return b.fetch(ctx, ui)
}

// fetch keeps the current rows visible while the request runs. Only the
// newest fetch may replace them.
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
	leads, err := b.api.ListBusinessInterests(ctx, businessID, filter)

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
		feedback.Failed(ui, "Failed to load leads")
		return fmt.Errorf("load leads: %w", err)
	}
	sortNewestFirst(leads)
	b.leads = leads
	b.loaded = true
	if b.expanded != "" && b.index(b.expanded) < 0 {
		b.expanded = ""
	}
	return nil
}

// Toggle expands a row, collapsing any other. Toggling the expanded row
// collapses it. Returns the expanded id ("" when none).
func (b *Board) Toggle(id string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.expanded == id {
		b.expanded = ""
	} else {
		b.expanded = id
	}
	return b.expanded
}

// Unmount cancels in-flight requests; late results are dropped.
func (b *Board) Unmount() {
	b.life.Close()
}

func (b *Board) index(id string) int {
	for i := range b.leads {
		if b.leads[i].ID == id {
			return i
		}
	}
	return -1
}

// begin marks a row busy and returns a copy of it.
func (b *Board) begin(id string) (domain.Lead, error) {
	if b.life.Closed() {
		return domain.Lead{}, mount.ErrUnmounted
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return domain.Lead{}, ErrLeadNotFound
	}
	if b.busy[id] {
		return domain.Lead{}, ErrBusy
	}
	b.busy[id] = true
	return b.leads[i], nil
}

func (b *Board) end(id string) {
	b.mu.Lock()
	delete(b.busy, id)
	b.mu.Unlock()
}

func (b *Board) patch(id string, fn func(domain.Lead) domain.Lead) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		b.leads[i] = fn(b.leads[i])
	}
}

func sortNewestFirst(leads []domain.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.After(leads[j].CreatedAt)
		}
		return leads[i].ID < leads[j].ID
	})
}

// toastError shows msg for a rejected precondition and returns err.
func toastError(ui feedback.UI, err error) error {
	if !errors.Is(err, feedback.ErrDeclined) {
		feedback.Failed(ui, err.Error())
	}
	return err
}
