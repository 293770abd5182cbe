package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/domain"
)

// BusinessesTable fetches every business once and filters in memory.
type BusinessesTable struct {
	api  BusinessesAPI
	life *mount.Lifetime

	mu     sync.RWMutex
	all    []domain.Business
	filter domain.BusinessFilter
	loaded bool
}

func NewBusinessesTable(api BusinessesAPI) *BusinessesTable {
	return &BusinessesTable{api: api, life: mount.New()}
}

type BusinessesView struct {
	Filter     domain.BusinessFilter `json:"filter"`
	Businesses []domain.Business     `json:"businesses"`
	Total      int                   `json:"total"`
	Industries []string              `json:"industries"`
	Loaded     bool                  `json:"loaded"`
	Empty      bool                  `json:"empty"`
}

// Load fetches once; later calls reuse the rows.
func (t *BusinessesTable) Load(ctx context.Context, ui feedback.UI) error {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}
	return t.Refresh(ctx, ui)
}

func (t *BusinessesTable) Refresh(ctx context.Context, ui feedback.UI) error {
	if t.life.Closed() {
		return mount.ErrUnmounted
	}
	ctx, cancel := t.life.Scope(ctx)
	defer cancel()
	all, err := t.api.ListBusinesses(ctx)
	if t.life.Closed() {
		return mount.ErrUnmounted
	}
	if err != nil {
		feedback.Failed(ui, "Failed to load businesses")
		return fmt.Errorf("load businesses: %w", err)
	}
	t.mu.Lock()
	t.all = all
	t.loaded = true
	t.mu.Unlock()
	return nil
}

func (t *BusinessesTable) SetFilter(f domain.BusinessFilter) {
	t.mu.Lock()
	t.filter = f
	t.mu.Unlock()
}

func (t *BusinessesTable) View() BusinessesView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := filterBusinesses(t.all, t.filter)
	return BusinessesView{
		Filter:     t.filter,
		Businesses: rows,
		Total:      len(t.all),
		Industries: industries(t.all),
		Loaded:     t.loaded,
		Empty:      t.loaded && len(rows) == 0,
	}
}

func (t *BusinessesTable) Unmount() {
	t.life.Close()
}

func filterBusinesses(all []domain.Business, f domain.BusinessFilter) []domain.Business {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Business, 0, len(all))
	for _, b := range all {
		if f.Industry != "" && !strings.EqualFold(b.Industry, f.Industry) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(b.Status, f.Status) {
			continue
		}
		if search != "" && !containsAny(search, b.Name, b.Industry, b.Location, b.Owner.Name, b.Owner.Email) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch f.Sort {
		case domain.SortOldest:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case domain.SortName:
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out
}

func industries(all []domain.Business) []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range all {
		if b.Industry == "" || seen[b.Industry] {
			continue
		}
		seen[b.Industry] = true
		out = append(out, b.Industry)
	}
	sort.Strings(out)
	return out
}

// containsAny reports whether the lower-case needle occurs in any field.
func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
