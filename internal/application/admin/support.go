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

// SupportTable fetches the support inbox once and filters in memory.
type SupportTable struct {
	api  SupportAPI
	life *mount.Lifetime

	mu     sync.RWMutex
	all    []domain.SupportQuery
	filter domain.SupportFilter
	loaded bool
	busy   map[string]bool
}

func NewSupportTable(api SupportAPI) *SupportTable {
	return &SupportTable{api: api, life: mount.New(), busy: map[string]bool{}}
}

type SupportView struct {
	Filter  domain.SupportFilter  `json:"filter"`
	Queries []domain.SupportQuery `json:"queries"`
	Open    int                   `json:"open"`
	Total   int                   `json:"total"`
	Loaded  bool                  `json:"loaded"`
	Empty   bool                  `json:"empty"`
}

func (t *SupportTable) Load(ctx context.Context, ui feedback.UI) error {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}
	return t.Refresh(ctx, ui)
}

func (t *SupportTable) Refresh(ctx context.Context, ui feedback.UI) error {
	if t.life.Closed() {
		return mount.ErrUnmounted
	}
	ctx, cancel := t.life.Scope(ctx)
	defer cancel()
	all, err := t.api.ListSupportQueries(ctx)
	if t.life.Closed() {
		return mount.ErrUnmounted
	}
	if err != nil {
		feedback.Failed(ui, "Failed to load support queries")
		return fmt.Errorf("load support queries: %w", err)
	}
	t.mu.Lock()
	t.all = all
	t.loaded = true
	t.mu.Unlock()
	return nil
}

func (t *SupportTable) SetFilter(f domain.SupportFilter) {
	t.mu.Lock()
	t.filter = f
	t.mu.Unlock()
}

func (t *SupportTable) View() SupportView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := filterSupport(t.all, t.filter)
	open := 0
	for _, q := range t.all {
		if q.Status != domain.SupportResolved {
			open++
		}
	}
	return SupportView{
		Filter:  t.filter,
		Queries: rows,
		Open:    open,
		Total:   len(t.all),
		Loaded:  t.loaded,
		Empty:   t.loaded && len(rows) == 0,
	}
}

func (t *SupportTable) Unmount() {
	t.life.Close()
}

// Resolve marks a query resolved.
func (t *SupportTable) Resolve(ctx context.Context, ui feedback.UI, id string) (domain.SupportQuery, error) {
	q, err := t.begin(id)
	if err != nil {
		return domain.SupportQuery{}, err
	}
	defer t.end(id)
	if q.Status == domain.SupportResolved {
		feedback.Failed(ui, ErrAlreadyResolved.Error())
		return q, ErrAlreadyResolved
	}
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Resolve query",
		Message:      fmt.Sprintf("Mark %q from %s as resolved?", q.Subject, q.Email),
		ConfirmLabel: "Resolve",
	})
	if err != nil {
		return q, err
	}

	ctx, cancel := t.life.Scope(ctx)
	defer cancel()
	resp, err := t.api.UpdateSupportQuery(ctx, id, domain.SupportResolved)
	if err != nil {
		feedback.Failed(ui, "Failed to resolve query")
		return q, fmt.Errorf("resolve support query %s: %w", id, err)
	}
	status := domain.SupportResolved
	if resp != nil && resp.Status != "" {
		status = resp.Status
	}
	var updated domain.SupportQuery
	t.mu.Lock()
	if i := t.index(id); i >= 0 {
		t.all[i].Status = status
		updated = t.all[i]
	}
	t.mu.Unlock()
	feedback.Succeeded(ui, "Query resolved")
	return updated, nil
}

// Delete removes a query after the server deleted it.
func (t *SupportTable) Delete(ctx context.Context, ui feedback.UI, id string) error {
	q, err := t.begin(id)
	if err != nil {
		return err
	}
	defer t.end(id)
	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Delete query",
		Message:      fmt.Sprintf("Delete %q from %s? This cannot be undone.", q.Subject, q.Email),
		ConfirmLabel: "Delete",
		Destructive:  true,
	})
	if err != nil {
		return err
	}

	ctx, cancel := t.life.Scope(ctx)
	defer cancel()
	if err := t.api.DeleteSupportQuery(ctx, id); err != nil {
		feedback.Failed(ui, "Failed to delete query")
		return fmt.Errorf("delete support query %s: %w", id, err)
	}
	t.mu.Lock()
	if i := t.index(id); i >= 0 {
		t.all = append(t.all[:i:i], t.all[i+1:]...)
	}
	t.mu.Unlock()
	feedback.Succeeded(ui, "Query deleted")
	return nil
}

func (t *SupportTable) index(id string) int {
	for i := range t.all {
		if t.all[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *SupportTable) begin(id string) (domain.SupportQuery, error) {
	if t.life.Closed() {
		return domain.SupportQuery{}, mount.ErrUnmounted
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(id)
	if i < 0 {
		return domain.SupportQuery{}, ErrQueryNotFound
	}
	if t.busy[id] {
		return domain.SupportQuery{}, ErrBusy
	}
	t.busy[id] = true
	return t.all[i], nil
}

func (t *SupportTable) end(id string) {
	t.mu.Lock()
	delete(t.busy, id)
	t.mu.Unlock()
}

func filterSupport(all []domain.SupportQuery, f domain.SupportFilter) []domain.SupportQuery {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.SupportQuery, 0, len(all))
	for _, q := range all {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if search != "" && !containsAny(search, q.Name, q.Email, q.Subject, q.Message) {
			continue
		}
		out = append(out, q)
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
