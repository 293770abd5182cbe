package admin

import (
	"context"
	"fmt"
	"sync"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/domain"
)

const (
	TabListings = "listings"
	TabLeads    = "leads"
	TabOrders   = "orders"
	TabOverview = "overview"
	TabProducts = "products"
)

// tabLoad is one tab's fetch. Concurrent activations share it.
type tabLoad struct {
	done chan struct{}
	data interface{}
	err  error
}

// lazyTabs fetches a tab on first activation and caches the result.
// A failed fetch is forgotten so the next activation retries.
type lazyTabs struct {
	life *mount.Lifetime

	mu     sync.Mutex
	tabs   map[string]*tabLoad
	active string
}

func newLazyTabs() *lazyTabs {
	return &lazyTabs{life: mount.New(), tabs: map[string]*tabLoad{}}
}

func (l *lazyTabs) activate(ctx context.Context, tab string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	if l.life.Closed() {
		return nil, mount.ErrUnmounted
	}
	l.mu.Lock()
	l.active = tab
	load, ok := l.tabs[tab]
	if !ok {
		load = &tabLoad{done: make(chan struct{})}
		l.tabs[tab] = load
		go func() {
			ctx, cancel := l.life.Scope(context.Background())
			defer cancel()
			load.data, load.err = fetch(ctx)
			if load.err != nil {
				l.mu.Lock()
				if l.tabs[tab] == load {
					delete(l.tabs, tab)
				}
				l.mu.Unlock()
			}
			close(load.done)
		}()
	}
	l.mu.Unlock()

	select {
	case <-load.done:
		return load.data, load.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.life.Done():
		return nil, mount.ErrUnmounted
	}
}

// cached returns a tab's data if it finished loading.
func (l *lazyTabs) cached(tab string) (interface{}, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	load, ok := l.tabs[tab]
	if !ok {
		return nil, false
	}
	select {
	case <-load.done:
		return load.data, load.err == nil
	default:
		return nil, false
	}
}

// update rewrites a loaded tab's data in place.
func (l *lazyTabs) update(tab string, fn func(interface{}) interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	load, ok := l.tabs[tab]
	if !ok {
		return
	}
	select {
	case <-load.done:
		if load.err == nil {
			load.data = fn(load.data)
		}
	default:
	}
}

func (l *lazyTabs) Active() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Close unmounts the modal.
func (l *lazyTabs) Close() {
	l.life.Close()
}

// UserDetail is the admin user modal.
type UserDetail struct {
	*lazyTabs
	api    UserDetailAPI
	UserID string
}

func NewUserDetail(api UserDetailAPI, userID string) *UserDetail {
	return &UserDetail{lazyTabs: newLazyTabs(), api: api, UserID: userID}
}

// Tab returns a tab's rows, fetching them on first activation only.
func (d *UserDetail) Tab(ctx context.Context, ui feedback.UI, tab string) (interface{}, error) {
	var fetch func(context.Context) (interface{}, error)
	switch tab {
	case TabListings:
		fetch = func(ctx context.Context) (interface{}, error) { return d.api.ListUserAssets(ctx, d.UserID) }
	case TabLeads:
		fetch = func(ctx context.Context) (interface{}, error) { return d.api.ListUserInterests(ctx, d.UserID) }
	case TabOrders:
		fetch = func(ctx context.Context) (interface{}, error) { return d.api.ListUserOrders(ctx, d.UserID) }
	default:
		return nil, ErrUnknownTab
	}
	data, err := d.activate(ctx, tab, fetch)
	if err != nil {
		feedback.Failed(ui, "Failed to load "+tab)
		return nil, fmt.Errorf("user %s %s: %w", d.UserID, tab, err)
	}
	return data, nil
}

// BusinessDetail is the admin business modal.
type BusinessDetail struct {
	*lazyTabs
	api        BusinessDetailAPI
	BusinessID string

	toggling sync.Map
}

func NewBusinessDetail(api BusinessDetailAPI, businessID string) *BusinessDetail {
	return &BusinessDetail{lazyTabs: newLazyTabs(), api: api, BusinessID: businessID}
}

func (d *BusinessDetail) Tab(ctx context.Context, ui feedback.UI, tab string) (interface{}, error) {
	var fetch func(context.Context) (interface{}, error)
	switch tab {
	case TabOverview:
		fetch = func(ctx context.Context) (interface{}, error) { return d.api.GetBusiness(ctx, d.BusinessID) }
	case TabProducts:
		fetch = func(ctx context.Context) (interface{}, error) { return d.api.ListBusinessProducts(ctx, d.BusinessID) }
	default:
		return nil, ErrUnknownTab
	}
	data, err := d.activate(ctx, tab, fetch)
	if err != nil {
		feedback.Failed(ui, "Failed to load "+tab)
		return nil, fmt.Errorf("business %s %s: %w", d.BusinessID, tab, err)
	}
	return data, nil
}

// ToggleProduct flips a product's status from the admin side and patches the
// cached products tab.
func (d *BusinessDetail) ToggleProduct(ctx context.Context, ui feedback.UI, productID string) (domain.Asset, error) {
	if _, running := d.toggling.LoadOrStore(productID, true); running {
		return domain.Asset{}, ErrBusy
	}
	defer d.toggling.Delete(productID)

	product, known := d.product(productID)
	title := productID
	if known {
		title = product.Title
	}
	err := ui.Confirm(ctx, feedback.Prompt{
		Title:        "Toggle product status",
		Message:      fmt.Sprintf("Toggle the status of %q?", title),
		ConfirmLabel: "Toggle",
	})
	if err != nil {
		return product, err
	}

	ctx, cancel := d.life.Scope(ctx)
	defer cancel()
	resp, err := d.api.AdminToggleAsset(ctx, productID)
	if err != nil {
		feedback.Failed(ui, "Failed to update product status")
		return product, fmt.Errorf("toggle product %s: %w", productID, err)
	}
	status := product.Status.Toggled()
	if resp != nil && resp.Status != "" {
		status = resp.Status
	}
	product.ID = productID
	product.Status = status
	d.update(TabProducts, func(v interface{}) interface{} {
		rows, _ := v.([]domain.Asset)
		out := make([]domain.Asset, len(rows))
		copy(out, rows)
		for i := range out {
			if out[i].ID == productID {
				out[i].Status = status
				product = out[i]
			}
		}
		return out
	})
	feedback.Succeeded(ui, "Product status updated")
	return product, nil
}

func (d *BusinessDetail) product(id string) (domain.Asset, bool) {
	v, ok := d.cached(TabProducts)
	if !ok {
		return domain.Asset{}, false
	}
	rows, _ := v.([]domain.Asset)
	for _, a := range rows {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Asset{}, false
}
