package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeAPI struct {
	mu sync.Mutex

	users      []domain.User
	userCalls  []domain.UserFilter
	roleCalls  []string
	assetCalls int
	assetErr   error

	businesses []domain.Business
	products   []domain.Asset
	toggled    []string

	queries []domain.SupportQuery
	deleted []string

	statsErr     error
	statsStarted chan struct{}
}

func (f *fakeAPI) ListUsers(_ context.Context, filter domain.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls = append(f.userCalls, filter)
	out := make([]domain.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, id string, fields map[string]interface{}) (*domain.User, error) {
	return nil, nil
}

func (f *fakeAPI) UpdateUserRole(_ context.Context, id, role string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleCalls = append(f.roleCalls, id+":"+role)
	return &domain.User{ID: id, Role: role}, nil
}

func (f *fakeAPI) ListUserAssets(context.Context, string) ([]domain.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assetCalls++
	if f.assetErr != nil {
		return nil, f.assetErr
	}
	return []domain.Asset{{ID: "a1"}}, nil
}

func (f *fakeAPI) ListUserInterests(context.Context, string) ([]domain.Lead, error) {
	return []domain.Lead{}, nil
}

func (f *fakeAPI) ListUserOrders(context.Context, string) ([]domain.Order, error) {
	return []domain.Order{{ID: "o1"}}, nil
}

func (f *fakeAPI) ListBusinesses(context.Context) ([]domain.Business, error) {
	return f.businesses, nil
}

func (f *fakeAPI) GetBusiness(_ context.Context, id string) (*domain.Business, error) {
	return &domain.Business{ID: id, Name: "Acme"}, nil
}

func (f *fakeAPI) ListBusinessProducts(context.Context, string) ([]domain.Asset, error) {
	out := make([]domain.Asset, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeAPI) AdminToggleAsset(_ context.Context, id string) (*domain.Asset, error) {
	f.toggled = append(f.toggled, id)
	return &domain.Asset{ID: id}, nil
}

func (f *fakeAPI) ListSupportQueries(context.Context) ([]domain.SupportQuery, error) {
	out := make([]domain.SupportQuery, len(f.queries))
	copy(out, f.queries)
	return out, nil
}

func (f *fakeAPI) UpdateSupportQuery(_ context.Context, id string, status domain.SupportStatus) (*domain.SupportQuery, error) {
	return &domain.SupportQuery{ID: id, Status: status}, nil
}

func (f *fakeAPI) DeleteSupportQuery(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	if f.statsStarted != nil {
		close(f.statsStarted)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &domain.AdminStats{TotalUsers: 3}, nil
}

func (f *fakeAPI) AdminActivity(context.Context) ([]domain.ActivityEntry, error) {
	return []domain.ActivityEntry{{ID: "e1", Message: "signup"}}, nil
}

func yes(c *feedback.Collector) feedback.UI {
	return feedback.UI{Confirmer: feedback.StaticConfirmer(true), Notifier: c}
}

func TestUsersTable_DebouncesToOneRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeAPI{users: []domain.User{{ID: "u1", Name: "Ann"}}}
	table := NewUsersTable(api, 30*time.Millisecond)
	defer table.Unmount()

	table.SetFilter(domain.UserFilter{Search: "a"})
	table.SetFilter(domain.UserFilter{Search: "an"})
	table.SetFilter(domain.UserFilter{Search: "ann", Role: "seller"})
	assert.True(t, table.View().Loading)

	view, err := table.Wait(context.Background(), feedback.UI{})
	require.NoError(t, err)
	assert.Len(t, view.Users, 1)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []domain.UserFilter{{Search: "ann", Role: "seller"}}, api.userCalls)
}

func TestUsersTable_UnmountStopsPendingFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeAPI{}
	table := NewUsersTable(api, time.Hour)
	table.SetFilter(domain.UserFilter{Search: "x"})
	table.Unmount()

	_, err := table.Wait(context.Background(), feedback.UI{})
	require.Error(t, err)
	assert.Empty(t, api.userCalls)
}

func TestChangeRole_AlwaysConfirmsFirst(t *testing.T) {
	api := &fakeAPI{users: []domain.User{{ID: "u1", Role: "buyer"}, {ID: "me", Role: "admin"}}}
	table := NewUsersTable(api, time.Millisecond)
	defer table.Unmount()
	_, err := table.Load(context.Background(), feedback.UI{})
	require.NoError(t, err)

	rc := &feedback.RequestConfirmer{}
	_, err = table.ChangeRole(context.Background(), feedback.UI{Confirmer: rc}, "me", "u1", "seller")
	assert.ErrorIs(t, err, feedback.ErrDeclined)
	require.NotNil(t, rc.Pending())
	assert.Empty(t, api.roleCalls)

	c := &feedback.Collector{}
	got, err := table.ChangeRole(context.Background(), yes(c), "me", "u1", "seller")
	require.NoError(t, err)
	assert.Equal(t, "seller", got.Role)
	assert.Equal(t, []string{"u1:seller"}, api.roleCalls)
	assert.Equal(t, "seller", table.View().Users[0].Role)
}

func TestChangeRole_Validation(t *testing.T) {
	api := &fakeAPI{users: []domain.User{{ID: "me", Role: "admin"}}}
	table := NewUsersTable(api, time.Millisecond)
	defer table.Unmount()
	_, err := table.Load(context.Background(), feedback.UI{})
	require.NoError(t, err)

	c := &feedback.Collector{}
	_, err = table.ChangeRole(context.Background(), yes(c), "me", "me", "buyer")
	assert.ErrorIs(t, err, ErrOwnRole)
	_, err = table.ChangeRole(context.Background(), yes(c), "me", "u1", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Empty(t, api.roleCalls)
	assert.Len(t, c.Toasts(), 2)
}

func TestUpdateUser_RejectsUnknownFields(t *testing.T) {
	api := &fakeAPI{users: []domain.User{{ID: "u1", Name: "Ann"}}}
	table := NewUsersTable(api, time.Millisecond)
	defer table.Unmount()
	_, err := table.Load(context.Background(), feedback.UI{})
	require.NoError(t, err)

	_, err = table.UpdateUser(context.Background(), yes(&feedback.Collector{}), "u1", map[string]interface{}{"role": "admin"})
	assert.ErrorIs(t, err, ErrUnknownField)

	got, err := table.UpdateUser(context.Background(), yes(&feedback.Collector{}), "u1", map[string]interface{}{"name": "Anna"})
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
}

func TestBusinessesTable_FiltersInMemory(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{businesses: []domain.Business{
		{ID: "b1", Name: "Zeta Foods", Industry: "Food", Status: "active", CreatedAt: t0},
		{ID: "b2", Name: "Alpha Tools", Industry: "Retail", Status: "pending", CreatedAt: t0.Add(time.Hour)},
		{ID: "b3", Name: "Beta Bakes", Industry: "Food", Status: "active", CreatedAt: t0.Add(2 * time.Hour), Owner: domain.Party{Name: "Cleo"}},
	}}
	table := NewBusinessesTable(api)
	defer table.Unmount()
	require.NoError(t, table.Load(context.Background(), feedback.UI{}))

	v := table.View()
	assert.Equal(t, []string{"b3", "b2", "b1"}, businessIDs(v.Businesses))
	assert.Equal(t, []string{"Food", "Retail"}, v.Industries)

	table.SetFilter(domain.BusinessFilter{Industry: "food", Sort: domain.SortName})
	assert.Equal(t, []string{"b3", "b1"}, businessIDs(table.View().Businesses))

	table.SetFilter(domain.BusinessFilter{Search: "cleo"})
	assert.Equal(t, []string{"b3"}, businessIDs(table.View().Businesses))

	table.SetFilter(domain.BusinessFilter{Status: "closed"})
	assert.True(t, table.View().Empty)
	assert.Equal(t, 3, table.View().Total)
}

func businessIDs(bs []domain.Business) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestSupportTable_ResolveAndDelete(t *testing.T) {
	api := &fakeAPI{queries: []domain.SupportQuery{
		{ID: "q1", Subject: "Login", Status: domain.SupportOpen},
		{ID: "q2", Subject: "Refund", Status: domain.SupportResolved},
	}}
	table := NewSupportTable(api)
	defer table.Unmount()
	require.NoError(t, table.Load(context.Background(), feedback.UI{}))
	assert.Equal(t, 1, table.View().Open)

	c := &feedback.Collector{}
	_, err := table.Resolve(context.Background(), yes(c), "q2")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	got, err := table.Resolve(context.Background(), yes(c), "q1")
	require.NoError(t, err)
	assert.Equal(t, domain.SupportResolved, got.Status)
	assert.Equal(t, 0, table.View().Open)

	table.SetFilter(domain.SupportFilter{Search: "refund"})
	assert.Len(t, table.View().Queries, 1)

	require.NoError(t, table.Delete(context.Background(), yes(c), "q2"))
	assert.Equal(t, []string{"q2"}, api.deleted)
	assert.True(t, table.View().Empty)
}

func TestUserDetail_FetchesTabOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeAPI{}
	d := NewUserDetail(api, "u1")
	defer d.Close()

	for i := 0; i < 3; i++ {
		data, err := d.Tab(context.Background(), feedback.UI{}, TabListings)
		require.NoError(t, err)
		assert.Len(t, data, 1)
	}
	assert.Equal(t, 1, api.assetCalls)
	assert.Equal(t, TabListings, d.Active())

	_, err := d.Tab(context.Background(), feedback.UI{}, "billing")
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestUserDetail_RetriesFailedTab(t *testing.T) {
	api := &fakeAPI{assetErr: errors.New("down")}
	d := NewUserDetail(api, "u1")
	defer d.Close()

	c := &feedback.Collector{}
	_, err := d.Tab(context.Background(), feedback.UI{Notifier: c}, TabListings)
	require.Error(t, err)
	assert.Equal(t, "Failed to load listings", c.Toasts()[0].Message)

	api.mu.Lock()
	api.assetErr = nil
	api.mu.Unlock()
	_, err = d.Tab(context.Background(), feedback.UI{}, TabListings)
	require.NoError(t, err)
	assert.Equal(t, 2, api.assetCalls)
}

func TestBusinessDetail_ToggleProductPatchesCachedTab(t *testing.T) {
	api := &fakeAPI{products: []domain.Asset{{ID: "p1", Title: "Oven", Status: domain.AssetActive}}}
	d := NewBusinessDetail(api, "b1")
	defer d.Close()

	_, err := d.Tab(context.Background(), feedback.UI{}, TabProducts)
	require.NoError(t, err)

	_, err = d.ToggleProduct(context.Background(), feedback.UI{Confirmer: feedback.StaticConfirmer(false)}, "p1")
	assert.ErrorIs(t, err, feedback.ErrDeclined)
	assert.Empty(t, api.toggled)

	got, err := d.ToggleProduct(context.Background(), yes(&feedback.Collector{}), "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.AssetInactive, got.Status)

	data, err := d.Tab(context.Background(), feedback.UI{}, TabProducts)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetInactive, data.([]domain.Asset)[0].Status)
}

func TestDashboard_PartialFailure(t *testing.T) {
	api := &fakeAPI{statsErr: errors.New("timeout")}
	c := &feedback.Collector{}
	v := NewDashboard(api).Load(context.Background(), feedback.UI{Notifier: c})

	assert.Nil(t, v.Stats)
	assert.Len(t, v.Activity, 1)
	assert.Equal(t, []string{"Failed to load stats"}, v.Errors)
	assert.Equal(t, "Failed to load stats", c.Toasts()[0].Message)
}

func TestDashboard_UnmountCancelsLoad(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := &fakeAPI{statsStarted: make(chan struct{})}
	c := &feedback.Collector{}
	d := NewDashboard(api)

	done := make(chan DashboardView)
	go func() { done <- d.Load(context.Background(), feedback.UI{Notifier: c}) }()
	<-api.statsStarted
	d.Unmount()

	v := <-done
	assert.Nil(t, v.Stats)
	assert.Empty(t, v.Activity)
	assert.Empty(t, v.Errors)
	assert.Empty(t, c.Toasts())

	again := d.Load(context.Background(), feedback.UI{Notifier: c})
	assert.Empty(t, again.Errors)
}
