// Package workspace keeps the live view models of every console session.
// A workspace is what a browser tab would hold in component state; closing
// it unmounts all of them.
package workspace

import (
	"sync"
	"time"

	"marketdesk/internal/application/admin"
	"marketdesk/internal/application/leads"
	"marketdesk/internal/application/listings"
	"marketdesk/internal/application/session"
	"marketdesk/internal/infrastructure/marketapi"
)

// Workspace is one console session. View models are created on first use.
type Workspace struct {
	ID      string
	API     *marketapi.Client
	Session *session.Store

	debounce time.Duration

	mu         sync.Mutex
	lastSeen   time.Time
	closed     bool
	leads      *leads.Board
	listings   *listings.Board
	users      *admin.UsersTable
	businesses *admin.BusinessesTable
	support    *admin.SupportTable
	dashboard  *admin.Dashboard
	userModal  *admin.UserDetail
	bizModal   *admin.BusinessDetail
}

func newWorkspace(id string, api *marketapi.Client, debounce time.Duration, now time.Time) *Workspace {
	return &Workspace{
		ID:       id,
		API:      api,
		Session:  session.NewStore(api),
		debounce: debounce,
		lastSeen: now,
	}
}

func (w *Workspace) Leads() *leads.Board {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.leads == nil {
		w.leads = leads.NewBoard(w.API)
	}
	return w.leads
}

func (w *Workspace) Listings() *listings.Board {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listings == nil {
		w.listings = listings.NewBoard(w.API)
	}
	return w.listings
}

func (w *Workspace) Users() *admin.UsersTable {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.users == nil {
		w.users = admin.NewUsersTable(w.API, w.debounce)
	}
	return w.users
}

func (w *Workspace) Businesses() *admin.BusinessesTable {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.businesses == nil {
		w.businesses = admin.NewBusinessesTable(w.API)
	}
	return w.businesses
}

func (w *Workspace) Support() *admin.SupportTable {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.support == nil {
		w.support = admin.NewSupportTable(w.API)
	}
	return w.support
}

func (w *Workspace) Dashboard() *admin.Dashboard {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dashboard == nil {
		w.dashboard = admin.NewDashboard(w.API)
	}
	return w.dashboard
}

// UserDetail returns the open user modal. Opening another user closes the
// previous modal, so its tab fetches are cancelled.
func (w *Workspace) UserDetail(userID string) *admin.UserDetail {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.userModal != nil && w.userModal.UserID == userID {
		return w.userModal
	}
	if w.userModal != nil {
		w.userModal.Close()
	}
	w.userModal = admin.NewUserDetail(w.API, userID)
	return w.userModal
}

// BusinessDetail is the business counterpart of UserDetail.
func (w *Workspace) BusinessDetail(businessID string) *admin.BusinessDetail {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bizModal != nil && w.bizModal.BusinessID == businessID {
		return w.bizModal
	}
	if w.bizModal != nil {
		w.bizModal.Close()
	}
	w.bizModal = admin.NewBusinessDetail(w.API, businessID)
	return w.bizModal
}

// OpenBusinessDetail returns the business modal only if it is open for businessID.
func (w *Workspace) OpenBusinessDetail(businessID string) (*admin.BusinessDetail, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bizModal == nil || w.bizModal.BusinessID != businessID {
		return nil, false
	}
	return w.bizModal, true
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Close unmounts every view model. Later accessors hand out fresh ones, but a
// closed workspace is no longer reachable from its Registry.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.unmountLocked()
}

// Reset unmounts and forgets every view model but keeps the session and its
// upstream credentials. Another user signing in on this session starts from
// empty boards.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unmountLocked()
	w.leads = nil
	w.listings = nil
	w.users = nil
	w.businesses = nil
	w.support = nil
	w.dashboard = nil
	w.userModal = nil
	w.bizModal = nil
}

func (w *Workspace) unmountLocked() {
	if w.leads != nil {
		w.leads.Unmount()
	}
	if w.listings != nil {
		w.listings.Unmount()
	}
	if w.users != nil {
		w.users.Unmount()
	}
	if w.businesses != nil {
		w.businesses.Unmount()
	}
	if w.support != nil {
		w.support.Unmount()
	}
	if w.dashboard != nil {
		w.dashboard.Unmount()
	}
	if w.userModal != nil {
		w.userModal.Close()
	}
	if w.bizModal != nil {
		w.bizModal.Close()
	}
}

// Closed reports whether Close ran.
func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
