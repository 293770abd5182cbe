package admin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"marketdesk/internal/application/feedback"
	"marketdesk/internal/application/mount"
	"marketdesk/internal/domain"
	"marketdesk/internal/pkg/constants"
	"marketdesk/internal/pkg/validation"
)

// DefaultDebounce is the search delay when none is configured.
const DefaultDebounce = 400 * time.Millisecond

// UsersTable is filtered server-side. Filter changes are debounced so a
// burst of keystrokes costs one request.
type UsersTable struct {
	api   UsersAPI
	delay time.Duration
	life  *mount.Lifetime

	mu      sync.Mutex
	filter  domain.UserFilter
	users   []domain.User
	loaded  bool
	loading bool
	err     error
	gen     uint64
	timer   *time.Timer
	settled chan struct{}
	busy    map[string]bool
}

func NewUsersTable(api UsersAPI, delay time.Duration) *UsersTable {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &UsersTable{api: api, delay: delay, life: mount.New(), busy: map[string]bool{}}
}

type UsersView struct {
	Filter  domain.UserFilter `json:"filter"`
	Users   []domain.User     `json:"users"`
	Loaded  bool              `json:"loaded"`
	Loading bool              `json:"loading"`
	Empty   bool              `json:"empty"`
}

func (t *UsersTable) View() UsersView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *UsersTable) viewLocked() UsersView {
	users := make([]domain.User, len(t.users))
	copy(users, t.users)
	return UsersView{
		Filter:  t.filter,
		Users:   users,
		Loaded:  t.loaded,
		Loading: t.loading || t.timer != nil,
		Empty:   t.loaded && len(t.users) == 0,
	}
}

// SetFilter schedules a fetch after the debounce delay. A later call within
// the delay replaces the pending one.
func (t *UsersTable) SetFilter(f domain.UserFilter) {
	t.schedule(f, t.delay)
}

// Load fetches immediately with the current filter unless rows are loaded already.
func (t *UsersTable) Load(ctx context.Context, ui feedback.UI) (UsersView, error) {
	t.mu.Lock()
	pending := t.settled != nil
	loaded := t.loaded
	f := t.filter
	t.mu.Unlock()
	if !loaded && !pending {
		t.schedule(f, 0)
	}
	return t.Wait(ctx, ui)
}

func (t *UsersTable) schedule(f domain.UserFilter, delay time.Duration) {
	if t.life.Closed() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = f
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.settled == nil {
		t.settled = make(chan struct{})
	}
	t.timer = time.AfterFunc(delay, func() { t.run(gen) })
}

func (t *UsersTable) run(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.life.Closed() {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.loading = true
	f := t.filter
	t.mu.Unlock()

	ctx, cancel := t.life.Scope(context.Background())
	users, err := t.api.ListUsers(ctx, f)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.life.Closed() {
		return
	}
	t.loading = false
	if err != nil {
		t.err = fmt.Errorf("load users: %w", err)
	} else {
		t.users = users
		t.loaded = true
		t.err = nil
	}
	close(t.settled)
	t.settled = nil
}

// Wait blocks until the pending fetch, if any, has settled.
func (t *UsersTable) Wait(ctx context.Context, ui feedback.UI) (UsersView, error) {
	t.mu.Lock()
	ch := t.settled
	t.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return t.View(), ctx.Err()
		case <-t.life.Done():
			return t.View(), mount.ErrUnmounted
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		feedback.Failed(ui, "Failed to load users")
		return t.viewLocked(), t.err
	}
	return t.viewLocked(), nil
}

// Unmount stops the pending debounce timer and cancels any fetch.
func (t *UsersTable) Unmount() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	t.life.Close()
}

// ChangeRole always asks for confirmation before the request.
func (t *UsersTable) ChangeRole(ctx context.Context, ui feedback.UI, actorID, id, role string) (domain.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !constants.IsValidRole(role) {
		feedback.Failed(ui, ErrInvalidRole.Error())
		return domain.User{}, ErrInvalidRole
	}
	if id == actorID {
		feedback.Failed(ui, ErrOwnRole.Error())
		return domain.User{}, ErrOwnRole
	}
	user, err := t.begin(id)
	if err != nil {
		return domain.User{}, err
	}
	defer t.end(id)

	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Change role",
		Message:      fmt.Sprintf("Change the role of %s from %s to %s?", displayName(user), user.Role, role),
		ConfirmLabel: "Change role",
		Destructive:  user.Role == constants.Admin,
	})
	if err != nil {
		return user, err
	}

	ctx, cancel := t.life.Scope(ctx)
	defer cancel()
	resp, err := t.api.UpdateUserRole(ctx, id, role)
	if err != nil {
		feedback.Failed(ui, "Failed to update role")
		return user, fmt.Errorf("update role of %s: %w", id, err)
	}
	if resp != nil && resp.Role != "" {
		role = resp.Role
	}
	updated := t.patch(id, func(u domain.User) domain.User {
		u.Role = role
		return u
	})
	feedback.Succeeded(ui, "Role updated")
	return updated, nil
}

// editableUserFields are the profile fields an admin may change.
var editableUserFields = map[string]bool{"name": true, "email": true, "phone": true, "status": true}

// UpdateUser edits a user's profile fields and patches the row.
func (t *UsersTable) UpdateUser(ctx context.Context, ui feedback.UI, id string, fields map[string]interface{}) (domain.User, error) {
	for k := range fields {
		if !editableUserFields[k] {
			feedback.Failed(ui, ErrUnknownField.Error()+": "+k)
			return domain.User{}, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}
	if email, ok := fields["email"].(string); ok && !validation.IsValidEmail(email) {
		feedback.Failed(ui, ErrInvalidEmail.Error())
		return domain.User{}, ErrInvalidEmail
	}
	user, err := t.begin(id)
	if err != nil {
		return domain.User{}, err
	}
	defer t.end(id)

	err = ui.Confirm(ctx, feedback.Prompt{
		Title:        "Save user",
		Message:      fmt.Sprintf("Save changes to %s?", displayName(user)),
		ConfirmLabel: "Save",
	})
	if err != nil {
		return user, err
	}

	ctx, cancel := t.life.Scope(ctx)
	defer cancel()
	resp, err := t.api.UpdateUser(ctx, id, fields)
	if err != nil {
		feedback.Failed(ui, "Failed to update user")
		return user, fmt.Errorf("update user %s: %w", id, err)
	}
	updated := t.patch(id, func(u domain.User) domain.User {
		if resp != nil && resp.ID != "" {
			return *resp
		}
		applyUserFields(&u, fields)
		return u
	})
	feedback.Succeeded(ui, "User updated")
	return updated, nil
}

func applyUserFields(u *domain.User, fields map[string]interface{}) {
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "name":
			u.Name = s
		case "email":
			u.Email = s
		case "phone":
			u.Phone = s
		case "status":
			u.Status = s
		}
	}
}

func (t *UsersTable) begin(id string) (domain.User, error) {
	if t.life.Closed() {
		return domain.User{}, mount.ErrUnmounted
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range t.users {
		if u.ID == id {
			if t.busy[id] {
				return domain.User{}, ErrBusy
			}
			t.busy[id] = true
			return u, nil
		}
	}
	return domain.User{}, ErrUserNotFound
}

func (t *UsersTable) end(id string) {
	t.mu.Lock()
	delete(t.busy, id)
	t.mu.Unlock()
}

func (t *UsersTable) patch(id string, fn func(domain.User) domain.User) domain.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.users {
		if t.users[i].ID == id {
			t.users[i] = fn(t.users[i])
			return t.users[i]
		}
	}
	return domain.User{}
}

func displayName(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
