// Package session holds the console's auth store: who is signed in, and
// whether a screen may be shown to them.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"marketdesk/internal/domain"
	"marketdesk/internal/infrastructure/marketapi"
	"marketdesk/internal/pkg/constants"
	"marketdesk/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// State is one of Loading, Authenticated or Anonymous.
type State interface {
	isState()
}

// Loading is the state until the first "who am I" call resolves.
type Loading struct{}

type Authenticated struct {
	User domain.User
}

type Anonymous struct{}

func (Loading) isState()       {}
func (Authenticated) isState() {}
func (Anonymous) isState()     {}

// AuthAPI is the part of the marketplace API the store needs.
type AuthAPI interface {
	Me(ctx context.Context) (*domain.User, error)
	Login(ctx context.Context, in marketapi.Credentials) (*domain.User, error)
	Register(ctx context.Context, in marketapi.Registration) (*domain.User, error)
	Logout(ctx context.Context) error
}

// Store is the auth state of one console session.
type Store struct {
	api AuthAPI

	mu    sync.RWMutex
	state State
}

func NewStore(api AuthAPI) *Store {
	return &Store{api: api, state: Loading{}}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, if any.
func (s *Store) User() (domain.User, bool) {
	if a, ok := s.State().(Authenticated); ok {
		return a.User, true
	}
	return domain.User{}, false
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Init resolves Loading with a single "who am I" call. Any failure means
// Anonymous. Once resolved, Init is a no-op.
func (s *Store) Init(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, loading := s.state.(Loading); !loading {
		return s.state
	}
	u, err := s.api.Me(ctx)
	if err != nil || u == nil || u.ID == "" {
		if err != nil && !marketapi.IsUnauthorized(err) {
			log.Warn().Err(err).Msg("session: who-am-i failed, treating as signed out")
		}
		s.state = Anonymous{}
		return s.state
	}
	s.state = Authenticated{User: *u}
	return s.state
}

// Login signs in. On failure the state is unchanged.
func (s *Store) Login(ctx context.Context, email, password string) (domain.User, error) {
	if _, loading := s.State().(Loading); loading {
		return domain.User{}, ErrStillLoading
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, ErrCredentialsRequired
	}
	u, err := s.api.Login(ctx, marketapi.Credentials{Email: email, Password: password})
	if err != nil {
		if rejected(err) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if u == nil || u.ID == "" {
		return domain.User{}, fmt.Errorf("login: %w", ErrNoUser)
	}
	s.set(Authenticated{User: *u})
	return *u, nil
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Validate checks the form before anything is sent upstream.
func (in RegisterInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "":
		return ErrRegistrationIncomplete
	case !validation.IsValidName(in.Name):
		return ErrInvalidName
	case !validation.IsValidEmail(strings.TrimSpace(in.Email)):
		return ErrInvalidEmail
	case !validation.IsValidPassword(in.Password):
		return ErrWeakPassword
	case !validation.IsValidPhone(strings.TrimSpace(in.Phone)):
		return ErrInvalidPhone
	case in.Role != "" && !constants.IsSelfServiceRole(in.Role):
		return ErrInvalidRole
	}
	return nil
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if _, loading := s.State().(Loading); loading {
		return domain.User{}, ErrStillLoading
	}
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}
	role := in.Role
	if role == "" {
		role = constants.Buyer
	}
	u, err := s.api.Register(ctx, marketapi.Registration{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     role,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	if u == nil || u.ID == "" {
		return domain.User{}, fmt.Errorf("register: %w", ErrNoUser)
	}
	s.set(Authenticated{User: *u})
	return *u, nil
}

// Logout always ends Anonymous. An upstream failure is logged and returned.
func (s *Store) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.set(Anonymous{})
	if err != nil {
		log.Warn().Err(err).Msg("session: upstream logout failed, local session cleared anyway")
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Refresh replaces the signed-in user after a profile edit. It does nothing
// unless that same user is signed in.
func (s *Store) Refresh(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.(Authenticated); ok && a.User.ID == u.ID {
		s.state = Authenticated{User: u}
	}
}

// Snapshot is the persisted form of a resolved state.
type Snapshot struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

// Snapshot returns nil while loading; there is nothing to persist yet.
func (s *Store) Snapshot() *Snapshot {
	switch st := s.State().(type) {
	case Authenticated:
		u := st.User
		return &Snapshot{Authenticated: true, User: &u}
	case Anonymous:
		return &Snapshot{}
	}
	return nil
}

// Restore resolves the store from a snapshot without an upstream call.
func (s *Store) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	if snap.Authenticated && snap.User != nil {
		s.set(Authenticated{User: *snap.User})
		return
	}
	s.set(Anonymous{})
}

func rejected(err error) bool {
	var apiErr *marketapi.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusNotFound
}
