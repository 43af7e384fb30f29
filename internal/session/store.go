// Package session holds the client's view of who is logged in.
//
// A Store is an ordinary value: construct one per application (or per test)
// and pass it to whatever needs to read or change the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sessionguard/sessionguard/internal/gateway"
)

const (
	UserPath     = "/api/user"
	LoginPath    = "/api/login"
	LogoutPath   = "/api/logout"
	RegisterPath = "/api/user"
)

var (
	ErrLoginFailed        = errors.New("login failed")
	ErrRegistrationFailed = errors.New("registration failed")
)

// Requester is the part of the gateway the store depends on
type Requester interface {
	Request(ctx context.Context, path string, opts *gateway.RequestOptions) (*gateway.Response, error)
}

// Snapshot is a consistent read of the session
type Snapshot struct {
	User          *User
	Authenticated bool
}

// IsAdmin reports whether the snapshot's user has the admin role
func (s Snapshot) IsAdmin() bool {
	return s.User.IsAdmin()
}

// IsAuthenticated reports the authenticated flag
func (s Snapshot) IsAuthenticated() bool {
	return s.Authenticated
}

// Store is the shared session state
type Store struct {
	gw     Requester
	logger zerolog.Logger

	mu            sync.RWMutex
	user          *User
	authenticated bool

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Snapshot)
}

// New creates an empty, unauthenticated store
func New(gw Requester, logger zerolog.Logger) *Store {
	return &Store{
		gw:     gw,
		logger: logger,
		subs:   make(map[int]func(Snapshot)),
	}
}

// SetUser overwrites the stored user. It deliberately leaves the
// authenticated flag alone; callers that want a logged-in session must go
// through FetchUser or Login.
func (s *Store) SetUser(u *User) {
	s.mu.Lock()
	s.user = u.Clone()
	s.mu.Unlock()

	s.notify()
}

// FetchUser asks the API who the current user is. Any failure degrades to an
// unauthenticated session; errors are logged, never returned.
func (s *Store) FetchUser(ctx context.Context) bool {
	u, err := s.fetchUser(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Session refresh failed")
		s.set(nil, false)
		return false
	}

	s.set(u, true)
	return true
}

func (s *Store) fetchUser(ctx context.Context) (*User, error) {
	resp, err := s.gw.Request(ctx, UserPath, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch current user")
		return nil, err
	}

	if !resp.OK() {
		return nil, resp.Error("fetch user")
	}

	var u User
	if err := resp.DecodeJSON(&u); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode current user")
		return nil, err
	}
	return &u, nil
}

// Logout asks the API to end the session. Local state is cleared whether or
// not the request succeeds.
func (s *Store) Logout(ctx context.Context) {
	defer s.set(nil, false)

	resp, err := s.gw.Request(ctx, LogoutPath, &gateway.RequestOptions{Method: http.MethodPost})
	if err != nil {
		s.logger.Error().Err(err).Msg("Logout failed")
		return
	}

	if !resp.OK() {
		s.logger.Warn().Int("status", resp.StatusCode).Msg("Logout rejected by server")
	}
	resp.Discard()
}

// Login posts credentials and, on success, refreshes the session from the API
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.gw.Request(ctx, LoginPath, &gateway.RequestOptions{
		Method: http.MethodPost,
		JSON:   credentials{Email: email, Password: password},
	})
	if err != nil {
		s.set(nil, false)
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if !resp.OK() {
		s.set(nil, false)
		return fmt.Errorf("%w: %w", ErrLoginFailed, resp.Error("login"))
	}
	resp.Discard()

	if !s.FetchUser(ctx) {
		return fmt.Errorf("%w: session not established", ErrLoginFailed)
	}

	if u := s.User(); u != nil {
		s.logger.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("Logged in")
	}
	return nil
}

// Register creates an account. It does not log the new user in.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	resp, err := s.gw.Request(ctx, RegisterPath, &gateway.RequestOptions{
		Method: http.MethodPost,
		JSON:   registration{Name: name, Email: email, Password: password},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, resp.Error("register"))
	}
	resp.Discard()

	return nil
}

// User returns a copy of the current user, or nil
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsAuthenticated reports whether the last refresh established a session
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsAdmin is derived from the current user on every call
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.IsAdmin()
}

// Snapshot returns both fields read under one lock
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user.Clone(), Authenticated: s.authenticated}
}

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) set(u *User, authenticated bool) {
	s.mu.Lock()
	s.user = u
	s.authenticated = authenticated
	s.mu.Unlock()

	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	if len(fns) == 0 {
		return
	}

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
