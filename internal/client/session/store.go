// Package session is the console's view of who is signed in. It combines the
// credential store (is there a token) with the resolved user profile.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/client/client"
	"github.com/dmitrijs2005/gridconsole/internal/client/nav"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

var (
	ErrProfileUnavailable = errors.New("user profile unavailable")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

type State int

const (
	Anonymous State = iota
	// Authenticated means a token is present but the profile is not
	// resolved yet.
	Authenticated
	Resolved
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the subset of client.Client the session needs.
type API interface {
	Login(ctx context.Context, username, password string) (*api.TokenPair, error)
	RefreshSession(ctx context.Context) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*api.UserProfile, error)
}

type Credentials interface {
	Token() string
	RefreshToken() string
	Set(ctx context.Context, access, refresh string)
	Clear(ctx context.Context)
	Subscribe(fn func(authenticated bool)) func()
}

type Store struct {
	mu      sync.Mutex
	user    *api.UserProfile
	api     API
	creds   Credentials
	nav     nav.Navigator
	log     logging.Logger
	timeout time.Duration

	unsubscribe func()
}

// NewStore starts in whatever state the credential store was loaded with.
func NewStore(apiClient API, creds Credentials, navigator nav.Navigator, log logging.Logger, logoutTimeout time.Duration) *Store {
	if log == nil {
		log = logging.Nop{}
	}
	if logoutTimeout <= 0 {
		logoutTimeout = client.DefaultRequestTimeout
	}
	s := &Store{
		api:     apiClient,
		creds:   creds,
		nav:     navigator,
		log:     log.With("module", "session"),
		timeout: logoutTimeout,
	}
	// a clear from the pipeline or the refresh coordinator drops the profile too
	s.unsubscribe = creds.Subscribe(func(authenticated bool) {
		if !authenticated {
			s.dropUser()
		}
	})
	return s
}

func (s *Store) Close() {
	s.unsubscribe()
}

func (s *Store) IsAuthenticated() bool {
	return s.creds.Token() != ""
}

func (s *Store) User() *api.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Store) State() State {
	if !s.IsAuthenticated() {
		return Anonymous
	}
	if s.User() == nil {
		return Authenticated
	}
	return Resolved
}

// Login authenticates and resolves the profile. A rejected login leaves the
// current state untouched.
func (s *Store) Login(ctx context.Context, username, password string) error {
	pair, err := s.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.creds.Set(ctx, pair.AccessToken, pair.RefreshToken)
	s.log.Info(ctx, "signed in", "username", username)

	if _, err := s.FetchMe(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}
	return nil
}

// Logout ends the session at the user's request.
func (s *Store) Logout(ctx context.Context) {
	s.EndSession(ctx, nav.ReasonLoggedOut)
}

// EndSession revokes the refresh credential on the server when it can, then
// clears local state and shows the login prompt whatever the server said.
func (s *Store) EndSession(ctx context.Context, reason string) {
	if refreshToken := s.creds.RefreshToken(); refreshToken != "" {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		if err := s.api.Logout(lctx, refreshToken); err != nil {
			s.log.Warn(ctx, "server logout failed", "error", err)
		}
		cancel()
	}

	s.ClearAuth()
	s.log.Info(ctx, "session ended", "reason", reason)
	if s.nav != nil {
		s.nav.ToLogin(reason)
	}
}

// RefreshToken refreshes explicitly. On failure the session is cleared and
// ok is false; navigation is up to the caller.
func (s *Store) RefreshToken(ctx context.Context) (token string, ok bool) {
	token, err := s.api.RefreshSession(ctx)
	if err != nil {
		s.log.Warn(ctx, "explicit refresh failed", "error", err)
		s.ClearAuth()
		return "", false
	}
	return token, true
}

// FetchMe resolves the signed-in user. A rejection clears the session; an
// unreachable server does not, since it says nothing about the token.
func (s *Store) FetchMe(ctx context.Context) (*api.UserProfile, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	me, err := s.api.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return nil, err
		}
		s.log.Warn(ctx, "profile rejected, clearing session", "error", err)
		s.ClearAuth()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the session may have ended while Me was in flight
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	s.user = me
	return me, nil
}

// ClearAuth drops the token, the refresh credential and the profile. Calling
// it on an anonymous session does nothing.
func (s *Store) ClearAuth() {
	s.creds.Clear(context.Background())
	s.dropUser()
}

func (s *Store) dropUser() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
