package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/client/client"
	"github.com/dmitrijs2005/gridconsole/internal/client/config"
	"github.com/dmitrijs2005/gridconsole/internal/client/nav"
	"github.com/dmitrijs2005/gridconsole/internal/client/session"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

type fakeSession struct {
	authenticated bool
	user          *api.UserProfile

	loginUser, loginPass string
	loginErr             error
	logoutCalls          int
	refreshOK            bool
	meErr                error
}

func (f *fakeSession) Login(_ context.Context, username, password string) error {
	f.loginUser, f.loginPass = username, password
	if f.loginErr != nil {
		return f.loginErr
	}
	f.authenticated = true
	f.user = &api.UserProfile{Username: username, Role: api.RoleAdmin}
	return nil
}
func (f *fakeSession) Logout(context.Context) {
	f.logoutCalls++
	f.authenticated = false
	f.user = nil
}
func (f *fakeSession) RefreshToken(context.Context) (string, bool) {
	if !f.refreshOK {
		f.authenticated = false
		return "", false
	}
	return "T2", true
}
func (f *fakeSession) FetchMe(context.Context) (*api.UserProfile, error) {
	return f.user, f.meErr
}
func (f *fakeSession) IsAuthenticated() bool    { return f.authenticated }
func (f *fakeSession) User() *api.UserProfile   { return f.user }
func (f *fakeSession) State() session.State {
	switch {
	case !f.authenticated:
		return session.Anonymous
	case f.user == nil:
		return session.Authenticated
	default:
		return session.Resolved
	}
}

type fakeRemote struct {
	oldPw, newPw string
	changeErr    error
	pingErr      error
	refreshing   bool
}

func (f *fakeRemote) ChangePassword(_ context.Context, oldPassword, newPassword string) error {
	f.oldPw, f.newPw = oldPassword, newPassword
	return f.changeErr
}
func (f *fakeRemote) Ping(context.Context) error { return f.pingErr }
func (f *fakeRemote) RefreshInFlight() bool { return f.refreshing }

func newTestApp(s *fakeSession, r *fakeRemote) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config:  cfg,
		session: s,
		remote:  r,
		log:     logging.Nop{},
		reader:  bufio.NewReader(&bytes.Buffer{}),
		out:     &out,
	}, &out
}

func stubInputs(t *testing.T, username string, passwords ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return username, nil }
	i := 0
	getPassword = func(string, io.Writer) ([]byte, error) {
		if i >= len(passwords) {
			return nil, errors.New("no more input")
		}
		pw := []byte(passwords[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func TestLogin_Success(t *testing.T) {
	stubInputs(t, "admin", "s3cret")
	s := &fakeSession{}
	a, out := newTestApp(s, &fakeRemote{})

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "admin", s.loginUser)
	assert.Equal(t, "s3cret", s.loginPass)
	assert.Contains(t, out.String(), "Logged in as admin (admin)")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	stubInputs(t, "admin", "wrong")
	s := &fakeSession{loginErr: client.ErrInvalidCredentials}
	a, _ := newTestApp(s, &fakeRemote{})

	err := a.Login(context.Background())
	require.ErrorIs(t, err, client.ErrInvalidCredentials)
	assert.False(t, s.authenticated)
	assert.False(t, a.takeLoginRequest())
}

func TestLogin_InputError(t *testing.T) {
	stubInputs(t, "admin")
	a, _ := newTestApp(&fakeSession{}, &fakeRemote{})

	require.Error(t, a.Login(context.Background()))
}

func TestCommands_RequireSession(t *testing.T) {
	a, _ := newTestApp(&fakeSession{}, &fakeRemote{})
	ctx := context.Background()

	assert.ErrorIs(t, a.Me(ctx), errNotLoggedIn)
	assert.ErrorIs(t, a.Refresh(ctx), errNotLoggedIn)
	assert.ErrorIs(t, a.ChangePassword(ctx), errNotLoggedIn)
	assert.ErrorIs(t, a.Logout(ctx), errNotLoggedIn)
}

func TestMe_PrintsProfile(t *testing.T) {
	last := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &fakeSession{authenticated: true, user: &api.UserProfile{
		ID: "u1", Username: "op", DisplayName: "Operator", Email: "op@example.com",
		Role: api.RoleStorageOperator, LastLoginAt: &last,
	}}
	a, out := newTestApp(s, &fakeRemote{})

	require.NoError(t, a.Me(context.Background()))
	assert.Contains(t, out.String(), "username: op")
	assert.Contains(t, out.String(), "role:     storage_operator")
	assert.Contains(t, out.String(), "email:    op@example.com")
}

func TestLogout_DoesNotRequestLogin(t *testing.T) {
	s := &fakeSession{authenticated: true}
	a, _ := newTestApp(s, &fakeRemote{})
	a.ToLogin(nav.ReasonLoggedOut)

	require.NoError(t, a.Logout(context.Background()))
	assert.Equal(t, 1, s.logoutCalls)
	assert.False(t, a.takeLoginRequest())
}

func TestRefresh_FailureRequestsLogin(t *testing.T) {
	s := &fakeSession{authenticated: true}
	a, _ := newTestApp(s, &fakeRemote{})

	require.Error(t, a.Refresh(context.Background()))
	assert.True(t, a.takeLoginRequest())
}

func TestChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stubInputs(t, "", "old", "N3w!pass", "N3w!pass")
		r := &fakeRemote{}
		a, out := newTestApp(&fakeSession{authenticated: true}, r)

		require.NoError(t, a.ChangePassword(context.Background()))
		assert.Equal(t, "old", r.oldPw)
		assert.Equal(t, "N3w!pass", r.newPw)
		assert.Contains(t, out.String(), "Password changed")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		stubInputs(t, "", "old", "N3w!pass", "other")
		r := &fakeRemote{}
		a, _ := newTestApp(&fakeSession{authenticated: true}, r)

		require.ErrorContains(t, a.ChangePassword(context.Background()), "do not match")
		assert.Empty(t, r.newPw)
	})

	t.Run("server rejects", func(t *testing.T) {
		stubInputs(t, "", "old", "weak", "weak")
		r := &fakeRemote{changeErr: fmt.Errorf("%w: too short", client.ErrPasswordTooWeak)}
		a, _ := newTestApp(&fakeSession{authenticated: true}, r)

		require.ErrorIs(t, a.ChangePassword(context.Background()), client.ErrPasswordTooWeak)
	})
}

func TestToLogin_RaisesLoginRequest(t *testing.T) {
	a, out := newTestApp(&fakeSession{}, &fakeRemote{})

	a.ToLogin(nav.ReasonIdle)

	assert.Contains(t, out.String(), "inactive for too long")
	assert.True(t, a.takeLoginRequest())
	assert.False(t, a.takeLoginRequest())
}

func TestStatusAndPing(t *testing.T) {
	r := &fakeRemote{}
	a, out := newTestApp(&fakeSession{}, r)

	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "session: anonymous")
	assert.NotContains(t, out.String(), "refresh in progress")

	r.refreshing = true
	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "token refresh in progress")

	require.NoError(t, a.Ping(context.Background()))
	assert.Contains(t, out.String(), "Server is reachable")

	r.pingErr = client.ErrUnavailable
	require.ErrorIs(t, a.Ping(context.Background()), client.ErrUnavailable)
}

func TestGetStatus(t *testing.T) {
	s := &fakeSession{}
	a, _ := newTestApp(s, &fakeRemote{})
	assert.Equal(t, "(anonymous)", a.getStatus())

	s.authenticated = true
	assert.Equal(t, "(authenticated)", a.getStatus())

	s.user = &api.UserProfile{Username: "admin", Role: api.RoleAdmin}
	assert.Equal(t, "(admin admin)", a.getStatus())
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "invalid username or password", describeError(client.ErrInvalidCredentials))
	assert.Equal(t, "server unavailable", describeError(client.ErrUnavailable))
	assert.Contains(t, describeError(fmt.Errorf("%w: %w", session.ErrProfileUnavailable, client.ErrUnauthorized)), "profile could not be loaded")
	assert.Equal(t, "boom", describeError(errors.New("boom")))
}
