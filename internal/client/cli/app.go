package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/client/client"
	"github.com/dmitrijs2005/gridconsole/internal/client/config"
	"github.com/dmitrijs2005/gridconsole/internal/client/credentials"
	"github.com/dmitrijs2005/gridconsole/internal/client/nav"
	"github.com/dmitrijs2005/gridconsole/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gridconsole/internal/client/session"
	"github.com/dmitrijs2005/gridconsole/internal/client/storage"
	"github.com/dmitrijs2005/gridconsole/internal/client/watchdog"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

// Session is what the commands need from session.Store.
type Session interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context)
	RefreshToken(ctx context.Context) (string, bool)
	FetchMe(ctx context.Context) (*api.UserProfile, error)
	IsAuthenticated() bool
	User() *api.UserProfile
	State() session.State
}

// Remote is what the commands need from the gRPC client directly.
type Remote interface {
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	Ping(ctx context.Context) error
	RefreshInFlight() bool
}

type App struct {
	config   *config.Config
	session  Session
	remote   Remote
	watchdog *watchdog.Watchdog
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	// loginRequested is raised by ToLogin; the REPL prompts for credentials
	// before reading the next command.
	loginRequested atomic.Bool

	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	a := &App{
		config: c,
		log:    log.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	creds := credentials.NewStore(metadata.NewSQLiteRepository(db), log)
	if err := creds.Load(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, creds, a, client.Options{
		RequestTimeout: c.RequestTimeout,
		RefreshTimeout: c.RefreshTimeout,
		Logger:         log,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, apiClient.Close)

	sess := session.NewStore(apiClient, creds, a, log, c.RequestTimeout)
	a.closers = append(a.closers, func() error { sess.Close(); return nil })

	wd := watchdog.New(clock.New(), c.IdleTimeout, func() {
		sess.EndSession(context.Background(), nav.ReasonIdle)
	}, log)
	wd.Bind(creds)
	a.closers = append(a.closers, func() error { wd.Close(); return nil })

	a.session = sess
	a.remote = apiClient
	a.watchdog = wd
	return a, nil
}

// ToLogin implements nav.Navigator.
func (a *App) ToLogin(reason string) {
	fmt.Fprintf(a.out, "\nSession ended (%s). Please log in again.\n", describeReason(reason))
	a.loginRequested.Store(true)
}

func describeReason(reason string) string {
	switch reason {
	case nav.ReasonIdle:
		return "inactive for too long"
	case nav.ReasonLoggedOut:
		return "logged out"
	case nav.ReasonRefreshFailed:
		return "could not renew credentials"
	case nav.ReasonUnauthorized:
		return "credentials rejected by server"
	default:
		return reason
	}
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Warn(ctx, "shutdown", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "gridconsole (type 'help' for commands)")
	if a.session.IsAuthenticated() {
		if _, err := a.session.FetchMe(ctx); err != nil && !errors.Is(err, client.ErrUnavailable) {
			a.loginRequested.Store(true)
		}
	} else {
		a.loginRequested.Store(true)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) observeInput() {
	if a.watchdog != nil {
		a.watchdog.Observe(watchdog.KeyPress)
	}
}

func (a *App) takeLoginRequest() bool {
	return a.loginRequested.Swap(false)
}

func (a *App) getStatus() string {
	switch a.session.State() {
	case session.Resolved:
		u := a.session.User()
		return fmt.Sprintf("(%s %s)", u.Username, u.Role)
	case session.Authenticated:
		return "(authenticated)"
	default:
		return "(anonymous)"
	}
}
