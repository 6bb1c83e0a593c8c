package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/client/nav"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

var (
	// ErrSessionEnded means the session was cleared (logout, idle timeout or
	// an earlier failure) before or while the refresh ran.
	ErrSessionEnded        = errors.New("session ended")
	ErrNoRefreshCredential = errors.New("no refresh credential")
	ErrRefreshFailed       = errors.New("token refresh failed")
)

const DefaultTimeout = 10 * time.Second

// Refresher exchanges a refresh credential for a new token pair. The
// implementation must not go through the request pipeline.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
}

// Credentials is the part of credentials.Store the coordinator needs.
type Credentials interface {
	Token() string
	Snapshot() (refresh string, gen uint64)
	Generation() uint64
	SetIfGeneration(ctx context.Context, gen uint64, access, refresh string) bool
	Clear(ctx context.Context)
}

type Coordinator struct {
	gate      Gate
	creds     Credentials
	refresher Refresher
	nav       nav.Navigator
	log       logging.Logger
	timeout   time.Duration
}

func NewCoordinator(creds Credentials, refresher Refresher, navigator nav.Navigator, log logging.Logger, timeout time.Duration) *Coordinator {
	if log == nil {
		log = logging.Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		creds:     creds,
		refresher: refresher,
		nav:       navigator,
		log:       log.With("module", "refresh"),
		timeout:   timeout,
	}
}

// Acquire returns a token to replace staleToken, which the server has just
// rejected as expired. Callers that arrive while a refresh is in flight wait
// for its outcome instead of starting another one. If the refresh fails the
// session is cleared and the user is sent to the login prompt once, however
// many callers were waiting.
func (c *Coordinator) Acquire(ctx context.Context, staleToken string) (string, error) {
	for {
		current := c.creds.Token()
		if current == "" {
			return "", ErrSessionEnded
		}
		if current != staleToken {
			return current, nil
		}

		if c.gate.TryBegin() {
			// the token may have been replaced between the read above and
			// winning the gate
			switch current := c.creds.Token(); {
			case current == "":
				c.gate.SettleAll(Outcome{Err: ErrSessionEnded})
				return "", ErrSessionEnded
			case current != staleToken:
				c.gate.SettleAll(Outcome{Token: current})
				return current, nil
			}
			return c.run(ctx, true)
		}

		if o, ok := c.wait(ctx, true); ok {
			return o.Token, o.Err
		}
	}
}

// Refresh performs an explicit refresh. It shares the gate with Acquire but
// a failure only clears the credentials; navigation is left to the caller
// unless Acquire callers were waiting on the same refresh.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	for {
		if c.gate.TryBegin() {
			return c.run(ctx, false)
		}
		if o, ok := c.wait(ctx, false); ok {
			return o.Token, o.Err
		}
	}
}

// InFlight reports whether a refresh is running.
func (c *Coordinator) InFlight() bool { return c.gate.InFlight() }

func (c *Coordinator) wait(ctx context.Context, navigate bool) (Outcome, bool) {
	ch, ok := c.gate.EnqueueFor(navigate)
	if !ok {
		return Outcome{}, false
	}
	select {
	case o := <-ch:
		return o, true
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}, true
	}
}

// run is executed by the gate holder only.
func (c *Coordinator) run(ctx context.Context, navigate bool) (string, error) {
	detached := context.WithoutCancel(ctx)

	refreshToken, gen := c.creds.Snapshot()
	if refreshToken == "" {
		return c.fail(detached, gen, ErrNoRefreshCredential, navigate)
	}

	rctx, cancel := context.WithTimeout(detached, c.timeout)
	pair, err := c.refresher.Refresh(rctx, refreshToken)
	cancel()
	if err != nil {
		return c.fail(detached, gen, err, navigate)
	}

	if !c.creds.SetIfGeneration(detached, gen, pair.AccessToken, pair.RefreshToken) {
		c.log.Info(ctx, "refreshed token discarded, session ended meanwhile")
		c.gate.SettleAll(Outcome{Err: ErrSessionEnded})
		return "", ErrSessionEnded
	}

	n := c.gate.SettleAll(Outcome{Token: pair.AccessToken})
	c.log.Info(ctx, "token refreshed", "waiters", n)
	return pair.AccessToken, nil
}

func (c *Coordinator) fail(ctx context.Context, gen uint64, cause error, navigate bool) (string, error) {
	if c.creds.Generation() != gen {
		// logout or another clear already tore the session down
		c.gate.SettleAll(Outcome{Err: ErrSessionEnded})
		return "", ErrSessionEnded
	}

	err := fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
	c.creds.Clear(ctx)
	n, waiterNavigate := c.gate.Settle(Outcome{Err: err})
	c.log.Warn(ctx, "token refresh failed, session cleared", "error", cause, "waiters", n)

	if (navigate || waiterNavigate) && c.nav != nil {
		c.nav.ToLogin(nav.ReasonRefreshFailed)
	}
	return "", err
}
