package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/client/nav"
	"github.com/dmitrijs2005/gridconsole/internal/client/refresh"
	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

const DefaultRequestTimeout = 30 * time.Second

type Options struct {
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	Logger         logging.Logger
	// DialOptions are appended to both connections (tests use them to dial
	// a bufconn listener).
	DialOptions []grpc.DialOption
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	refreshConn *grpc.ClientConn
	client      api.AuthServiceClient
	refresher   api.AuthServiceClient

	creds       refresh.Credentials
	nav         nav.Navigator
	coordinator *refresh.Coordinator
	log         logging.Logger
	timeout     time.Duration
}

func NewGRPCClient(endpointURL string, creds refresh.Credentials, navigator nav.Navigator, opts Options) (*GRPCClient, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop{}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	c := &GRPCClient{
		endpointURL: endpointURL,
		creds:       creds,
		nav:         navigator,
		log:         log.With("module", "client"),
		timeout:     timeout,
	}
	c.coordinator = refresh.NewCoordinator(creds, c, navigator, log, opts.RefreshTimeout)

	if err := c.initGRPCClient(opts.DialOptions); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) initGRPCClient(extra []grpc.DialOption) error {
	base := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, extra...)

	refreshConn, err := grpc.NewClient(c.endpointURL, base...)
	if err != nil {
		return fmt.Errorf("refresh channel: %w", err)
	}

	conn, err := grpc.NewClient(c.endpointURL, append(base, grpc.WithUnaryInterceptor(c.pipelineInterceptor))...)
	if err != nil {
		_ = refreshConn.Close()
		return fmt.Errorf("request channel: %w", err)
	}

	c.refreshConn = refreshConn
	c.conn = conn
	c.refresher = api.NewAuthServiceClient(refreshConn)
	c.client = api.NewAuthServiceClient(conn)
	return nil
}

func (c *GRPCClient) Close() error {
	return errors.Join(c.conn.Close(), c.refreshConn.Close())
}

func (c *GRPCClient) Login(ctx context.Context, username, password string) (*api.TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pair, err := c.client.Login(ctx, &api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return pair, nil
}

// Refresh exchanges refreshToken over the refresh channel. It implements
// refresh.Refresher; the coordinator applies its own timeout.
func (c *GRPCClient) Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error) {
	pair, err := c.refresher.Refresh(ctx, &api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, mapError(err)
	}
	return pair, nil
}

// RefreshSession refreshes the stored credentials through the coordinator,
// joining a refresh that is already in flight.
func (c *GRPCClient) RefreshSession(ctx context.Context) (string, error) {
	token, err := c.coordinator.Refresh(ctx)
	if err != nil {
		return "", mapError(err)
	}
	return token, nil
}

// RefreshInFlight reports whether a token refresh is running.
func (c *GRPCClient) RefreshInFlight() bool {
	return c.coordinator.InFlight()
}

func (c *GRPCClient) Logout(ctx context.Context, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.client.Logout(ctx, &api.LogoutRequest{RefreshToken: refreshToken}); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *GRPCClient) Me(ctx context.Context) (*api.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	me, err := c.client.Me(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return me, nil
}

func (c *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if _, err := c.client.ChangePassword(ctx, req); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Ping(ctx, &api.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != api.PingStatusOK {
		return ErrUnavailable
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, refresh.ErrSessionEnded),
		errors.Is(err, refresh.ErrRefreshFailed),
		errors.Is(err, refresh.ErrNoRefreshCredential):
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrUnavailable
	case errors.Is(err, context.Canceled):
		return err
	}

	code, reason := api.ReasonOf(err)
	switch reason {
	case common.ReasonInvalidCredentials:
		return ErrInvalidCredentials
	case common.ReasonAccountLocked:
		return ErrAccountLocked
	case common.ReasonAccountDisabled:
		return ErrAccountDisabled
	case common.ReasonPasswordMismatch:
		return ErrPasswordMismatch
	case common.ReasonPasswordTooWeak:
		return fmt.Errorf("%w: %s", ErrPasswordTooWeak, status.Convert(err).Message())
	}

	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		if reason != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, reason)
		}
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
