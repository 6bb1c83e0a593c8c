package grpc

import (
	"context"
	"net"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
	"github.com/dmitrijs2005/gridconsole/internal/server/models"
	"github.com/dmitrijs2005/gridconsole/internal/server/services"
	"google.golang.org/grpc"
)

// AuthService is the business logic behind the RPC handlers.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type GRPCServer struct {
	api.UnimplementedAuthServiceServer
	address      string
	auth         AuthService
	logger       logging.Logger
	jwtSecret    []byte
	clock        clock.Clock
	interceptors []grpc.UnaryServerInterceptor
}

// NewGRPCServer builds the server. Access tokens are checked against clk,
// which should be the clock that issued them. extra interceptors run first,
// ahead of request logging and access token checks.
func NewGRPCServer(a string, l logging.Logger, svc AuthService, secretKey string, clk clock.Clock, extra ...grpc.UnaryServerInterceptor) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		auth:         svc,
		jwtSecret:    []byte(secretKey),
		clock:        clk,
		interceptors: extra,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	chain := append([]grpc.UnaryServerInterceptor{}, s.interceptors...)
	chain = append(chain, s.loggingInterceptor, s.accessTokenInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	api.RegisterAuthServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
