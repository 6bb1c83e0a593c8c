package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// protectedMethods require a valid access token.
var protectedMethods = map[string]bool{
	api.MethodLogout:         true,
	api.MethodMe:             true,
	api.MethodChangePassword: true,
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	header := firstMetadata(ctx, common.AuthorizationHeaderName)
	accessToken, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok || accessToken == "" {
		return nil, api.Error(codes.Unauthenticated, common.ReasonTokenInvalid, "missing token")
	}

	claims, err := auth.ParseAccessToken(accessToken, s.jwtSecret, s.clock.Now())
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, api.Error(codes.Unauthenticated, common.ReasonTokenExpired, "access token expired")
		}
		return nil, api.Error(codes.Unauthenticated, common.ReasonTokenInvalid, "access token invalid")
	}

	ctx = context.WithValue(ctx, userIDKey, claims.Subject)

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"request_id", firstMetadata(ctx, common.RequestIDHeaderName),
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if status.Code(err) == codes.Internal {
		s.logger.Error(ctx, "rpc failed", args...)
	} else {
		s.logger.Debug(ctx, "rpc handled", args...)
	}

	return resp, err
}
