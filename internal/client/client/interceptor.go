package client

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/client/nav"
	"github.com/dmitrijs2005/gridconsole/internal/common"
)

// publicMethods never carry credentials and their rejections never end the
// session.
var publicMethods = map[string]bool{
	api.MethodLogin:   true,
	api.MethodRefresh: true,
	api.MethodPing:    true,
}

func withRequestMetadata(ctx context.Context, token, requestID string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	if token != "" {
		md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	md.Set(common.RequestIDHeaderName, requestID)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) pipelineInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	requestID := uuid.NewString()

	if publicMethods[method] {
		return invoker(withRequestMetadata(ctx, "", requestID), method, req, reply, cc, opts...)
	}

	token := c.creds.Token()
	c.stampRefreshToken(req)
	err := invoker(withRequestMetadata(ctx, token, requestID), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	code, reason := api.ReasonOf(err)
	if code != codes.Unauthenticated {
		return err
	}

	if reason != common.ReasonTokenExpired {
		// nothing left to tear down when the session already ended
		if c.creds.Token() != "" {
			c.creds.Clear(context.WithoutCancel(ctx))
			c.log.Warn(ctx, "request rejected, session cleared", "method", method, "reason", reason, "request_id", requestID)
			c.nav.ToLogin(nav.ReasonUnauthorized)
		}
		return err
	}

	fresh, rerr := c.coordinator.Acquire(ctx, token)
	if rerr != nil {
		c.log.Debug(ctx, "no token for retry", "method", method, "error", rerr, "request_id", requestID)
		return rerr
	}

	// a second failure is returned as is
	c.log.Debug(ctx, "retrying with refreshed token", "method", method, "request_id", requestID)
	c.stampRefreshToken(req)
	return invoker(withRequestMetadata(ctx, fresh, requestID), method, req, reply, cc, opts...)
}

// stampRefreshToken makes a logout revoke the refresh credential held when
// the request is sent; the refresh before a retry rotates it.
func (c *GRPCClient) stampRefreshToken(req any) {
	lr, ok := req.(*api.LogoutRequest)
	if !ok {
		return
	}
	if current, _ := c.creds.Snapshot(); current != "" {
		lr.RefreshToken = current
	}
}
