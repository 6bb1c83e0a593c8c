package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC statuses carrying a reason.
// Unknown errors become a bare Internal status so details never leak.
func toStatus(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return api.Error(codes.Unauthenticated, common.ReasonInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		return api.Error(codes.PermissionDenied, common.ReasonAccountDisabled, err.Error())
	case errors.Is(err, services.ErrAccountLocked):
		return api.Error(codes.PermissionDenied, common.ReasonAccountLocked, err.Error())
	case errors.Is(err, services.ErrRefreshTokenMissing):
		return api.Error(codes.Unauthenticated, common.ReasonRefreshTokenMissing, err.Error())
	case errors.Is(err, services.ErrTokenExpired):
		return api.Error(codes.Unauthenticated, common.ReasonTokenExpired, err.Error())
	case errors.Is(err, services.ErrTokenInvalid):
		return api.Error(codes.Unauthenticated, common.ReasonTokenInvalid, err.Error())
	case errors.Is(err, services.ErrPasswordMismatch):
		return api.Error(codes.InvalidArgument, common.ReasonPasswordMismatch, err.Error())
	case errors.Is(err, services.ErrPasswordTooWeak):
		return api.Error(codes.InvalidArgument, common.ReasonPasswordTooWeak, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
