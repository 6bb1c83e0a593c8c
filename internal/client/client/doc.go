// Package client talks to the gridconsole auth server.
//
// # Overview
//
// GRPCClient owns two connections to the same endpoint:
//  1. the request pipeline, whose unary interceptor attaches the current
//     access token, and on an expired-token rejection obtains a fresh token
//     from the refresh coordinator and resends the call exactly once;
//  2. a bare refresh channel without the interceptor, used only to exchange
//     the refresh credential, so a refresh can never recurse into itself.
//
// Any other authentication rejection tears the session down: the credential
// store is cleared and the navigator is asked to show the login prompt.
// Public methods (Login, Refresh, Ping) are sent without credential handling.
//
// # Error Handling
//
// gRPC statuses are mapped to sentinel errors that callers match with
// errors.Is: ErrUnauthorized, ErrUnavailable, ErrInvalidCredentials,
// ErrAccountLocked, ErrAccountDisabled, ErrPasswordMismatch,
// ErrPasswordTooWeak.
//
// GRPCClient is safe for concurrent use.
package client
