// Package common contains shared constants and sentinel errors used across
// gridconsole components.
package common

// Metadata keys carried on every gRPC call.
const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "authorization"
	// BearerPrefix precedes the token inside AuthorizationHeaderName.
	BearerPrefix = "Bearer "
	// RequestIDHeaderName correlates client and server log lines.
	RequestIDHeaderName = "x-request-id"
)

// Keys of the persisted client-side credential storage.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// ErrorDomain is the google.rpc.ErrorInfo domain of every auth error.
const ErrorDomain = "gridconsole"

// Machine-readable reasons attached to Unauthenticated / PermissionDenied
// statuses. Only ReasonTokenExpired is recoverable by the client.
const (
	ReasonTokenExpired        = "TOKEN_EXPIRED"
	ReasonTokenInvalid        = "TOKEN_INVALID"
	ReasonInvalidCredentials  = "INVALID_CREDENTIALS"
	ReasonRefreshTokenMissing = "REFRESH_TOKEN_MISSING"
	ReasonAccountDisabled     = "ACCOUNT_DISABLED"
	ReasonAccountLocked       = "ACCOUNT_LOCKED"
	ReasonPasswordMismatch    = "PASSWORD_MISMATCH"
	ReasonPasswordTooWeak     = "PASSWORD_TOO_WEAK"
)
