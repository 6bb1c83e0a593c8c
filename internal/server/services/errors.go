package services

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrAccountLocked       = errors.New("account locked")
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTokenExpired        = errors.New("token expired")
	ErrPasswordMismatch    = errors.New("old password does not match")
	ErrPasswordTooWeak     = errors.New("password too weak")
)

// PasswordPolicyError lists the strength rules a new password breaks.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	return ErrPasswordTooWeak.Error() + ": must contain " + strings.Join(e.Violations, ", ")
}

func (e *PasswordPolicyError) Is(target error) bool {
	return target == ErrPasswordTooWeak
}

// Outcome labels err for metrics: "success" for nil, a short reason for
// known sentinels and "error" otherwise.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrRefreshTokenMissing):
		return "missing"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid"
	default:
		return "error"
	}
}
