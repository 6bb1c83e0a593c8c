// Package services holds the auth server's business logic: password login
// with lockout, refresh-token rotation, logout, profile lookup and password
// changes.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/dbx"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
	"github.com/dmitrijs2005/gridconsole/internal/server/auth"
	"github.com/dmitrijs2005/gridconsole/internal/server/config"
	"github.com/dmitrijs2005/gridconsole/internal/server/models"
	"github.com/dmitrijs2005/gridconsole/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Observer receives login and refresh outcomes, see Outcome.
type Observer interface {
	LoginAttempt(outcome string)
	TokenRefresh(outcome string)
}

type nopObserver struct{}

func (nopObserver) LoginAttempt(string) {}
func (nopObserver) TokenRefresh(string) {}

type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	clock                        clock.Clock
	logger                       logging.Logger
	observer                     Observer
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	maxFailedLogins              int
	lockDuration                 time.Duration
}

// NewAuthService builds the service. clk and obs may be nil.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clk clock.Clock, l logging.Logger, obs Observer) *AuthService {
	if clk == nil {
		clk = clock.New()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		clock:                        clk,
		logger:                       l.With("module", "auth_service"),
		observer:                     obs,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		maxFailedLogins:              cfg.MaxFailedLogins,
		lockDuration:                 cfg.LockDuration,
	}
}

// Login checks the password of username and issues a token pair. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (pair *TokenPair, err error) {
	defer func() { s.observer.LoginAttempt(Outcome(err)) }()

	repo := s.repomanager.Users(s.db)
	now := s.clock.Now()

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "login failed", "reason", "user_not_found", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "get user", err)
	}

	if !user.IsActive {
		s.logger.Warn(ctx, "login failed", "reason", "account_disabled", "username", username)
		return nil, ErrAccountDisabled
	}

	if user.IsLocked && user.LockedUntil != nil {
		if user.LockActive(now) {
			remaining := int(user.LockedUntil.Sub(now).Minutes()) + 1
			s.logger.Warn(ctx, "login failed", "reason", "account_locked", "username", username, "remaining_minutes", remaining)
			return nil, fmt.Errorf("%w: try again in %d min", ErrAccountLocked, remaining)
		}
		if err := repo.ResetFailedAttempts(ctx, user.ID, now); err != nil {
			return nil, s.internal(ctx, "unlock user", err)
		}
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		attempts, err := repo.IncrementFailedAttempts(ctx, user.ID, now)
		if err != nil {
			return nil, s.internal(ctx, "count failed login", err)
		}
		s.logger.Warn(ctx, "login failed", "reason", "invalid_password", "username", username, "failed_attempts", attempts)

		if attempts >= s.maxFailedLogins {
			if err := repo.Lock(ctx, user.ID, now.Add(s.lockDuration), now); err != nil {
				return nil, s.internal(ctx, "lock user", err)
			}
			s.logger.Warn(ctx, "account locked", "username", username, "lock_duration", s.lockDuration)
		}
		return nil, ErrInvalidCredentials
	}

	if err := repo.ResetFailedAttempts(ctx, user.ID, now); err != nil {
		return nil, s.internal(ctx, "reset failed logins", err)
	}
	if err := repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, s.internal(ctx, "stamp last login", err)
	}

	pair, err = s.issue(ctx, s.db, user, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login success", "username", username, "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked and its replacement stored in the same transaction, so a token can
// be redeemed at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { s.observer.TokenRefresh(Outcome(err)) }()

	if refreshToken == "" {
		return nil, ErrRefreshTokenMissing
	}

	now := s.clock.Now()

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		tokens := s.repomanager.RefreshTokens(tx)

		stored, err := tokens.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, ErrTokenInvalid
			}
			return nil, s.internal(ctx, "find refresh token", err)
		}

		if !stored.ExpiresAt.After(now) {
			return nil, ErrTokenExpired
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, ErrTokenInvalid
			}
			return nil, s.internal(ctx, "get user", err)
		}
		if !user.IsActive {
			return nil, ErrTokenInvalid
		}

		deleted, err := tokens.Delete(ctx, refreshToken)
		if err != nil {
			return nil, s.internal(ctx, "revoke refresh token", err)
		}
		if !deleted {
			// redeemed concurrently
			return nil, ErrTokenInvalid
		}

		return s.issue(ctx, tx, user, now)
	})
}

// Logout revokes refreshToken when it belongs to userID. Unknown tokens are
// ignored so repeated logouts succeed.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	tokens := s.repomanager.RefreshTokens(s.db)

	stored, err := tokens.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return s.internal(ctx, "find refresh token", err)
	}
	if stored.UserID != userID {
		s.logger.Warn(ctx, "logout with foreign refresh token", "user_id", userID)
		return nil
	}

	if _, err := tokens.Delete(ctx, refreshToken); err != nil {
		return s.internal(ctx, "revoke refresh token", err)
	}

	s.logger.Info(ctx, "logout", "user_id", userID)
	return nil
}

// Me returns the account behind userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, s.internal(ctx, "get user", err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrTokenInvalid
		}
		return s.internal(ctx, "get user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrPasswordMismatch
	}

	if v := auth.ValidatePasswordStrength(newPassword); len(v) > 0 {
		return &PasswordPolicyError{Violations: v}
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}

	if err := repo.UpdatePassword(ctx, user.ID, hash, s.clock.Now()); err != nil {
		return s.internal(ctx, "update password", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// EnsureAdmin creates an active admin account named username unless one
// already exists. An empty username is a no-op.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error checking admin user: %w", err)
	}

	if v := auth.ValidatePasswordStrength(password); len(v) > 0 {
		return &PasswordPolicyError{Violations: v}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	_, err = repo.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         string(api.RoleAdmin),
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("error creating admin user: %w", err)
	}

	s.logger.Info(ctx, "admin user created", "username", username)
	return nil
}

func (s *AuthService) issue(ctx context.Context, db dbx.DBTX, user *models.User, now time.Time) (*TokenPair, error) {
	accessToken, err := auth.GenerateAccessToken(user.ID, user.Username, user.Role, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		return nil, s.internal(ctx, "sign access token", err)
	}

	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, s.internal(ctx, "generate refresh token", err)
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, s.internal(ctx, "store refresh token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// internal logs err and hides it behind common.ErrorInternal.
func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op, "error", err)
	return common.ErrorInternal
}
