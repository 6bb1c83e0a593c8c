package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/dbx"
	"github.com/dmitrijs2005/gridconsole/internal/server/models"
)

const userColumns = `id, username, password_hash, display_name, phone, email, role,
		 is_active, is_locked, failed_login_attempts, locked_until, last_login_at,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, password_hash, display_name, phone, email, role, is_active)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.DisplayName, user.Phone, user.Email, user.Role, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE username = $1
		 `
	return r.getOne(ctx, query, username)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u           models.User
		lockedUntil sql.NullTime
		lastLoginAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Phone, &u.Email, &u.Role,
		&u.IsActive, &u.IsLocked, &u.FailedLoginAttempts, &lockedUntil, &lastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockedUntil.Valid {
		u.LockedUntil = &lockedUntil.Time
	}
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}

	return &u, nil
}

func (r *PostgresRepository) IncrementFailedAttempts(ctx context.Context, id string, now time.Time) (int, error) {
	query :=
		`UPDATE users SET failed_login_attempts = failed_login_attempts + 1, updated_at = $2
		 WHERE id = $1
		 RETURNING failed_login_attempts
		 `

	var attempts int
	err := r.db.QueryRowContext(ctx, query, id, now).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return attempts, nil
}

func (r *PostgresRepository) Lock(ctx context.Context, id string, until time.Time, now time.Time) error {
	query :=
		`UPDATE users SET is_locked = TRUE, locked_until = $2, updated_at = $3
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, until, now)
}

func (r *PostgresRepository) ResetFailedAttempts(ctx context.Context, id string, now time.Time) error {
	query :=
		`UPDATE users SET failed_login_attempts = 0, is_locked = FALSE, locked_until = NULL, updated_at = $2
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, now)
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, now time.Time) error {
	query :=
		`UPDATE users SET last_login_at = $2, updated_at = $2
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, now)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash string, now time.Time) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = $3
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, hash, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
