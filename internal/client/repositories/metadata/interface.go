// Package metadata is a small key/value table in the console's SQLite
// database. Credentials are stored here under common.AccessTokenKey and
// common.RefreshTokenKey.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany upserts all pairs in one statement.
	SetMany(ctx context.Context, values map[string][]byte) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
