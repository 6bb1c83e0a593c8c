package client

import (
	"context"

	"github.com/dmitrijs2005/gridconsole/internal/api"
)

type Client interface {
	Close() error
	Login(ctx context.Context, username, password string) (*api.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
	RefreshSession(ctx context.Context) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*api.UserProfile, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	Ping(ctx context.Context) error
}
