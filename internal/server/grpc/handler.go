package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/api"
	"github.com/dmitrijs2005/gridconsole/internal/server/models"
	"github.com/dmitrijs2005/gridconsole/internal/server/services"
)

const tokenTypeBearer = "bearer"

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenPair, error) {
	pair, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return toTokenPair(pair), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *api.RefreshRequest) (*api.TokenPair, error) {
	pair, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return toTokenPair(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *api.LogoutRequest) (*api.Empty, error) {
	if err := s.auth.Logout(ctx, userIDFromContext(ctx), req.RefreshToken); err != nil {
		return nil, toStatus(err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *api.Empty) (*api.UserProfile, error) {
	user, err := s.auth.Me(ctx, userIDFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return toProfile(user, time.Now()), nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.Empty, error) {
	if err := s.auth.ChangePassword(ctx, userIDFromContext(ctx), req.OldPassword, req.NewPassword); err != nil {
		return nil, toStatus(err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) Ping(context.Context, *api.Empty) (*api.PingResponse, error) {
	return &api.PingResponse{Status: api.PingStatusOK}, nil
}

func toTokenPair(p *services.TokenPair) *api.TokenPair {
	return &api.TokenPair{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: tokenTypeBearer}
}

func toProfile(u *models.User, now time.Time) *api.UserProfile {
	return &api.UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Email:       u.Email,
		Role:        api.Role(u.Role),
		IsActive:    u.IsActive,
		IsLocked:    u.LockActive(now),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
