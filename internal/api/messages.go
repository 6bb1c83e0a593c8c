package api

import "time"

type Role string

const (
	RoleAdmin             Role = "admin"
	RoleTrader            Role = "trader"
	RoleStorageOperator   Role = "storage_operator"
	RoleTradingManager    Role = "trading_manager"
	RoleExecutiveReadonly Role = "executive_readonly"
)

type Empty struct{}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is returned by Login and Refresh. The refresh token is rotated on
// every refresh and must replace the previous one.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// PingStatusOK is the status of a healthy server.
const PingStatusOK = "OK"

type PingResponse struct {
	Status string `json:"status"`
}

// UserProfile is the "who am I" answer.
type UserProfile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"is_active"`
	IsLocked    bool       `json:"is_locked"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
