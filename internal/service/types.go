package service

import (
	"time"

	"github.com/averen/sigil/internal/core"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// ExpiryMinutes optionally overrides the configured default lifetime.
	ExpiryMinutes int `json:"expiry_minutes,omitempty"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // always "Bearer"
	ExpiresIn   int64  `json:"expires_in"`

	ExpiresAt time.Time `json:"expires_at"`
}

type WhoamiResponse struct {
	Subject string        `json:"subject"`
	Roles   []string      `json:"roles"`
	Claims  core.ClaimSet `json:"claims"`
}
