package client

import (
	"context"
	"net/http"
	"time"

	"github.com/averen/sigil/internal/api"
	"github.com/averen/sigil/internal/core"
)

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type WhoamiResult struct {
	Subject string        `json:"subject"`
	Roles   []string      `json:"roles"`
	Claims  core.ClaimSet `json:"claims"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}
	var result LoginResult
	if err := c.post(ctx, api.LoginRoute, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Whoami asks the server to verify the token and return its claims.
func (c *Client) Whoami(token string) (*WhoamiResult, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+api.WhoamiRoute, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var result WhoamiResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Audits lists recent audit entries from the admin endpoint. Requires the
// client token to satisfy the attached policy.
func (c *Client) Audits(ctx context.Context) ([]core.AuditEntry, error) {
	var entries []core.AuditEntry
	if err := c.get(ctx, api.ListAuditsRoute, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
