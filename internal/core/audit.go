package core

import "time"

// Audit actions recorded by the service layer.
const (
	ActionLogin     = "auth.login"
	ActionVerify    = "token.verify"
	ActionAuthorize = "policy.authorize"
)

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "auth.login", "policy.authorize")
	Action string `json:"action"`

	// Subject identifies who made the request, if known
	Subject string `json:"subject,omitempty"`

	// Claims carried by the token involved in the event
	Claims ClaimSet `json:"claims,omitempty"`

	// PolicyName that was evaluated, for authorization events
	PolicyName string `json:"policy_name,omitempty"`

	// TokenFingerprint identifies the issued or presented token without
	// recording the token itself
	TokenFingerprint string `json:"token_fingerprint,omitempty"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Reason holds the deny reason for denied authorization events
	Reason string `json:"reason,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
