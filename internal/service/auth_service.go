package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/averen/sigil/internal/audit"
	"github.com/averen/sigil/internal/authz"
	"github.com/averen/sigil/internal/claims"
	"github.com/averen/sigil/internal/core"
	"github.com/averen/sigil/internal/token"
)

// AuthService wires the credential verifier, claims builder, token issuer
// and verifier, and policy registry into the operations the API exposes.
type AuthService struct {
	credentials core.CredentialVerifier
	issuer      *token.Issuer
	verifier    *token.Verifier
	policies    *authz.Registry
	auditor     core.Auditor
}

func NewAuthService(
	credentials core.CredentialVerifier,
	issuer *token.Issuer,
	verifier *token.Verifier,
	policies *authz.Registry,
	auditor core.Auditor,
) *AuthService {
	return &AuthService{
		credentials: credentials,
		issuer:      issuer,
		verifier:    verifier,
		policies:    policies,
		auditor:     auditor,
	}
}

// Login verifies the credentials, builds the claim set, and issues a token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:      reqID,
		Time:    time.Now(),
		Action:  core.ActionLogin,
		Subject: req.Username,
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for login")
		}
	}()

	identity, err := s.credentials.Verify(ctx, req.Username, req.Password)
	if err != nil {
		auditEntry.Error = "credential verification failed"
		return nil, httpError(http.StatusUnauthorized,
			fmt.Errorf("credential verification failed: %w", err))
	}

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("sub", identity.Subject)
	})

	claimSet, err := claims.Build(identity)
	if err != nil {
		auditEntry.Error = "building claims failed"
		return nil, httpError(http.StatusInternalServerError,
			fmt.Errorf("building claims: %w", err))
	}
	auditEntry.Claims = claimSet

	ttl := time.Duration(req.ExpiryMinutes) * time.Minute
	signed, expiresAt, err := s.issuer.Issue(claimSet, ttl)
	if err != nil {
		auditEntry.Error = "issuing token failed"
		return nil, httpError(http.StatusInternalServerError,
			fmt.Errorf("issuing token: %w", err))
	}

	auditEntry.Success = true
	auditEntry.TokenFingerprint = audit.Fingerprint(signed)

	return &LoginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify validates an inbound token and returns its claim set. Every
// verification failure surfaces as a distinct 401 so callers can tell "not
// authenticated" apart from "not authorized".
func (s *AuthService) Verify(ctx context.Context, rawToken string) (core.ClaimSet, error) {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:               reqID,
		Time:             time.Now(),
		Action:           core.ActionVerify,
		TokenFingerprint: audit.Fingerprint(rawToken),
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for verification")
		}
	}()

	claimSet, err := s.verifier.Verify(rawToken)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, httpError(http.StatusUnauthorized, err)
	}

	auditEntry.Success = true
	auditEntry.Subject = claimSet.Subject()
	auditEntry.Claims = claimSet
	return claimSet, nil
}

// Authorize evaluates the named policy against the claim set. Deny reasons go
// to the audit log and request logger; the caller-facing error stays generic.
func (s *AuthService) Authorize(ctx context.Context, claimSet core.ClaimSet, policyName string) error {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:         reqID,
		Time:       time.Now(),
		Action:     core.ActionAuthorize,
		Subject:    claimSet.Subject(),
		PolicyName: policyName,
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for authorization")
		}
	}()

	policy, err := s.policies.Get(policyName)
	if err != nil {
		// attachments are resolved at startup, so this is a config drift bug
		auditEntry.Error = "policy not found"
		if errors.Is(err, authz.ErrPolicyNotFound) {
			return httpError(http.StatusInternalServerError, err)
		}
		return httpError(http.StatusInternalServerError, fmt.Errorf("policy lookup: %w", err))
	}

	decision := authz.Evaluate(claimSet, policy)
	if !decision.Allowed {
		auditEntry.Reason = decision.Reason
		logger.Warn().
			Str("policy", policyName).
			Str("reason", decision.Reason).
			Msg("policy denied")
		return httpError(http.StatusForbidden, fmt.Errorf("access denied"))
	}

	auditEntry.Success = true
	return nil
}
