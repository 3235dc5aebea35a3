package token

import "errors"

// Verification errors, in the order the checks run. None of these are
// retryable: the caller has to re-authenticate.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrIssuerMismatch   = errors.New("issuer mismatch")
	ErrAudienceMismatch = errors.New("audience mismatch")
	ErrTokenExpired     = errors.New("token expired")
)

// ErrSigningKeyMissing is returned at issuance time when no signing key is
// configured. Fatal to the issuing call, never retried.
var ErrSigningKeyMissing = errors.New("signing key is empty")
