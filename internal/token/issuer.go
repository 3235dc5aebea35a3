package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/averen/sigil/internal/core"
)

// signingMethod is shared by issuer and verifier. Both sides use the same
// symmetric key, so verification accepts exactly this algorithm and no other.
var signingMethod = jwt.SigningMethodHS512

// Registered JWT claim names. Anything else in the payload is treated as an
// attribute claim when the verifier reconstructs the claim set.
var registeredClaims = map[string]struct{}{
	"iss": {}, "aud": {}, "exp": {}, "iat": {}, "nbf": {}, "jti": {},
}

const rolesClaim = "roles"

// Issuer signs claim sets into compact bearer tokens.
type Issuer struct {
	key        []byte
	issuer     string
	audience   string
	defaultTTL time.Duration

	// now is swappable for tests
	now func() time.Time
}

func NewIssuer(key []byte, issuer, audience string, defaultTTL time.Duration) (*Issuer, error) {
	if len(key) == 0 {
		return nil, ErrSigningKeyMissing
	}
	return &Issuer{
		key:        key,
		issuer:     issuer,
		audience:   audience,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Issue signs the claim set into a compact token expiring ttl from now.
// A non-positive ttl falls back to the configured default.
func (i *Issuer) Issue(claims core.ClaimSet, ttl time.Duration) (string, time.Time, error) {
	if len(i.key) == 0 {
		return "", time.Time{}, ErrSigningKeyMissing
	}
	if ttl <= 0 {
		ttl = i.defaultTTL
	}

	now := i.now()
	exp := now.Add(ttl)

	payload := jwt.MapClaims{
		"iss": i.issuer,
		"aud": i.audience,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	if sub := claims.Subject(); sub != "" {
		payload["sub"] = sub
	}
	if roles := claims.Roles(); len(roles) > 0 {
		payload[rolesClaim] = roles
	}
	for key, values := range claims.Attributes() {
		if _, reserved := registeredClaims[key]; reserved || key == rolesClaim {
			return "", time.Time{}, fmt.Errorf("claim type '%s' collides with a reserved payload field", key)
		}
		if len(values) == 1 {
			payload[key] = values[0]
		} else {
			payload[key] = values
		}
	}

	signed, err := jwt.NewWithClaims(signingMethod, payload).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}
