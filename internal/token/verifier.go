package token

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/averen/sigil/internal/core"
)

// MaxLeeway bounds the configurable clock skew allowance.
const MaxLeeway = 5 * time.Minute

// Verifier checks inbound tokens and reconstructs their claim sets.
// Checks run in a fixed order and fail fast: structure, signature, issuer,
// audience, expiry. Purely computational, no I/O.
type Verifier struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration

	now func() time.Time
}

func NewVerifier(key []byte, issuer, audience string, leeway time.Duration) *Verifier {
	if leeway < 0 {
		leeway = 0
	}
	if leeway > MaxLeeway {
		leeway = MaxLeeway
	}
	return &Verifier{
		key:      key,
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
		now:      time.Now,
	}
}

// Verify validates the token and returns the claim set reconstructed from its
// payload. The returned set is a fresh copy owned by the caller.
//
// The MAC covers the encoded header+payload bytes, so the signature is checked
// before the payload is decoded at all: a tampered payload segment fails as an
// invalid signature, not as a malformed token.
func (v *Verifier) Verify(raw string) (core.ClaimSet, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	parser := jwt.NewParser()

	// 1. structural check: exactly three segments, header and signature
	// segments decodable
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: expected three segments", ErrMalformedToken)
	}

	headerBytes, err := parser.DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding header segment: %v", ErrMalformedToken, err)
	}
	var header struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("%w: parsing header: %v", ErrMalformedToken, err)
	}

	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding signature segment: %v", ErrMalformedToken, err)
	}

	// 2. signature check. The algorithm is pinned: a token claiming any
	// other method cannot have been signed with our key. The underlying
	// comparison is constant-time (hmac.Equal).
	if header.Alg != signingMethod.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing method '%s'", ErrInvalidSignature, header.Alg)
	}
	signingInput := strings.Join(parts[0:2], ".")
	if err := signingMethod.Verify(signingInput, sig, v.key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// only now decode the authenticated payload
	payloadBytes, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding payload segment: %v", ErrMalformedToken, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("%w: parsing payload: %v", ErrMalformedToken, err)
	}

	// 3. issuer check
	iss, _ := payload["iss"].(string)
	if iss != v.issuer {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'", ErrIssuerMismatch, v.issuer, iss)
	}

	// 4. audience check
	aud, _ := payload["aud"].(string)
	if aud != v.audience {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'", ErrAudienceMismatch, v.audience, aud)
	}

	// 5. expiry check: now must be strictly before exp (+ leeway)
	expNum, ok := payload["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing or non-numeric 'exp'", ErrMalformedToken)
	}
	exp := time.Unix(int64(expNum), 0)
	if !v.now().Before(exp.Add(v.leeway)) {
		return nil, fmt.Errorf("%w: expired at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}

	return reconstructClaims(payload), nil
}

// reconstructClaims maps the token payload back into a claim set. The copy
// has no ownership relationship to whatever set the issuer was handed.
func reconstructClaims(payload map[string]any) core.ClaimSet {
	var claims core.ClaimSet

	if sub, ok := payload["sub"].(string); ok && sub != "" {
		claims = append(claims, core.Claim{Type: core.ClaimSubject, Value: sub})
	}

	if roles, ok := payload[rolesClaim].([]any); ok {
		for _, r := range roles {
			claims = append(claims, core.Claim{Type: core.ClaimRole, Value: fmt.Sprint(r)})
		}
	}

	// remaining payload fields are attribute claims; iterate in sorted key
	// order so reconstruction is deterministic
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, reserved := registeredClaims[k]; reserved || k == "sub" || k == rolesClaim {
			continue
		}
		switch val := payload[k].(type) {
		case []any:
			for _, item := range val {
				claims = append(claims, core.Claim{Type: k, Value: fmt.Sprint(item)})
			}
		default:
			claims = append(claims, core.Claim{Type: k, Value: fmt.Sprint(val)})
		}
	}

	return claims
}
