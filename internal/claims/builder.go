// Package claims assembles claim sets for verified identities.
package claims

import (
	"errors"
	"sort"

	"github.com/averen/sigil/internal/core"
)

// ErrInvalidIdentity is returned when the input identity has no subject.
var ErrInvalidIdentity = errors.New("invalid identity: empty subject")

// Build produces the claim set for a verified identity: one identity claim,
// one role claim per assigned role, and one claim per extra attribute.
// Pure transformation, no side effects.
func Build(identity *core.Identity) (core.ClaimSet, error) {
	if identity == nil || identity.Subject == "" {
		return nil, ErrInvalidIdentity
	}

	claims := core.ClaimSet{
		{Type: core.ClaimSubject, Value: identity.Subject},
	}
	for _, role := range identity.Roles {
		claims = append(claims, core.Claim{Type: core.ClaimRole, Value: role})
	}

	// attributes in sorted order so building is deterministic
	keys := make([]string, 0, len(identity.Attributes))
	for k := range identity.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		claims = append(claims, core.Claim{Type: k, Value: identity.Attributes[k]})
	}

	return claims, nil
}
