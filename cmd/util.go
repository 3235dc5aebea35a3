package cmd

import (
	"fmt"
	"strings"

	"github.com/averen/sigil/internal/core"
)

// parseClaimFlags turns repeated "type=value" flags into claims.
func parseClaimFlags(raw []string) (core.ClaimSet, error) {
	var claims core.ClaimSet
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid claim '%s', expected type=value", pair)
		}
		claims = append(claims, core.Claim{Type: key, Value: value})
	}
	return claims, nil
}

// claimSetFromFlags assembles a claim set from --subject, --role, and --claim
// flags, for commands that evaluate or issue without a user store lookup.
func claimSetFromFlags(subject string, roles, rawClaims []string) (core.ClaimSet, error) {
	var claims core.ClaimSet
	if subject != "" {
		claims = append(claims, core.Claim{Type: core.ClaimSubject, Value: subject})
	}
	for _, role := range roles {
		claims = append(claims, core.Claim{Type: core.ClaimRole, Value: role})
	}
	extra, err := parseClaimFlags(rawClaims)
	if err != nil {
		return nil, err
	}
	return append(claims, extra...), nil
}
