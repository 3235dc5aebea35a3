package core

// Well-known claim types. Everything else is a free-form attribute claim.
const (
	ClaimSubject = "sub"
	ClaimRole    = "role"
)

// Claim is a single typed attribute of an authenticated identity.
// A claim type may repeat within a set (e.g. one "role" claim per role).
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ClaimSet is the set of claims attached to one authentication event.
// Order within the set carries no meaning.
type ClaimSet []Claim

// Has reports whether the set contains a claim with the exact (type, value) pair.
func (cs ClaimSet) Has(claimType, value string) bool {
	for _, c := range cs {
		if c.Type == claimType && c.Value == value {
			return true
		}
	}
	return false
}

// Values returns all values of claims with the given type, in set order.
func (cs ClaimSet) Values(claimType string) []string {
	var values []string
	for _, c := range cs {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

// First returns the value of the first claim with the given type.
func (cs ClaimSet) First(claimType string) (string, bool) {
	for _, c := range cs {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// Subject returns the value of the identity claim, or "" if absent.
func (cs ClaimSet) Subject() string {
	sub, _ := cs.First(ClaimSubject)
	return sub
}

// Roles returns all role claim values.
func (cs ClaimSet) Roles() []string {
	return cs.Values(ClaimRole)
}

// Attributes returns the claims that are neither the identity claim nor role
// claims, as a multi-valued map. Used by the policy evaluator's expression
// environment and for display.
func (cs ClaimSet) Attributes() map[string][]string {
	attrs := make(map[string][]string)
	for _, c := range cs {
		if c.Type == ClaimSubject || c.Type == ClaimRole {
			continue
		}
		attrs[c.Type] = append(attrs[c.Type], c.Value)
	}
	return attrs
}
