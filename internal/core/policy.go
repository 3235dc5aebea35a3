package core

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"
)

// RequirementKind selects how a Requirement is checked against a ClaimSet.
type RequirementKind string

const (
	// KindRole is satisfied if the set holds at least one of the listed roles.
	KindRole RequirementKind = "role"
	// KindClaim is satisfied if the set holds the exact (type, value) claim.
	KindClaim RequirementKind = "claim"
	// KindExpr is satisfied if the expression evaluates to true over the set.
	KindExpr RequirementKind = "expr"
)

// Requirement is a single atomic condition over a ClaimSet.
// Exactly one kind is populated; see Validate.
type Requirement struct {
	Kind RequirementKind `json:"kind"`

	// Roles for KindRole. Satisfaction is an OR over the listed values,
	// distinct from the AND a Policy applies across its requirements.
	Roles []string `json:"roles,omitempty"`

	// ClaimType and ClaimValue for KindClaim.
	ClaimType  string `json:"claim_type,omitempty"`
	ClaimValue string `json:"claim_value,omitempty"`

	// Expr for KindExpr. Compiled at registry build time.
	Expr         string      `json:"expr,omitempty"`
	CompiledExpr *vm.Program `json:"-" yaml:"-"`
}

// Policy is a named, ordered set of requirements. A ClaimSet satisfies the
// policy iff it satisfies every requirement. A policy with zero requirements
// always allows.
type Policy struct {
	Name         string        `yaml:"name" json:"name"`
	Description  string        `yaml:"description" json:"description,omitempty"`
	Requirements []Requirement `yaml:"requirements" json:"requirements"`
}

// Decision is the outcome of evaluating a policy against a claim set.
type Decision struct {
	Allowed bool `json:"allowed"`

	// Reason describes the first failing requirement on deny. It is meant
	// for logs and audit entries, not for untrusted callers.
	Reason string `json:"reason,omitempty"`
}

// RequirementResult is one row of an evaluation trace (explain mode).
type RequirementResult struct {
	Expression string `json:"expression"`
	Satisfied  bool   `json:"satisfied"`
	Reason     string `json:"reason,omitempty"`
}

// Allow is the decision for a satisfied policy.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a deny decision naming the failed requirement.
func Deny(req Requirement) Decision {
	return Decision{Allowed: false, Reason: req.Describe()}
}

// Describe renders the requirement for deny reasons and trace output.
func (r Requirement) Describe() string {
	switch r.Kind {
	case KindRole:
		if len(r.Roles) == 1 {
			return fmt.Sprintf("role equals '%s'", r.Roles[0])
		}
		return fmt.Sprintf("role in [%s]", strings.Join(r.Roles, ", "))
	case KindClaim:
		return fmt.Sprintf("claim %s equals '%s'", r.ClaimType, r.ClaimValue)
	case KindExpr:
		return fmt.Sprintf("expr (%s)", r.Expr)
	default:
		return fmt.Sprintf("unknown requirement kind '%s'", r.Kind)
	}
}

func (r *Requirement) Validate() error {
	switch r.Kind {
	case KindRole:
		if len(r.Roles) == 0 {
			return fmt.Errorf("role requirement has empty role list")
		}
	case KindClaim:
		if r.ClaimType == "" {
			return fmt.Errorf("claim requirement missing claim type")
		}
	case KindExpr:
		if r.Expr == "" {
			return fmt.Errorf("expr requirement has empty expression")
		}
	default:
		return fmt.Errorf("requirement must be one of (role, claim, expr), got '%s'", r.Kind)
	}
	return nil
}

// UnmarshalYAML supports the shorthand requirement syntax used in policy files:
//
//	- role: admin
//	- role: [admin, manager]
//	- claim: { type: email_verified, value: "true" }
//	- expr: 'subject endsWith "@acme.com"'
func (r *Requirement) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if v, ok := raw["role"]; ok {
		r.Kind = KindRole
		switch role := v.(type) {
		case string:
			r.Roles = []string{role}
		case []any:
			for _, item := range role {
				r.Roles = append(r.Roles, fmt.Sprint(item))
			}
		default:
			return fmt.Errorf("role requirement must be a string or list, got %T", v)
		}
		return nil
	}

	if v, ok := raw["claim"]; ok {
		r.Kind = KindClaim
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("claim requirement must be a map with 'type' and 'value', got %T", v)
		}
		if t, ok := m["type"]; ok {
			r.ClaimType = fmt.Sprint(t)
		}
		if val, ok := m["value"]; ok {
			r.ClaimValue = fmt.Sprint(val)
		}
		return nil
	}

	if v, ok := raw["expr"]; ok {
		r.Kind = KindExpr
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expr requirement must be a string, got %T", v)
		}
		r.Expr = s
		return nil
	}

	return fmt.Errorf("requirement must have one of (role, claim, expr) set")
}
