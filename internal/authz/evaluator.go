// Package authz evaluates named policies against claim sets.
package authz

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/averen/sigil/internal/core"
)

// Evaluate checks the claim set against every requirement of the policy,
// short-circuiting on the first failure. The deny decision names only the
// failed requirement, never which requirements passed. A policy with zero
// requirements always allows. Stateless per call.
func Evaluate(claims core.ClaimSet, policy *core.Policy) core.Decision {
	for _, req := range policy.Requirements {
		if satisfied, _ := checkRequirement(req, claims); !satisfied {
			return core.Deny(req)
		}
	}
	return core.Allow()
}

// checkRequirement evaluates a single requirement. The reason is only
// populated on failure and feeds trace output.
func checkRequirement(req core.Requirement, claims core.ClaimSet) (bool, string) {
	switch req.Kind {
	case core.KindRole:
		// OR over the listed roles: any one of them satisfies
		for _, role := range req.Roles {
			if claims.Has(core.ClaimRole, role) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("none of the required roles present, have %v", claims.Roles())

	case core.KindClaim:
		if claims.Has(req.ClaimType, req.ClaimValue) {
			return true, ""
		}
		return false, fmt.Sprintf("claim '%s' with value '%s' not present", req.ClaimType, req.ClaimValue)

	case core.KindExpr:
		if req.CompiledExpr == nil {
			return false, "expression not compiled; policy was not loaded through the registry"
		}
		out, err := expr.Run(req.CompiledExpr, exprEnv(claims))
		if err != nil {
			log.Warn().Err(err).Str("expr", req.Expr).Msg("expression evaluation failed")
			return false, fmt.Sprintf("error evaluating expression: %v", err)
		}
		if b, ok := out.(bool); ok && b {
			return true, ""
		}
		return false, "expression evaluated to false"
	}

	return false, fmt.Sprintf("unknown requirement kind '%s'", req.Kind)
}

// exprEnv is the variable environment expression requirements run against.
func exprEnv(claims core.ClaimSet) map[string]any {
	return map[string]any{
		"subject": claims.Subject(),
		"roles":   claims.Roles(),
		"claims":  claims.Attributes(),
	}
}
