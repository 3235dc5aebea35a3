package authz

import "github.com/averen/sigil/internal/core"

// EvaluateTrace is the explain variant of Evaluate: it checks every
// requirement without short-circuiting and reports each result. Meant for
// operators debugging policies (the `policy check` command), not for request
// handling, where Evaluate's minimal contract applies.
func EvaluateTrace(claims core.ClaimSet, policy *core.Policy) (core.Decision, []core.RequirementResult) {
	results := make([]core.RequirementResult, 0, len(policy.Requirements))
	decision := core.Allow()

	for _, req := range policy.Requirements {
		satisfied, reason := checkRequirement(req, claims)
		results = append(results, core.RequirementResult{
			Expression: req.Describe(),
			Satisfied:  satisfied,
			Reason:     reason,
		})
		if !satisfied && decision.Allowed {
			decision = core.Deny(req)
		}
	}

	return decision, results
}
