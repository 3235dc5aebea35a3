package authz

import (
	"strings"
	"testing"

	"github.com/averen/sigil/internal/core"
)

func adminClaims() core.ClaimSet {
	return core.ClaimSet{
		{Type: core.ClaimSubject, Value: "alice"},
		{Type: core.ClaimRole, Value: "Admin"},
		{Type: "email", Value: "a@x.com"},
	}
}

func managerClaims() core.ClaimSet {
	return core.ClaimSet{
		{Type: core.ClaimSubject, Value: "bob"},
		{Type: core.ClaimRole, Value: "Manager"},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		policy core.Policy
		claims core.ClaimSet
		want   bool
	}{
		{
			name:   "Empty Policy Always Allows",
			policy: core.Policy{Name: "open"},
			claims: core.ClaimSet{},
			want:   true,
		},
		{
			name: "AdminOnly - Admin Allowed",
			policy: core.Policy{Name: "AdminOnly", Requirements: []core.Requirement{
				{Kind: core.KindRole, Roles: []string{"Admin"}},
			}},
			claims: adminClaims(),
			want:   true,
		},
		{
			name: "AdminOnly - Manager Denied",
			policy: core.Policy{Name: "AdminOnly", Requirements: []core.Requirement{
				{Kind: core.KindRole, Roles: []string{"Admin"}},
			}},
			claims: managerClaims(),
			want:   false,
		},
		{
			name: "Role OR Semantics - Manager Satisfies Either",
			policy: core.Policy{Name: "staff", Requirements: []core.Requirement{
				{Kind: core.KindRole, Roles: []string{"Admin", "Manager"}},
			}},
			claims: managerClaims(),
			want:   true,
		},
		{
			name: "Requirement AND Semantics - Both Pass",
			policy: core.Policy{Name: "strict", Requirements: []core.Requirement{
				{Kind: core.KindRole, Roles: []string{"Admin"}},
				{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "a@x.com"},
			}},
			claims: adminClaims(),
			want:   true,
		},
		{
			name: "Requirement AND Semantics - Second Fails",
			policy: core.Policy{Name: "strict", Requirements: []core.Requirement{
				{Kind: core.KindRole, Roles: []string{"Admin"}},
				{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "b@x.com"},
			}},
			claims: adminClaims(),
			want:   false,
		},
		{
			name: "Requirement AND Semantics - First Fails",
			policy: core.Policy{Name: "strict", Requirements: []core.Requirement{
				{Kind: core.KindRole, Roles: []string{"Auditor"}},
				{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "a@x.com"},
			}},
			claims: adminClaims(),
			want:   false,
		},
		{
			name: "Claim Requirement - Exact Pair Required",
			policy: core.Policy{Name: "verified", Requirements: []core.Requirement{
				{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "a@x.com"},
			}},
			claims: adminClaims(),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.claims, &tt.policy)
			if got.Allowed != tt.want {
				t.Errorf("Evaluate() allowed = %v, want %v. Reason: %s", got.Allowed, tt.want, got.Reason)
			}
		})
	}
}

func TestEvaluate_DenyNamesFailingRequirement(t *testing.T) {
	policy := core.Policy{Name: "strict", Requirements: []core.Requirement{
		{Kind: core.KindRole, Roles: []string{"Admin"}},
		{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "b@x.com"},
	}}

	got := Evaluate(adminClaims(), &policy)
	if got.Allowed {
		t.Fatal("Evaluate() allowed, want deny")
	}
	if !strings.Contains(got.Reason, "email") {
		t.Errorf("deny reason %q does not name the failing requirement", got.Reason)
	}
	if strings.Contains(got.Reason, "Admin") {
		t.Errorf("deny reason %q leaks a passing requirement", got.Reason)
	}
}

func TestEvaluate_ExprRequirement(t *testing.T) {
	registry, err := NewRegistry([]core.Policy{
		{
			Name: "acme-only",
			Requirements: []core.Requirement{
				{Kind: core.KindExpr, Expr: `claims.email[0] endsWith "@x.com"`},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	policy, err := registry.Get("acme-only")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got := Evaluate(adminClaims(), policy); !got.Allowed {
		t.Errorf("Evaluate() denied: %s", got.Reason)
	}
	if got := Evaluate(managerClaims(), policy); got.Allowed {
		t.Error("Evaluate() allowed a claim set without the email attribute")
	}
}

func TestEvaluateTrace_ReportsAllRequirements(t *testing.T) {
	policy := core.Policy{Name: "strict", Requirements: []core.Requirement{
		{Kind: core.KindRole, Roles: []string{"Auditor"}},
		{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "a@x.com"},
	}}

	decision, results := EvaluateTrace(adminClaims(), &policy)
	if decision.Allowed {
		t.Fatal("EvaluateTrace() allowed, want deny")
	}
	if len(results) != 2 {
		t.Fatalf("EvaluateTrace() returned %d results, want 2 (no short-circuit)", len(results))
	}
	if results[0].Satisfied {
		t.Error("first requirement reported satisfied, want failed")
	}
	if !results[1].Satisfied {
		t.Error("second requirement reported failed, want satisfied")
	}
}
