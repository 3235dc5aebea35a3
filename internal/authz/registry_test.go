package authz

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/averen/sigil/internal/core"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name     string
		policies []core.Policy
		wantErr  bool
	}{
		{
			name: "Valid Policies",
			policies: []core.Policy{
				{Name: "a", Requirements: []core.Requirement{{Kind: core.KindRole, Roles: []string{"Admin"}}}},
				{Name: "b", Requirements: []core.Requirement{{Kind: core.KindClaim, ClaimType: "email", ClaimValue: "x"}}},
			},
		},
		{
			name:     "Empty Set Is Valid",
			policies: nil,
		},
		{
			name: "Duplicate Names Rejected",
			policies: []core.Policy{
				{Name: "a"},
				{Name: "a"},
			},
			wantErr: true,
		},
		{
			name: "Missing Name Rejected",
			policies: []core.Policy{
				{Requirements: []core.Requirement{{Kind: core.KindRole, Roles: []string{"Admin"}}}},
			},
			wantErr: true,
		},
		{
			name: "Invalid Requirement Rejected",
			policies: []core.Policy{
				{Name: "a", Requirements: []core.Requirement{{Kind: core.KindRole}}},
			},
			wantErr: true,
		},
		{
			name: "Broken Expression Rejected",
			policies: []core.Policy{
				{Name: "a", Requirements: []core.Requirement{{Kind: core.KindExpr, Expr: `roles in (`}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.policies)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRegistry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	policies := []core.Policy{
		{Name: "AdminOnly", Requirements: []core.Requirement{{Kind: core.KindRole, Roles: []string{"Admin"}}}},
	}
	registry, err := NewRegistry(policies)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	got, err := registry.Get("AdminOnly")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(&policies[0], got, cmpopts.IgnoreFields(core.Requirement{}, "CompiledExpr")); diff != "" {
		t.Errorf("policy mismatch (-want +got):\n%s", diff)
	}

	_, err = registry.Get("nope")
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("Get() error = %v, want ErrPolicyNotFound", err)
	}
}

func TestRegistry_CompilesExpressions(t *testing.T) {
	registry, err := NewRegistry([]core.Policy{
		{Name: "expr", Requirements: []core.Requirement{{Kind: core.KindExpr, Expr: `"Admin" in roles`}}},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	policy, err := registry.Get("expr")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if policy.Requirements[0].CompiledExpr == nil {
		t.Error("expression requirement was not compiled")
	}
}

func TestRegistry_Names(t *testing.T) {
	registry, err := NewRegistry([]core.Policy{{Name: "b"}, {Name: "a"}})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}
