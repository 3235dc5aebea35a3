package claims

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/averen/sigil/internal/core"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		identity *core.Identity
		want     core.ClaimSet
		wantErr  error
	}{
		{
			name:     "Subject Only",
			identity: &core.Identity{Subject: "alice"},
			want: core.ClaimSet{
				{Type: core.ClaimSubject, Value: "alice"},
			},
		},
		{
			name:     "One Claim Per Role",
			identity: &core.Identity{Subject: "alice", Roles: []string{"admin", "auditor"}},
			want: core.ClaimSet{
				{Type: core.ClaimSubject, Value: "alice"},
				{Type: core.ClaimRole, Value: "admin"},
				{Type: core.ClaimRole, Value: "auditor"},
			},
		},
		{
			name: "Attributes Sorted By Type",
			identity: &core.Identity{
				Subject:    "bob",
				Attributes: map[string]string{"email": "b@x.com", "dept": "ops"},
			},
			want: core.ClaimSet{
				{Type: core.ClaimSubject, Value: "bob"},
				{Type: "dept", Value: "ops"},
				{Type: "email", Value: "b@x.com"},
			},
		},
		{
			name:     "Empty Subject",
			identity: &core.Identity{},
			wantErr:  ErrInvalidIdentity,
		},
		{
			name:     "Nil Identity",
			identity: nil,
			wantErr:  ErrInvalidIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.identity)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Build() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
