package auth

import (
	"testing"

	"github.com/milosbg/mbg-admin-backend/pkg/config"
)

func boolPtr(v bool) *bool { return &v }

func TestPolicyAuthorize(t *testing.T) {
	restricted := NewPolicy(config.AdminConfig{Emails: "boss@example.com", Roles: "Admin,ops"})
	open := NewPolicy(config.AdminConfig{})

	tests := []struct {
		name   string
		policy Policy
		claims *StaffClaims
		want   bool
	}{
		{"nil claims", open, nil, false},
		{"allow-listed email", restricted, &StaffClaims{Email: "BOSS@example.com"}, true},
		{"allow-listed role", restricted, &StaffClaims{Roles: []string{"OPS"}}, true},
		{"isAdmin flag", restricted, &StaffClaims{IsAdmin: boolPtr(true)}, true},
		{"no match", restricted, &StaffClaims{Email: "x@example.com", Roles: []string{"viewer"}}, false},
		{"open policy", open, &StaffClaims{Email: "x@example.com"}, true},
		{"open policy explicit non-admin", open, &StaffClaims{IsAdmin: boolPtr(false)}, false},
	}
	for _, tt := range tests {
		if got := tt.policy.Authorize(tt.claims); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}
