package auth

import (
	"slices"
	"strings"

	"github.com/milosbg/mbg-admin-backend/pkg/config"
)

// Policy decides which verified staff tokens may use the back office.
type Policy struct {
	emails []string
	roles  []string
}

func NewPolicy(cfg config.AdminConfig) Policy {
	return Policy{emails: cfg.EmailList(), roles: lower(cfg.RoleList())}
}

// Authorize grants access when any source matches: an allow-listed email,
// an isAdmin flag, or an allow-listed role. With no lists configured every
// staff token passes unless it carries isAdmin=false.
func (p Policy) Authorize(claims *StaffClaims) bool {
	if claims == nil {
		return false
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email != "" && slices.Contains(p.emails, email) {
		return true
	}
	if claims.IsAdmin != nil && *claims.IsAdmin {
		return true
	}
	for _, role := range lower(claims.Roles) {
		if slices.Contains(p.roles, role) {
			return true
		}
	}
	if len(p.emails) == 0 && len(p.roles) == 0 {
		return claims.IsAdmin == nil || *claims.IsAdmin
	}
	return false
}

func lower(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
