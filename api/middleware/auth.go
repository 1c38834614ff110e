package middleware

import (
	"net/http"
	"strings"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	pkgAuth "github.com/milosbg/mbg-admin-backend/pkg/auth"
	"github.com/milosbg/mbg-admin-backend/pkg/config"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

// StaffAuth validates a staff bearer token and applies the admin policy.
func StaffAuth(cfg config.JWTConfig, policy pkgAuth.Policy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseStaffToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if !policy.Authorize(claims) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized for the back office"))
				return
			}

			ctx := WithStaff(r.Context(), claims.Subject, claims.Email)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"staff_id":    claims.Subject,
					"staff_email": claims.Email,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
