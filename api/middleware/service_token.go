package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

const serviceTokenHeader = "x-storefront-service-token"

// ServiceToken admits storefront server calls carrying the shared token as
// a bearer token or in the x-storefront-service-token header.
func ServiceToken(expected string, logg *logger.Logger) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "Service token is not configured.").
					WithReason("SERVICE_TOKEN_NOT_CONFIGURED"))
				return
			}

			provided := bearerToken(r)
			if provided == "" {
				provided = strings.TrimSpace(r.Header.Get(serviceTokenHeader))
			}
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), CallerStorefront)))
		})
	}
}
