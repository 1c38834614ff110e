package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/milosbg/mbg-admin-backend/pkg/config"
)

// CORS allows the storefront origin in production and any origin elsewhere.
func CORS(app config.AppConfig, storefront config.StorefrontConfig) func(http.Handler) http.Handler {
	origins := []string{"*"}
	if app.IsProd() {
		origins = nil
		if store := strings.TrimRight(strings.TrimSpace(storefront.StoreURL), "/"); store != "" {
			origins = append(origins, store)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", serviceTokenHeader, "X-Requested-With"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}).Handler
}
