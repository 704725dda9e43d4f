package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the operator dashboard call the API from the configured
// origins. Identity travels in headers, so credentials are not allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader, actorIDHeader, actorRoleHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         600,
	})
}
