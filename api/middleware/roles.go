package middleware

import (
	"net/http"
	"slices"

	"github.com/domeo/domeo-backend/api/responses"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
)

// RequireRole allows the request through when the actor holds one of roles.
func RequireRole(logg *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, RoleFromContext(r.Context())) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required").
					WithDetails(map[string]any{"allowed_roles": roles}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
