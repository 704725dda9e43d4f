package middleware

import (
	"net/http"
	"strings"

	"github.com/domeo/domeo-backend/api/responses"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"

	maxActorHeaderLen = 128
)

// Actor reads the identity set by the upstream gateway. Authentication
// happens before requests reach this service.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := strings.TrimSpace(r.Header.Get(actorIDHeader))
			role := strings.ToLower(strings.TrimSpace(r.Header.Get(actorRoleHeader)))
			if len(actorID) > maxActorHeaderLen || len(role) > maxActorHeaderLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "actor header too long"))
				return
			}

			ctx := WithActor(r.Context(), actorID, role)
			if logg != nil && actorID != "" {
				ctx = logg.WithActor(ctx, actorID, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects requests that carry no actor identity.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "actor identity required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
