package auth

import (
	"net/http"

	"store-api/internal/apperr"
	"store-api/internal/respond"
)

// RequireRole admits only requests whose gate-resolved identity carries
// role. It must be mounted behind Gate.Require and never touches the store.
func RequireRole(role Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user.Role != role {
			respond.Error(w, apperr.Forbidden("unauthorized, you are not an "+string(role)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleAdmin, next)
}
