package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/auth"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// IdentityMiddleware resolves the username asserted by the fronting identity
// provider (X-Remote-User) into a full user record on the request context.
// Requests without a resolvable user proceed unauthenticated; permission
// checks downstream reject them where it matters.
func IdentityMiddleware(users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := strings.TrimSpace(r.Header.Get("X-Remote-User"))
			if username != "" {
				user, err := users.GetByUsername(r.Context(), username)
				if err == nil {
					r = r.WithContext(auth.ContextWithUser(r.Context(), user))
				} else {
					log.Printf("[auth] unknown user %q: %v", username, err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
