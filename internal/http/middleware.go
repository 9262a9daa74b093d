package http

import (
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/respond"
)

// Authenticator resolves a bearer token to the id of the user it was issued for.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// RequireAuth rejects requests without a valid token and stores the user id in the request context.
// The token is read from the Authorization header, or from the access_token query parameter for
// clients that cannot set headers on event streams.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, auth.ErrNotSignedIn)
				return
			}

			userID, err := a.Authenticate(token)
			if err != nil {
				respond.Error(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}

		return ""
	}

	return r.URL.Query().Get("access_token")
}
