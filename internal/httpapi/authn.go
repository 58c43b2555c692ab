package httpapi

import (
	"net/http"
	"strings"

	"userhub.org/internal/user"
)

// isPublic reports whether the route may be reached without a bearer
// token. Registration and login are necessarily public; everything
// else under /users and /auth requires a verified access token.
func isPublic(method, path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	case "/users":
		return method == http.MethodPost
	case "/auth":
		return method == http.MethodPost
	}
	return false
}

// withAuth verifies the Authorization header on protected routes and
// places the caller's identity and permission flags into the request
// context. Handlers downstream read them via user.PrincipalFromContext.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublic(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := a.tokens.VerifyAccess(raw)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeUserError(w, r, err)
			return
		}

		ctx := user.ContextWithPrincipal(r.Context(), user.Principal{
			UserID: claims.Subject,
			Flags:  claims.Flags,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// principal fetches the verified caller; withAuth guarantees presence
// on protected routes, so a miss here is a wiring bug.
func principal(w http.ResponseWriter, r *http.Request) (user.Principal, bool) {
	p, ok := user.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return user.Principal{}, false
	}
	return p, true
}
