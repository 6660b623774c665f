package auth

import (
	"context"
	"net/http"
	"strings"

	"fotoforge/pkg/utils"
)

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session resolved by RequireAuthOrRedirect.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s.valid()
}

// RequireAuthOrRedirect guards protected routes. Without a session, API
// clients get a 401 JSON error and browsers are redirected to loginPath; next
// is not invoked. With one, the session travels in the request context.
func (g *Gate) RequireAuthOrRedirect(loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := g.Current(r.Context())
		if err != nil {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthRequired, "Session expired or invalid.")
				return
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
