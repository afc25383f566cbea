package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/session"

	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// RequireSession loads the session user into the request context. Pages
// without a session are redirected to the login page; API calls get a 401.
func RequireSession(sessions *session.Store, api bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Load(w, r)
			if err != nil {
				logger.Debug("session: not authenticated",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				if api {
					writeError(w, http.StatusUnauthorized, "sesión no válida")
					return
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}
