package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/repository"
)

// SessionConfig holds dependencies for the session resolver.
type SessionConfig struct {
	Logger     *slog.Logger
	Sessions   *auth.Sessions
	Repository *repository.Repository
}

// Session resolves the session cookie to a user and binds it into the
// request context. An invalid cookie or a deleted user leaves the request
// anonymous; the guards decide what anonymity means per route.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := cfg.Sessions.Parse(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := cfg.Repository.GetUserByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, repository.ErrUserNotFound) {
					cfg.Logger.Error("session user lookup failed",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.String("error", err.Error()),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
