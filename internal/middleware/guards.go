package middleware

import (
	"net/http"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/web"
)

// RequireAuth short-circuits anonymous requests to the login page.
// It never mutates session state, it only redirects.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.UserFromContext(r.Context()) == nil {
				web.SetFlash(w, web.FlashWarn, "Please sign in.")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin short-circuits requests whose identity lacks the
// administrator role. Anonymous requests fall through to the same redirect;
// the gated data is never observable either way.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				web.SetFlash(w, web.FlashWarn, "Please sign in.")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !user.IsAdmin() {
				web.SetFlash(w, web.FlashError, "Administrator access required.")
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
