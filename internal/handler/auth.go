package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/service"
	"github.com/minicrm/minicrm/internal/web"
)

// AuthHandler handles sign-in, sign-out and the landing pages.
type AuthHandler struct {
	users    *service.UserService
	sessions *auth.Sessions
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *service.UserService, sessions *auth.Sessions, renderer *web.Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
	}
}

// Home redirects to the dashboard when an identity is bound, else to login.
// GET /
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginForm renders the sign-in page.
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "login.html", "Sign in", nil)
}

// Login consumes the sign-in form and binds a session on success.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.SetFlash(w, web.FlashError, "Invalid form submission.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.users.Authenticate(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login failed", "error", err)
		}
		// One generic notice for every failure mode; no credential hints.
		h.renderer.RenderWithFlash(w, r, http.StatusOK, "login.html", "Sign in", nil,
			&web.Flash{Level: web.FlashError, Message: "Invalid credentials."})
		return
	}

	cookie, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("session issue failed", "error", err)
		web.SetFlash(w, web.FlashError, "Sign-in failed, please retry.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.logger.Info("login_succeeded", "user_id", user.ID)

	http.SetCookie(w, cookie)
	web.SetFlash(w, web.FlashOK, "Welcome!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout clears the session.
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.Clear())
	web.SetFlash(w, web.FlashOK, "Signed out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Dashboard renders the authenticated landing page.
// GET /dashboard
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "dashboard.html", "Dashboard", nil)
}
