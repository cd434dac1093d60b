package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/minicrm/minicrm/internal/service"
	"github.com/minicrm/minicrm/internal/web"
)

// UserHandler handles the administrator account pages.
type UserHandler struct {
	users    *service.UserService
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, renderer *web.Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		renderer: renderer,
		logger:   logger,
	}
}

// List renders the account listing with the creation form.
// GET /admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("user listing failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "admin_users.html", "Users", users)
}

// Create consumes the account creation form.
// POST /admin/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.SetFlash(w, web.FlashError, "Invalid form submission.")
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}

	_, err := h.users.Create(r.Context(), service.CreateUserInput{
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	})

	switch {
	case err == nil:
		web.SetFlash(w, web.FlashOK, "User created.")
	case errors.Is(err, service.ErrMissingFields):
		web.SetFlash(w, web.FlashError, "Required fields missing.")
	case errors.Is(err, service.ErrInvalidRole):
		web.SetFlash(w, web.FlashError, "Unknown role.")
	case errors.Is(err, service.ErrEmailTaken):
		web.SetFlash(w, web.FlashError, "Email already in use.")
	default:
		h.logger.Error("user creation failed", "error", err)
		web.SetFlash(w, web.FlashError, "User creation failed.")
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
