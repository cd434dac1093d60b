package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/service"
	"github.com/minicrm/minicrm/internal/web"
)

// DossierHandler handles dossier pages.
type DossierHandler struct {
	dossiers *service.DossierService
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewDossierHandler creates a new DossierHandler.
func NewDossierHandler(dossiers *service.DossierService, renderer *web.Renderer, logger *slog.Logger) *DossierHandler {
	return &DossierHandler{
		dossiers: dossiers,
		renderer: renderer,
		logger:   logger,
	}
}

// ListMine renders the caller's dossiers.
// GET /dossiers
func (h *DossierHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	dossiers, err := h.dossiers.ListMine(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("dossier listing failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "dossiers_list.html", "My dossiers", dossiers)
}

// CreateForm renders the dossier creation form.
// GET /dossiers/new
func (h *DossierHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "dossier_create.html", "New dossier", nil)
}

// Create consumes the dossier creation form.
// POST /dossiers/new
func (h *DossierHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		web.SetFlash(w, web.FlashError, "Invalid form submission.")
		http.Redirect(w, r, "/dossiers/new", http.StatusSeeOther)
		return
	}

	_, err := h.dossiers.Create(r.Context(), service.CreateDossierInput{
		OwnerID:     user.ID,
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),

		CompanyName:     r.PostFormValue("company_name"),
		Siret:           r.PostFormValue("siret"),
		SignerFirstName: r.PostFormValue("signer_first_name"),
		SignerLastName:  r.PostFormValue("signer_last_name"),
		SignerRole:      r.PostFormValue("signer_role"),
		SignerPhone:     r.PostFormValue("signer_phone"),
		SignerEmail:     r.PostFormValue("signer_email"),
		BillingAddress:  r.PostFormValue("billing_address"),
		BillingZip:      r.PostFormValue("billing_zip"),
		BillingCity:     r.PostFormValue("billing_city"),
		ShippingAddress: r.PostFormValue("shipping_address"),
		ShippingZip:     r.PostFormValue("shipping_zip"),
		ShippingCity:    r.PostFormValue("shipping_city"),
	})

	if err != nil {
		if errors.Is(err, service.ErrTitleRequired) {
			h.renderer.RenderWithFlash(w, r, http.StatusOK, "dossier_create.html", "New dossier", nil,
				&web.Flash{Level: web.FlashError, Message: "Title is required."})
			return
		}
		h.logger.Error("dossier creation failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	web.SetFlash(w, web.FlashOK, "Dossier created.")
	http.Redirect(w, r, "/dossiers", http.StatusSeeOther)
}

// ListAll renders every dossier with owner identity for administrators.
// GET /admin/dossiers
func (h *DossierHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	dossiers, err := h.dossiers.ListAll(r.Context())
	if err != nil {
		h.logger.Error("admin dossier listing failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "admin_dossiers.html", "All dossiers", dossiers)
}
