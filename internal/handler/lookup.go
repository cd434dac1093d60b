package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/minicrm/minicrm/internal/enrich"
)

// LookupHandler exposes the company enrichment lookup as JSON.
type LookupHandler struct {
	client *enrich.Client
	logger *slog.Logger
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(client *enrich.Client, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{client: client, logger: logger}
}

// lookupResponse is the autofill payload consumed by the creation form.
// Data fields are always present; the form assigns them to inputs
// unconditionally, so absent upstream data must arrive as empty strings.
type lookupResponse struct {
	OK              bool   `json:"ok"`
	CompanyName     string `json:"company_name"`
	SignerFirstName string `json:"signer_first_name"`
	SignerLastName  string `json:"signer_last_name"`
	SignerRole      string `json:"signer_role"`
	BillingAddress  string `json:"billing_address"`
	BillingZip      string `json:"billing_zip"`
	BillingCity     string `json:"billing_city"`
	Error           string `json:"error,omitempty"`
}

// LookupSiret resolves a SIRET/SIREN to company autofill data.
// GET /api/lookup_siret?siret=<identifier>
func (h *LookupHandler) LookupSiret(w http.ResponseWriter, r *http.Request) {
	company, err := h.client.Lookup(r.Context(), r.URL.Query().Get("siret"))
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lookupResponse{
		OK:              true,
		CompanyName:     company.Name,
		SignerFirstName: company.SignerFirstName,
		SignerLastName:  company.SignerLastName,
		SignerRole:      company.SignerRole,
		BillingAddress:  company.Address,
		BillingZip:      company.Zip,
		BillingCity:     company.City,
	})
}

// handleLookupError maps enrichment errors to JSON responses. Failures stop
// here; the upstream cause is surfaced as diagnostic text, never as a fault.
func (h *LookupHandler) handleLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, enrich.ErrInvalidIdentifier):
		writeJSON(w, http.StatusBadRequest, lookupResponse{
			OK:    false,
			Error: "identifier must be at least 9 characters",
		})
	case errors.Is(err, enrich.ErrNotFound):
		writeJSON(w, http.StatusNotFound, lookupResponse{
			OK:    false,
			Error: "no company found for this identifier",
		})
	case errors.Is(err, enrich.ErrUpstreamUnavailable):
		h.logger.Warn("registry lookup failed", "error", err)
		writeJSON(w, http.StatusBadGateway, lookupResponse{
			OK:    false,
			Error: err.Error(),
		})
	default:
		h.logger.Error("lookup internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, lookupResponse{
			OK:    false,
			Error: "internal error",
		})
	}
}
