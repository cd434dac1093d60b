package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minicrm/minicrm/internal/model"
	"github.com/minicrm/minicrm/internal/repository"
)

// ErrTitleRequired indicates the dossier title was empty after trimming.
var ErrTitleRequired = errors.New("title is required")

// DossierService handles dossier business logic.
type DossierService struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewDossierService creates a new DossierService.
func NewDossierService(repo *repository.Repository, logger *slog.Logger) *DossierService {
	return &DossierService{repo: repo, logger: logger}
}

// CreateDossierInput defines input for creating a dossier. Every field
// except Title and OwnerID is optional and defaults to empty.
type CreateDossierInput struct {
	OwnerID     string
	Title       string
	Description string

	CompanyName     string
	Siret           string
	SignerFirstName string
	SignerLastName  string
	SignerRole      string
	SignerPhone     string
	SignerEmail     string
	BillingAddress  string
	BillingZip      string
	BillingCity     string
	ShippingAddress string
	ShippingZip     string
	ShippingCity    string
}

// Create validates and persists a new dossier for its owner.
func (s *DossierService) Create(ctx context.Context, input CreateDossierInput) (*model.Dossier, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	dossier := &model.Dossier{
		ID:          uuid.New().String(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
		CreatedAt:   time.Now().UTC(),

		CompanyName:     strings.TrimSpace(input.CompanyName),
		Siret:           strings.TrimSpace(input.Siret),
		SignerFirstName: strings.TrimSpace(input.SignerFirstName),
		SignerLastName:  strings.TrimSpace(input.SignerLastName),
		SignerRole:      strings.TrimSpace(input.SignerRole),
		SignerPhone:     strings.TrimSpace(input.SignerPhone),
		SignerEmail:     strings.TrimSpace(input.SignerEmail),
		BillingAddress:  strings.TrimSpace(input.BillingAddress),
		BillingZip:      strings.TrimSpace(input.BillingZip),
		BillingCity:     strings.TrimSpace(input.BillingCity),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		ShippingZip:     strings.TrimSpace(input.ShippingZip),
		ShippingCity:    strings.TrimSpace(input.ShippingCity),
	}

	if err := s.repo.CreateDossier(ctx, dossier); err != nil {
		return nil, err
	}

	s.logger.Info("dossier_created",
		"dossier_id", dossier.ID,
		"owner_id", dossier.OwnerID,
		"has_company", dossier.CompanyName != "",
	)

	return dossier, nil
}

// ListMine returns the owner's dossiers, newest first.
func (s *DossierService) ListMine(ctx context.Context, ownerID string) ([]*model.Dossier, error) {
	return s.repo.ListDossiersByOwner(ctx, ownerID)
}

// ListAll returns every dossier with its owner's identity, newest first.
// Administrator view only; access is enforced at the route guard.
func (s *DossierService) ListAll(ctx context.Context) ([]*model.DossierWithOwner, error) {
	return s.repo.ListDossiersWithOwner(ctx)
}
