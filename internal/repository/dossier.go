package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minicrm/minicrm/internal/model"
)

const dossierColumns = `
	id, title, description, owner_id, created_at,
	company_name, siret,
	signer_first_name, signer_last_name, signer_role, signer_phone, signer_email,
	billing_address, billing_zip, billing_city,
	shipping_address, shipping_zip, shipping_city`

// CreateDossier inserts a new dossier row.
// Title presence is validated by the service layer; the owner reference is
// enforced by the foreign key.
func (r *Repository) CreateDossier(ctx context.Context, d *model.Dossier) error {
	query := `
		INSERT INTO dossiers (` + dossierColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Title, d.Description, d.OwnerID, toMillis(d.CreatedAt),
		d.CompanyName, d.Siret,
		d.SignerFirstName, d.SignerLastName, d.SignerRole, d.SignerPhone, d.SignerEmail,
		d.BillingAddress, d.BillingZip, d.BillingCity,
		d.ShippingAddress, d.ShippingZip, d.ShippingCity,
	)
	if err != nil {
		return fmt.Errorf("failed to create dossier: %w", err)
	}

	return nil
}

func scanDossier(rows *sql.Rows, d *model.Dossier) error {
	var createdAt int64
	err := rows.Scan(
		&d.ID, &d.Title, &d.Description, &d.OwnerID, &createdAt,
		&d.CompanyName, &d.Siret,
		&d.SignerFirstName, &d.SignerLastName, &d.SignerRole, &d.SignerPhone, &d.SignerEmail,
		&d.BillingAddress, &d.BillingZip, &d.BillingCity,
		&d.ShippingAddress, &d.ShippingZip, &d.ShippingCity,
	)
	if err != nil {
		return err
	}
	d.CreatedAt = fromMillis(createdAt)
	return nil
}

// ListDossiersByOwner returns the owner's dossiers, newest-created first.
func (r *Repository) ListDossiersByOwner(ctx context.Context, ownerID string) ([]*model.Dossier, error) {
	query := `
		SELECT ` + dossierColumns + `
		FROM dossiers
		WHERE owner_id = ?
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dossiers: %w", err)
	}
	defer rows.Close()

	var dossiers []*model.Dossier
	for rows.Next() {
		var d model.Dossier
		if err := scanDossier(rows, &d); err != nil {
			return nil, fmt.Errorf("failed to scan dossier: %w", err)
		}
		dossiers = append(dossiers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dossiers: %w", err)
	}

	return dossiers, nil
}

// ListDossiersWithOwner returns every dossier joined with its owner's
// identity, newest-created first. Inner-join semantics: a dossier whose
// owner row no longer exists is excluded.
func (r *Repository) ListDossiersWithOwner(ctx context.Context) ([]*model.DossierWithOwner, error) {
	query := `
		SELECT
			d.id, d.title, d.description, d.owner_id, d.created_at,
			d.company_name, d.siret,
			d.signer_first_name, d.signer_last_name, d.signer_role, d.signer_phone, d.signer_email,
			d.billing_address, d.billing_zip, d.billing_city,
			d.shipping_address, d.shipping_zip, d.shipping_city,
			u.name, u.email
		FROM dossiers d
		JOIN users u ON u.id = d.owner_id
		ORDER BY d.created_at DESC, d.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dossiers with owner: %w", err)
	}
	defer rows.Close()

	var dossiers []*model.DossierWithOwner
	for rows.Next() {
		var (
			d         model.DossierWithOwner
			createdAt int64
		)
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.OwnerID, &createdAt,
			&d.CompanyName, &d.Siret,
			&d.SignerFirstName, &d.SignerLastName, &d.SignerRole, &d.SignerPhone, &d.SignerEmail,
			&d.BillingAddress, &d.BillingZip, &d.BillingCity,
			&d.ShippingAddress, &d.ShippingZip, &d.ShippingCity,
			&d.OwnerName, &d.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dossier with owner: %w", err)
		}
		d.CreatedAt = fromMillis(createdAt)
		dossiers = append(dossiers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dossiers with owner: %w", err)
	}

	return dossiers, nil
}
