package model

import "time"

// Dossier represents a case-file record owned by a user.
// The company, signer, billing and shipping fields are optional and empty
// when the creation form did not provide them.
type Dossier struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`

	CompanyName     string `json:"company_name"`
	Siret           string `json:"siret"`
	SignerFirstName string `json:"signer_first_name"`
	SignerLastName  string `json:"signer_last_name"`
	SignerRole      string `json:"signer_role"`
	SignerPhone     string `json:"signer_phone"`
	SignerEmail     string `json:"signer_email"`
	BillingAddress  string `json:"billing_address"`
	BillingZip      string `json:"billing_zip"`
	BillingCity     string `json:"billing_city"`
	ShippingAddress string `json:"shipping_address"`
	ShippingZip     string `json:"shipping_zip"`
	ShippingCity    string `json:"shipping_city"`
}

// DossierWithOwner pairs a dossier with its owner's identity
// for the administrator listing.
type DossierWithOwner struct {
	Dossier
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}
