// Package enrich looks up French company registry data by SIRET/SIREN and
// maps it onto dossier company, signer and address fields.
//
// Upstream is the public Recherche d'entreprises API
// (https://recherche-entreprises.api.gouv.fr). Identifiers are truncated to
// their 9-digit SIREN prefix for the query; an API key, when configured, is
// sent as a bearer token for key-gated registry deployments.
package enrich

import (
	"errors"
	"strings"
	"unicode"
)

// Client errors, mapped by the handler to 400 / 404 / 502.
var (
	ErrInvalidIdentifier   = errors.New("invalid company identifier")
	ErrNotFound            = errors.New("company not found")
	ErrUpstreamUnavailable = errors.New("registry unavailable")
)

// sirenLength is the national-entity prefix length of a SIRET.
const sirenLength = 9

// Company is the enrichment result. Fields absent upstream are empty
// strings; partial data is never an error.
type Company struct {
	Name            string
	SignerFirstName string
	SignerLastName  string
	SignerRole      string
	Address         string
	Zip             string
	City            string
}

// Officer is one company representative as reported by the registry.
type Officer struct {
	FirstNames string `json:"prenoms"`
	LastName   string `json:"nom"`
	Role       string `json:"qualite"`
}

// NormalizeIdentifier strips whitespace from a raw SIRET/SIREN input and
// truncates it to the SIREN prefix. Returns ErrInvalidIdentifier when fewer
// than 9 characters remain. Length and truncation count characters, not
// bytes, so multibyte garbage is never sliced mid-rune.
func NormalizeIdentifier(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	runes := []rune(cleaned)
	if len(runes) < sirenLength {
		return "", ErrInvalidIdentifier
	}

	return string(runes[:sirenLength]), nil
}

// SelectSigner picks the officer to pre-fill as signer: the first officer
// whose role reads as president-class, else the first listed officer, else
// nil. Keyword matching ignores case and the accents French registries use
// inconsistently.
func SelectSigner(officers []Officer) *Officer {
	for i := range officers {
		if isPresidentRole(officers[i].Role) {
			return &officers[i]
		}
	}
	if len(officers) > 0 {
		return &officers[0]
	}
	return nil
}

var accentFolder = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"É", "e", "È", "e", "Ê", "e", "Ë", "e",
)

func isPresidentRole(role string) bool {
	folded := strings.ToLower(accentFolder.Replace(role))
	return strings.Contains(folded, "president")
}
