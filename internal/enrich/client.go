package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// dialTimeout is the connection timeout.
	dialTimeout = 3 * time.Second
	// tlsHandshakeTimeout is the TLS negotiation timeout.
	tlsHandshakeTimeout = 3 * time.Second
)

// Client performs company registry lookups.
// One attempt per lookup, bounded timeout, no retries.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates a registry lookup client. apiKey may be empty for the
// keyless public registry.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: tlsHandshakeTimeout,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// searchResponse mirrors the registry's /search payload, reduced to the
// fields the dossier form can use.
type searchResponse struct {
	Results []struct {
		Name string `json:"nom_complet"`
		Head struct {
			Address    string `json:"adresse"`
			PostalCode string `json:"code_postal"`
			City       string `json:"libelle_commune"`
		} `json:"siege"`
		Officers []Officer `json:"dirigeants"`
	} `json:"results"`
}

// Lookup normalizes the identifier, queries the registry once, and maps the
// best match onto a Company. Missing upstream fields degrade to empty
// strings rather than failing the lookup.
func (c *Client) Lookup(ctx context.Context, identifier string) (*Company, error) {
	siren, err := NormalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&page=1&per_page=1", c.baseURL, url.QueryEscape(siren))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MiniCRM/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: registry returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}

	if len(payload.Results) == 0 {
		return nil, ErrNotFound
	}

	match := payload.Results[0]
	company := &Company{
		Name:    match.Name,
		Address: match.Head.Address,
		Zip:     match.Head.PostalCode,
		City:    match.Head.City,
	}

	if signer := SelectSigner(match.Officers); signer != nil {
		company.SignerFirstName = firstName(signer.FirstNames)
		company.SignerLastName = signer.LastName
		company.SignerRole = signer.Role
	}

	return company, nil
}

// firstName reduces the registry's comma- or space-separated given names to
// the first one, which is what the form expects.
func firstName(names string) string {
	names = strings.TrimSpace(names)
	if i := strings.IndexAny(names, ", "); i > 0 {
		return names[:i]
	}
	return names
}
