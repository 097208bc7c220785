// Package persona resolves a user's tenant and persona.
// Clean Architecture: Adapters implementing ports.PersonaResolver.
package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 2 * time.Second

// HTTPResolver looks users up in the tenant service.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver creates a tenant service user lookup client.
func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	Found     bool   `json:"found"`
	TenantID  string `json:"tenantId"`
	PersonaID string `json:"personaId"`
}

// ResolvePersona calls GET /api/user/lookup?email=.
// Any non-200 status is reported as not found.
func (r *HTTPResolver) ResolvePersona(ctx context.Context, email string) (string, string, bool, error) {
	endpoint := r.baseURL + "/api/user/lookup?" + url.Values{"email": {email}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", "", false, fmt.Errorf("calling tenant service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", false, nil
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", false, fmt.Errorf("decoding lookup response: %w", err)
	}
	if !body.Found || body.TenantID == "" {
		return "", "", false, nil
	}

	return body.TenantID, body.PersonaID, true, nil
}
