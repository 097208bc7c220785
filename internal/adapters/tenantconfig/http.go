// Package tenantconfig provides tenant prompt configuration sources.
// Clean Architecture: Adapters implementing ports.TenantConfigSource.
package tenantconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Source defaults.
const (
	DefaultBaseURL = "http://tenant-service-dt:8000"
	DefaultTimeout = 2 * time.Second
)

// HTTPSource fetches tenant configs from the tenant service.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a new tenant service client.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchTenantConfig calls GET /api/prompts/{tenantID}.
func (s *HTTPSource) FetchTenantConfig(ctx context.Context, tenantID string) (*entities.TenantConfig, error) {
	endpoint := s.baseURL + "/api/prompts/" + url.PathEscape(tenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tenant service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("tenant %s: %w", tenantID, entities.ErrTenantConfigNotFound)
	case resp.StatusCode/100 != 2:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tenant service returned status %d", resp.StatusCode)
	}

	var cfg entities.TenantConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding tenant config: %w", err)
	}
	if strings.TrimSpace(cfg.CompanyName) == "" {
		return nil, fmt.Errorf("tenant %s: empty config: %w", tenantID, entities.ErrTenantConfigNotFound)
	}

	return &cfg, nil
}
