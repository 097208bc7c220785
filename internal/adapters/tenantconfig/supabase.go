package tenantconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// DefaultTable holds one row per tenant.
const DefaultTable = "tenant_prompts"

// SupabaseConfig holds Supabase connection configuration.
type SupabaseConfig struct {
	URL    string
	APIKey string
	Table  string // Default: tenant_prompts
}

// tenantRow is the tenant_prompts row shape. personas is a jsonb column.
type tenantRow struct {
	TenantID            string                            `json:"tenant_id"`
	CompanyName         string                            `json:"company_name"`
	Industry            string                            `json:"industry"`
	Tone                string                            `json:"tone"`
	SpecialInstructions string                            `json:"special_instructions"`
	Personas            map[string]entities.PersonaConfig `json:"personas"`
}

func (r tenantRow) config() *entities.TenantConfig {
	return &entities.TenantConfig{
		CompanyName:         r.CompanyName,
		Industry:            r.Industry,
		Tone:                r.Tone,
		SpecialInstructions: r.SpecialInstructions,
		Personas:            r.Personas,
	}
}

// rowFetcher runs the single-row query for one tenant.
type rowFetcher func(tenantID string) ([]tenantRow, error)

// SupabaseSource reads tenant configs from a Supabase table.
type SupabaseSource struct {
	fetch rowFetcher
}

// NewSupabaseSource creates a Supabase-backed tenant config source.
func NewSupabaseSource(cfg SupabaseConfig) (*SupabaseSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseSource{
		fetch: func(tenantID string) ([]tenantRow, error) {
			var rows []tenantRow
			_, err := client.From(cfg.Table).
				Select("*", "", false).
				Eq("tenant_id", tenantID).
				ExecuteTo(&rows)
			return rows, err
		},
	}, nil
}

// FetchTenantConfig implements ports.TenantConfigSource.
// The postgrest client takes no context, so the query runs in its own
// goroutine and ctx bounds how long the caller waits.
func (s *SupabaseSource) FetchTenantConfig(ctx context.Context, tenantID string) (*entities.TenantConfig, error) {
	type result struct {
		rows []tenantRow
		err  error
	}
	done := make(chan result, 1)

	go func() {
		rows, err := s.fetch(tenantID)
		done <- result{rows: rows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetching tenant %s: %w", tenantID, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to get tenant config: %w", res.err)
		}
		if len(res.rows) == 0 || strings.TrimSpace(res.rows[0].CompanyName) == "" {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, entities.ErrTenantConfigNotFound)
		}
		return res.rows[0].config(), nil
	}
}
