package persona

import (
	"context"
	"strings"

	"github.com/0xcro3dile/ragroute/internal/domain/ports"
)

// Identity is a tenant/persona pair.
type Identity struct {
	TenantID  string `yaml:"tenant_id" toml:"tenant_id" json:"tenantId"`
	PersonaID string `yaml:"persona_id" toml:"persona_id" json:"personaId"`
}

// StaticResolver resolves users from a fixed table. Emails match case-insensitively.
type StaticResolver struct {
	users map[string]Identity
}

// NewStaticResolver creates a resolver over the given email table.
func NewStaticResolver(users map[string]Identity) *StaticResolver {
	m := make(map[string]Identity, len(users))
	for email, id := range users {
		m[strings.ToLower(strings.TrimSpace(email))] = id
	}
	return &StaticResolver{users: m}
}

// ResolvePersona implements ports.PersonaResolver.
func (s *StaticResolver) ResolvePersona(_ context.Context, email string) (string, string, bool, error) {
	id, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", "", false, nil
	}
	return id.TenantID, id.PersonaID, true, nil
}

// Fallback consults secondary only when primary fails with an error.
// A clean "not found" from primary is final.
type Fallback struct {
	primary   ports.PersonaResolver
	secondary ports.PersonaResolver
}

// NewFallback chains two resolvers.
func NewFallback(primary, secondary ports.PersonaResolver) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// ResolvePersona implements ports.PersonaResolver.
func (f *Fallback) ResolvePersona(ctx context.Context, email string) (string, string, bool, error) {
	t, p, found, err := f.primary.ResolvePersona(ctx, email)
	if err == nil {
		return t, p, found, nil
	}
	t, p, found, serr := f.secondary.ResolvePersona(ctx, email)
	if serr != nil || !found {
		return "", "", false, err
	}
	return t, p, true, nil
}
