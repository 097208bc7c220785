// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"fmt"
	"strings"
	"time"
)

// Default identifiers applied when the inbound request omits them.
const (
	DefaultTenantID  = "default"
	DefaultPersonaID = "user"
)

// Tier is a query complexity tier.
type Tier int

const (
	TierSimple Tier = iota
	TierMedium
	TierComplex
)

// Tiers lists every tier in scoring order.
var Tiers = []Tier{TierSimple, TierMedium, TierComplex}

// String returns the tier name used in configuration and JSON.
func (t Tier) String() string {
	switch t {
	case TierSimple:
		return "simple"
	case TierMedium:
		return "medium"
	case TierComplex:
		return "complex"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "simple":
		*t = TierSimple
	case "medium":
		*t = TierMedium
	case "complex":
		*t = TierComplex
	default:
		return fmt.Errorf("unknown tier %q", string(b))
	}
	return nil
}

// ComplexityScores accumulates classifier signals per tier.
// A fresh value is produced for every query.
type ComplexityScores struct {
	Simple  int `json:"simple"`
	Medium  int `json:"medium"`
	Complex int `json:"complex"`
}

// Get returns the score for a tier.
func (s ComplexityScores) Get(t Tier) int {
	switch t {
	case TierSimple:
		return s.Simple
	case TierMedium:
		return s.Medium
	case TierComplex:
		return s.Complex
	}
	return 0
}

// Add increments the score for a tier.
func (s *ComplexityScores) Add(t Tier, n int) {
	switch t {
	case TierSimple:
		s.Simple += n
	case TierMedium:
		s.Medium += n
	case TierComplex:
		s.Complex += n
	}
}

// IsZero reports whether no tier scored.
func (s ComplexityScores) IsZero() bool {
	return s.Simple == 0 && s.Medium == 0 && s.Complex == 0
}

// Query is the immutable per-request query with its tenant scope.
type Query struct {
	Text      string
	TenantID  string
	PersonaID string
}

// NewQuery builds a Query, applying tenant and persona defaults.
func NewQuery(text, tenantID, personaID string) Query {
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	if personaID == "" {
		personaID = DefaultPersonaID
	}
	return Query{Text: text, TenantID: tenantID, PersonaID: personaID}
}

// IsEmpty reports whether the query holds only whitespace.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// ScoredDocument is a retrieved passage with its similarity score.
// Produced by the retrieval collaborator; consumed read-only.
type ScoredDocument struct {
	Text    string
	Score   float64
	Payload map[string]any
}

// TenantConfig holds per-tenant prompt customization.
type TenantConfig struct {
	CompanyName         string                   `json:"companyName"`
	Industry            string                   `json:"industry"`
	Tone                string                   `json:"tone"`
	SpecialInstructions string                   `json:"specialInstructions"`
	Personas            map[string]PersonaConfig `json:"personas"`
}

// Persona returns the persona configuration, or an empty one if unknown.
func (c TenantConfig) Persona(personaID string) PersonaConfig {
	return c.Personas[personaID]
}

// PersonaConfig customizes responses for one persona of a tenant.
type PersonaConfig struct {
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// TenantConfigResult is the outcome of a tenant configuration lookup.
// Exactly one of the two shapes is produced: resolved with a config,
// or failed with a reason.
type TenantConfigResult struct {
	config   TenantConfig
	resolved bool
	reason   string
}

// ConfigResolved wraps a successfully fetched configuration.
func ConfigResolved(cfg TenantConfig) TenantConfigResult {
	return TenantConfigResult{config: cfg, resolved: true}
}

// ConfigFailed records a lookup failure.
func ConfigFailed(reason string) TenantConfigResult {
	return TenantConfigResult{reason: reason}
}

// Config returns the configuration and whether the lookup succeeded.
func (r TenantConfigResult) Config() (TenantConfig, bool) {
	return r.config, r.resolved
}

// Resolved reports whether the lookup succeeded.
func (r TenantConfigResult) Resolved() bool { return r.resolved }

// Reason is the failure reason; empty when resolved.
func (r TenantConfigResult) Reason() string { return r.reason }

// AssembledPrompt is the final prompt plus bookkeeping about how it was built.
type AssembledPrompt struct {
	Text               string
	HasContext         bool
	ContextCount       int
	TenantID           string
	PersonaID          string
	UsedExternalConfig bool
}

// StreamToken represents a single token in a streaming LLM response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// CollectionSpec describes a vector collection to provision.
type CollectionSpec struct {
	Name       string
	VectorSize uint64
	Distance   string
}

// DecisionRecord is one logged routing decision.
type DecisionRecord struct {
	ID                 string           `json:"id"`
	At                 time.Time        `json:"at"`
	TenantID           string           `json:"tenantId"`
	PersonaID          string           `json:"personaId"`
	Model              string           `json:"model"`
	Reason             string           `json:"reason"`
	Scores             ComplexityScores `json:"scores"`
	RulesVersion       int              `json:"rulesVersion"`
	UsedExternalConfig bool             `json:"usedExternalConfig"`
	ContextCount       int              `json:"contextCount"`
}
