package routing

import (
	"strings"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Selection thresholds.
const (
	VeryComplexThreshold = 3
	LongQueryTokens      = 20
)

// Selection reasons.
const (
	ReasonEmptyQuery            = "empty query default"
	ReasonVeryComplex           = "very complex query"
	ReasonComplexBelowThreshold = "complex query (below threshold)"
	ReasonMediumComplexity      = "medium complexity"
	ReasonSimple                = "simple query"
	ReasonLongQuery             = "long query upgrade"
)

// Selector turns classifier scores into a model choice.
type Selector struct {
	models entities.ModelTable
}

// NewSelector creates a Selector over a model table.
func NewSelector(models entities.ModelTable) *Selector {
	return &Selector{models: models}
}

// Select applies, in order: empty query, very complex, complex or
// medium-dominant, simple; then upgrades the fastest model to the medium
// one for queries longer than LongQueryTokens.
//
// A nonzero complex score wins over a larger simple score in the third rule.
func (s *Selector) Select(scores entities.ComplexityScores, query string) (entities.ModelDescriptor, string) {
	if strings.TrimSpace(query) == "" {
		return s.models.For(entities.TierSimple), ReasonEmptyQuery
	}

	var tier entities.Tier
	var reason string
	switch {
	case scores.Complex >= VeryComplexThreshold:
		tier, reason = entities.TierComplex, ReasonVeryComplex
	case scores.Complex > 0:
		tier, reason = entities.TierMedium, ReasonComplexBelowThreshold
	case scores.Medium > scores.Simple && scores.Medium > 0:
		tier, reason = entities.TierMedium, ReasonMediumComplexity
	default:
		tier, reason = entities.TierSimple, ReasonSimple
	}

	// Compared by ID: an overridden table may reuse the fast model for another tier.
	if s.models.For(tier).ID == s.models.Simple.ID && len(strings.Fields(query)) > LongQueryTokens {
		tier, reason = entities.TierMedium, ReasonLongQuery
	}

	return s.models.For(tier), reason
}
