package routing

import (
	"strings"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Classifier scores queries against the complexity tiers.
type Classifier struct {
	rules *Rules
}

// NewClassifier creates a Classifier over a rules snapshot.
func NewClassifier(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify scores the query. The second return value is true for an
// empty or whitespace-only query, in which case no scoring runs.
//
// Each tier scores independently: +1 per keyword contained in the
// lower-cased query, +2 per matching pattern.
func (c *Classifier) Classify(query string) (entities.ComplexityScores, bool) {
	var scores entities.ComplexityScores
	if strings.TrimSpace(query) == "" {
		return scores, true
	}

	q := strings.ToLower(query)
	for _, tier := range entities.Tiers {
		tr := c.rules.tiers[tier]
		for _, kw := range tr.keywords {
			if strings.Contains(q, kw) {
				scores.Add(tier, 1)
			}
		}
		for _, re := range tr.patterns {
			if re.MatchString(q) {
				scores.Add(tier, 2)
			}
		}
	}

	return scores, false
}
