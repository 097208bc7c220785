package routing

import (
	"sync/atomic"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Decision is the outcome of routing one query.
type Decision struct {
	Model        entities.ModelDescriptor
	Reason       string
	Scores       entities.ComplexityScores
	EmptyQuery   bool
	RulesVersion int
}

// Router classifies and selects against the current rules snapshot.
type Router struct {
	rules atomic.Pointer[Rules]
}

// NewRouter creates a Router. A nil snapshot means DefaultRules.
func NewRouter(rules *Rules) *Router {
	if rules == nil {
		rules = DefaultRules()
	}
	r := &Router{}
	r.rules.Store(rules)
	return r
}

// Route classifies the query and picks a model. Both steps see the same snapshot.
func (r *Router) Route(query string) Decision {
	rules := r.rules.Load()

	scores, empty := NewClassifier(rules).Classify(query)
	model, reason := NewSelector(rules.Models()).Select(scores, query)

	return Decision{
		Model:        model,
		Reason:       reason,
		Scores:       scores,
		EmptyQuery:   empty,
		RulesVersion: rules.Version(),
	}
}

// Swap publishes a new snapshot and returns the previous one.
// A nil snapshot is ignored.
func (r *Router) Swap(rules *Rules) *Rules {
	if rules == nil {
		return r.rules.Load()
	}
	return r.rules.Swap(rules)
}

// Rules returns the current snapshot.
func (r *Router) Rules() *Rules {
	return r.rules.Load()
}
