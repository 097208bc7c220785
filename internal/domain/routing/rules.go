// Package routing classifies query complexity and selects an inference model.
//
// Rules (keyword/pattern tables and the model table) are compiled once into an
// immutable *Rules snapshot that is safe for concurrent reads. A Router publishes
// the current snapshot and lets it be replaced without disturbing in-flight requests.
package routing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// RulesSpec is the serializable, versioned form of the routing rules.
type RulesSpec struct {
	Version int                 `json:"version" yaml:"version" toml:"version"`
	Tiers   TierSpecs           `json:"tiers" yaml:"tiers" toml:"tiers"`
	Models  entities.ModelTable `json:"models" yaml:"models" toml:"models"`
}

// TierSpecs holds the signal tables for each tier.
type TierSpecs struct {
	Simple  TierSpec `json:"simple" yaml:"simple" toml:"simple"`
	Medium  TierSpec `json:"medium" yaml:"medium" toml:"medium"`
	Complex TierSpec `json:"complex" yaml:"complex" toml:"complex"`
}

// TierSpec lists literal keywords (+1 each) and regular expressions (+2 each).
type TierSpec struct {
	Keywords []string `json:"keywords" yaml:"keywords" toml:"keywords"`
	Patterns []string `json:"patterns" yaml:"patterns" toml:"patterns"`
}

func (t TierSpecs) get(tier entities.Tier) TierSpec {
	switch tier {
	case entities.TierMedium:
		return t.Medium
	case entities.TierComplex:
		return t.Complex
	default:
		return t.Simple
	}
}

// DefaultSpec returns the built-in rules.
func DefaultSpec() RulesSpec {
	return RulesSpec{
		Version: 1,
		Tiers: TierSpecs{
			Simple: TierSpec{
				Keywords: []string{"what", "list", "show", "price", "cost", "stock", "available", "have", "tell me"},
				Patterns: []string{
					`what (is|are) (the )?price`,
					`how much (does|do|is|are)`,
					`do you have`,
					`what .* available`,
					`show me`,
					`list (all|the)`,
				},
			},
			Medium: TierSpec{
				Keywords: []string{"compare", "difference", "recommend", "suggest", "better", "best", "versus", "vs"},
				Patterns: []string{
					`compare .* (and|with|to)`,
					`what (is|are) (the )?difference`,
					`which (is|are) better`,
					`recommend .* for`,
					`should i (buy|get|choose)`,
				},
			},
			Complex: TierSpec{
				Keywords: []string{"calculate", "compute", "analyze", "optimize", "why", "explain how", "reason"},
				Patterns: []string{
					`calculate (total|cost|savings)`,
					`how many .* (needed|required)`,
					`optimize .* for`,
					`explain (why|how)`,
					`what if .* (change|increase|decrease)`,
				},
			},
		},
		Models: entities.DefaultModelTable(),
	}
}

type tierRules struct {
	keywords []string
	patterns []*regexp.Regexp
}

// Rules is a compiled, read-only rule snapshot.
type Rules struct {
	version int
	tiers   [3]tierRules
	models  entities.ModelTable
}

// Compile validates a RulesSpec and compiles its patterns.
func Compile(spec RulesSpec) (*Rules, error) {
	r := &Rules{version: spec.Version, models: spec.Models}

	for _, tier := range entities.Tiers {
		ts := spec.Tiers.get(tier)
		tr := tierRules{}
		for _, kw := range ts.Keywords {
			kw = strings.ToLower(kw)
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("%w: empty keyword in tier %s", entities.ErrInvalidRules, tier)
			}
			tr.keywords = append(tr.keywords, kw)
		}
		for _, p := range ts.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("%w: tier %s pattern %q: %v", entities.ErrInvalidRules, tier, p, err)
			}
			tr.patterns = append(tr.patterns, re)
		}
		r.tiers[tier] = tr

		if spec.Models.For(tier).ID == "" {
			return nil, fmt.Errorf("%w: no model for tier %s", entities.ErrInvalidRules, tier)
		}
	}

	return r, nil
}

// DefaultRules compiles DefaultSpec.
func DefaultRules() *Rules {
	r, err := Compile(DefaultSpec())
	if err != nil {
		panic(err)
	}
	return r
}

// Version is the rules version the snapshot was compiled from.
func (r *Rules) Version() int { return r.version }

// Models returns the model table.
func (r *Rules) Models() entities.ModelTable { return r.models }
