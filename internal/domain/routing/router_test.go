package routing

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

func TestRoute_Examples(t *testing.T) {
	r := NewRouter(nil)

	d := r.Route("What is the price of item X?")
	assert.Equal(t, "llama3.2:1b", d.Model.ID)
	assert.Contains(t, d.Reason, "simple")
	assert.Equal(t, entities.ComplexityScores{Simple: 4}, d.Scores)

	d = r.Route("Calculate the total cost and explain why it increased")
	assert.GreaterOrEqual(t, d.Scores.Complex, 3)
	assert.Equal(t, "phi3:mini", d.Model.ID)
	assert.Equal(t, entities.ReasoningExcellent, d.Model.ReasoningTier)
}

func TestRoute_EmptyQuery(t *testing.T) {
	r := NewRouter(nil)

	for _, q := range []string{"", "  ", "\n\t"} {
		d := r.Route(q)
		assert.True(t, d.EmptyQuery)
		assert.True(t, d.Scores.IsZero())
		assert.Equal(t, ReasonEmptyQuery, d.Reason)
		assert.Equal(t, entities.SpeedFast, d.Model.Speed)
	}
}

func TestRoute_VeryComplexRegardlessOfOtherTiers(t *testing.T) {
	r := NewRouter(nil)

	d := r.Route("show me the price list and compare the best option, then calculate total savings and explain why")
	require.GreaterOrEqual(t, d.Scores.Complex, 3)
	assert.Equal(t, ReasonVeryComplex, d.Reason)
	assert.Equal(t, "phi3:mini", d.Model.ID)
}

func TestCompile_Errors(t *testing.T) {
	spec := DefaultSpec()
	spec.Tiers.Medium.Patterns = append(spec.Tiers.Medium.Patterns, "([unclosed")
	_, err := Compile(spec)
	assert.True(t, errors.Is(err, entities.ErrInvalidRules))

	spec = DefaultSpec()
	spec.Models.Complex.ID = ""
	_, err = Compile(spec)
	assert.True(t, errors.Is(err, entities.ErrInvalidRules))

	spec = DefaultSpec()
	spec.Tiers.Simple.Keywords = []string{"  "}
	_, err = Compile(spec)
	assert.True(t, errors.Is(err, entities.ErrInvalidRules))
}

func TestCompile_KeywordsLowercased(t *testing.T) {
	spec := DefaultSpec()
	spec.Tiers.Medium.Keywords = []string{"UPGRADE"}
	rules, err := Compile(spec)
	require.NoError(t, err)

	scores, _ := NewClassifier(rules).Classify("should we upgrade")
	assert.Equal(t, 1, scores.Medium)
}

func TestRouter_Swap(t *testing.T) {
	r := NewRouter(nil)

	spec := DefaultSpec()
	spec.Version = 2
	spec.Models.Complex.ID = "custom-reasoner"
	next, err := Compile(spec)
	require.NoError(t, err)

	prev := r.Swap(next)
	assert.Equal(t, 1, prev.Version())

	d := r.Route("calculate total cost and explain why")
	assert.Equal(t, "custom-reasoner", d.Model.ID)
	assert.Equal(t, 2, d.RulesVersion)

	assert.Same(t, next, r.Swap(nil), "nil swap keeps the current snapshot")
	assert.Same(t, next, r.Rules())
}

func TestRouter_ConcurrentRouteAndSwap(t *testing.T) {
	r := NewRouter(nil)
	spec := DefaultSpec()
	spec.Models.Simple.ID = "alt-fast"
	alt, err := Compile(spec)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if i == 0 && j%10 == 0 {
					if j%20 == 0 {
						r.Swap(alt)
					} else {
						r.Swap(DefaultRules())
					}
				}
				d := r.Route("what is the price")
				if !strings.Contains(d.Model.ID, "fast") && d.Model.ID != "llama3.2:1b" {
					t.Errorf("unexpected model %s", d.Model.ID)
				}
			}
		}(i)
	}
	wg.Wait()
}
