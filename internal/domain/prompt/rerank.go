// Package prompt reranks retrieved context and assembles tenant-customized prompts.
package prompt

import (
	"fmt"
	"sort"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Reranker defaults.
const (
	DefaultTopK       = 3
	DefaultCharBudget = 1500
)

// Reranker orders retrieved passages and bounds them to a context budget.
type Reranker struct {
	topK       int
	charBudget int
}

// NewReranker creates a Reranker. Non-positive values select the defaults.
func NewReranker(topK, charBudget int) *Reranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	return &Reranker{topK: topK, charBudget: charBudget}
}

// Rerank stable-sorts by score descending, keeps the first topK, cuts each
// text to charBudget characters and labels it "[Document i]". The input is
// not modified.
func (r *Reranker) Rerank(docs []entities.ScoredDocument) []string {
	if len(docs) == 0 {
		return nil
	}

	sorted := make([]entities.ScoredDocument, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if len(sorted) > r.topK {
		sorted = sorted[:r.topK]
	}

	out := make([]string, len(sorted))
	for i, d := range sorted {
		out[i] = fmt.Sprintf("[Document %d]\n%s", i+1, truncate(d.Text, r.charBudget))
	}
	return out
}

// truncate keeps the first n characters (code points) of s.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
