// Package budget decides how many ranked items survive into the digest.
package budget

import "github.com/lueurxax/daily-news-digest/internal/core/domain"

// Estimated rendered length per item, in words. Items inside the highlight
// window render as standalone 1-2 sentence entries; items beyond it are
// expected to land in topic clusters where the shared synopsis amortizes
// length across members.
const (
	StandaloneItemWords = 40
	ClusteredItemWords  = 22
)

// Allocation is the result of walking the ranked list against a word budget.
type Allocation struct {
	// Selected items, in ranked order.
	Selected []domain.Item
	// WordsPerItem maps item URL to its estimated length budget.
	WordsPerItem map[string]int
	// EstimatedWords is the running total for the selected items.
	EstimatedWords int
	// Dropped counts ranked items that did not fit.
	Dropped int
}

// Allocate walks ranked order, admitting items whole until the next item
// would exceed wordBudget. Admission is all-or-nothing per item, and the
// first item is always admitted even if it alone exceeds the budget, so a
// non-empty input always yields a non-empty digest.
//
// highlightCount is the size of the highlight window; items inside it get
// the standalone estimate, the rest the amortized cluster estimate.
func Allocate(ranked []domain.Item, wordBudget, highlightCount int) Allocation {
	alloc := Allocation{
		WordsPerItem: make(map[string]int, len(ranked)),
	}

	for i, item := range ranked {
		cost := ClusteredItemWords
		if i < highlightCount {
			cost = StandaloneItemWords
		}

		if len(alloc.Selected) > 0 && alloc.EstimatedWords+cost > wordBudget {
			alloc.Dropped = len(ranked) - len(alloc.Selected)

			break
		}

		alloc.Selected = append(alloc.Selected, item)
		alloc.WordsPerItem[item.URL] = cost
		alloc.EstimatedWords += cost
	}

	return alloc
}
