// Package rank orders Items across sources with incomparable raw scales.
package rank

import (
	"math"
	"sort"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
)

// Rank annotates every Item with a normalized score and returns the items
// in descending score order.
//
// Raw scores are normalized per source with log1p(raw)/log1p(maxRaw) over
// the current run's item set. Popularity is heavy-tailed on every source;
// a linear min-max transform would let one runaway entry flatten the rest
// of its source to near zero, while the log transform keeps mid-range items
// distinguishable. The transform is monotonic in the raw score and maps
// into [0,1].
//
// Ties break by earlier FetchedAt, then lexical URL order, so repeated runs
// over identical input produce identical output.
func Rank(items []domain.Item) []domain.Item {
	ranked := make([]domain.Item, len(items))
	copy(ranked, items)

	maxRaw := make(map[domain.Source]uint)
	for _, item := range ranked {
		if item.RawScore > maxRaw[item.Source] {
			maxRaw[item.Source] = item.RawScore
		}
	}

	for i := range ranked {
		ranked[i].NormalizedScore = normalize(ranked[i].RawScore, maxRaw[ranked[i].Source])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if a.NormalizedScore != b.NormalizedScore {
			return a.NormalizedScore > b.NormalizedScore
		}

		if !a.FetchedAt.Equal(b.FetchedAt) {
			return a.FetchedAt.Before(b.FetchedAt)
		}

		return a.URL < b.URL
	})

	return ranked
}

func normalize(raw, maxRaw uint) float64 {
	if maxRaw == 0 {
		return 0
	}

	return math.Log1p(float64(raw)) / math.Log1p(float64(maxRaw))
}

// Highlights selects the top-n head of the ranked list under the diversity
// rule: no single source may occupy more than fraction of the n slots.
// Selection is a bounded round-robin over the ranked order, so relative
// score order within each source is preserved. When the capped pass cannot
// fill all n slots (too few sources in play), remaining slots are filled
// from the skipped items in rank order.
func Highlights(ranked []domain.Item, n int, fraction float64) []domain.Item {
	if n <= 0 || len(ranked) == 0 {
		return nil
	}

	if n > len(ranked) {
		n = len(ranked)
	}

	perSourceCap := int(fraction * float64(n))
	if perSourceCap < 1 {
		perSourceCap = 1
	}

	selected := make([]domain.Item, 0, n)
	skipped := make([]domain.Item, 0)
	counts := make(map[domain.Source]int)

	for _, item := range ranked {
		if len(selected) == n {
			break
		}

		if counts[item.Source] >= perSourceCap {
			skipped = append(skipped, item)

			continue
		}

		counts[item.Source]++

		selected = append(selected, item)
	}

	for _, item := range skipped {
		if len(selected) == n {
			break
		}

		selected = append(selected, item)
	}

	return selected
}
