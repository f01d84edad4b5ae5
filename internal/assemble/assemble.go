// Package assemble merges clustered, summarized text with item metadata
// into the ordered, render-ready Digest.
package assemble

import (
	"fmt"
	"sort"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
)

// Assemble orders the clusters and computes the digest's real word count:
// highlights first by convention, the rest in descending aggregate
// normalized score. Within a cluster, member order is untouched.
//
// The word count re-scans the actual summary text rather than trusting the
// allocator's estimate. Overshooting wordBudget by more than tolerance
// yields a wrapped ErrBudgetExceeded alongside the still-valid Digest; the
// caller logs it and continues.
func Assemble(clusters []domain.TopicCluster, date time.Time, wordBudget int, tolerance float64) (domain.Digest, error) {
	ordered := make([]domain.TopicCluster, len(clusters))
	copy(ordered, clusters)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Highlight != ordered[j].Highlight {
			return ordered[i].Highlight
		}

		return ordered[i].AggregateScore() > ordered[j].AggregateScore()
	})

	digest := domain.Digest{
		RunID:       uuid.NewString(),
		Date:        date,
		Clusters:    ordered,
		GeneratedAt: time.Now(),
	}

	for i := range ordered {
		digest.TotalWordCount += clusterWordCount(&ordered[i])
	}

	ceiling := int(float64(wordBudget) * (1 + tolerance))
	if wordBudget > 0 && digest.TotalWordCount > ceiling {
		return digest, fmt.Errorf("%w: %d words against budget %d (tolerance %d)",
			coreerrors.ErrBudgetExceeded, digest.TotalWordCount, wordBudget, ceiling)
	}

	return digest, nil
}

func clusterWordCount(c *domain.TopicCluster) int {
	count := CountWords(c.Label) + CountWords(c.Summary)

	for _, url := range c.MemberURLs {
		count += CountWords(c.ItemSummaries[url])
	}

	return count
}

// CountWords approximates rendered length for mixed Japanese/Latin text:
// each CJK rune counts as one word (Japanese has no word-delimiting
// spaces), and each whitespace-separated Latin run counts as one.
func CountWords(s string) int {
	var (
		count  int
		inWord bool
	)

	for _, r := range s {
		switch {
		case isCJK(r):
			count++

			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++

				inWord = true
			}
		default:
			inWord = false
		}
	}

	return count
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}
