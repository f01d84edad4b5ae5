// Package cluster groups selected items into named topic clusters.
//
// The semantic judgment of which items belong together lives in the external
// summarization service; this package owns the request payload, the parse of
// the returned text, cluster-membership bookkeeping, label deduplication and
// highlight selection. Every selected item ends up in exactly one cluster,
// under both normal and fallback operation.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/llm"
	"github.com/lueurxax/daily-news-digest/internal/observability"
)

// Cluster labels fixed by convention.
const (
	HighlightsLabel = "今日のハイライト"
	FallbackLabel   = "misc"
	MiscLabel       = "その他"
)

type Clusterer struct {
	summarizer llm.Summarizer
	logger     *zerolog.Logger
}

func New(summarizer llm.Summarizer, logger *zerolog.Logger) *Clusterer {
	return &Clusterer{summarizer: summarizer, logger: logger}
}

// Result carries the clusters plus per-run bookkeeping counters.
type Result struct {
	Clusters        []domain.TopicCluster
	UnresolvedLines int
	FallbackUsed    bool
}

// Cluster asks the summarization service to group and summarize the
// selected items, then reconciles the response against the input set.
// highlights is the ranked head from the diversity rule; those items always
// form the first cluster regardless of what the service proposes.
//
// If the service fails (after the Summarizer's own bounded retries), the
// result degrades to a single fallback cluster holding every selected item
// with its original untranslated title, so the pipeline always completes.
// Cancellation is not a service failure: a canceled run returns an error
// instead of a degraded result.
func (c *Clusterer) Cluster(ctx context.Context, selected, highlights []domain.Item) (Result, error) {
	if len(selected) == 0 {
		return Result{}, nil
	}

	prompt := BuildPrompt(selected)

	text, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return Result{}, fmt.Errorf("summarization interrupted: %w", err)
		}

		c.logger.Error().Err(err).Msg("summarization failed, falling back to single cluster")

		return Result{
			Clusters:     []domain.TopicCluster{fallbackCluster(selected)},
			FallbackUsed: true,
		}, nil
	}

	known := make(map[string]bool, len(selected))
	for _, item := range selected {
		known[item.URL] = true
	}

	parsed, unresolved := ParseResponse(text, known)
	if unresolved > 0 {
		observability.ItemsDropped.WithLabelValues(observability.DropReasonUnmatched).Add(float64(unresolved))
		c.logger.Warn().Err(coreerrors.ErrUnresolvedReference).Int("lines", unresolved).Msg("dropped summary lines referencing unknown urls")
	}

	if len(parsed) == 0 {
		c.logger.Error().Msg("summarizer response had no parseable categories, falling back")

		return Result{
			Clusters:        []domain.TopicCluster{fallbackCluster(selected)},
			UnresolvedLines: unresolved,
			FallbackUsed:    true,
		}, nil
	}

	return Result{
		Clusters:        c.reconcile(selected, highlights, parsed),
		UnresolvedLines: unresolved,
	}, nil
}

// reconcile turns parsed sections into TopicClusters while enforcing the
// membership invariants: highlights first and populated from the ranked
// head, every selected item in exactly one cluster, no empty clusters.
func (c *Clusterer) reconcile(selected, highlights []domain.Item, parsed []parsedCluster) []domain.TopicCluster {
	rankIndex := make(map[string]int, len(selected))
	itemByURL := make(map[string]domain.Item, len(selected))

	for i, item := range selected {
		rankIndex[item.URL] = i
		itemByURL[item.URL] = item
	}

	// Per-item summaries keyed by URL, wherever the service put them.
	summaries := make(map[string]string)

	for _, p := range parsed {
		for url, s := range p.summaries {
			if _, dup := summaries[url]; !dup {
				summaries[url] = s
			}
		}
	}

	assigned := make(map[string]bool, len(selected))

	highlight := domain.TopicCluster{
		Label:         HighlightsLabel,
		Highlight:     true,
		ItemSummaries: make(map[string]string),
	}

	for _, item := range highlights {
		if assigned[item.URL] {
			continue
		}

		assigned[item.URL] = true

		highlight.MemberURLs = append(highlight.MemberURLs, item.URL)
		highlight.Members = append(highlight.Members, item)

		if s, ok := summaries[item.URL]; ok {
			highlight.ItemSummaries[item.URL] = s
		} else {
			highlight.ItemSummaries[item.URL] = item.Title
		}
	}

	// No highlight window (count configured to zero) means no highlights
	// cluster; clusters are never empty.
	clusters := make([]domain.TopicCluster, 0, len(parsed)+2)
	if len(highlight.MemberURLs) > 0 {
		clusters = append(clusters, highlight)
	}

	for _, p := range parsed {
		tc := domain.TopicCluster{
			Label:         p.label,
			Summary:       p.synopsis,
			ItemSummaries: make(map[string]string),
		}

		// Insertion order is ranked order, not response order.
		for _, url := range sortByRank(p.urls, rankIndex) {
			if assigned[url] {
				continue
			}

			assigned[url] = true

			tc.MemberURLs = append(tc.MemberURLs, url)
			tc.Members = append(tc.Members, itemByURL[url])
			tc.ItemSummaries[url] = p.summaries[url]
		}

		if len(tc.MemberURLs) > 0 {
			clusters = append(clusters, tc)
		}
	}

	// Items the service never mentioned still belong somewhere.
	var leftover domain.TopicCluster

	for _, item := range selected {
		if assigned[item.URL] {
			continue
		}

		if leftover.ItemSummaries == nil {
			leftover = domain.TopicCluster{
				Label:         MiscLabel,
				ItemSummaries: make(map[string]string),
			}
		}

		leftover.MemberURLs = append(leftover.MemberURLs, item.URL)
		leftover.Members = append(leftover.Members, item)
		leftover.ItemSummaries[item.URL] = item.Title
	}

	if len(leftover.MemberURLs) > 0 {
		c.logger.Debug().Int("count", len(leftover.MemberURLs)).Msg("items not categorized by summarizer, grouped as misc")

		clusters = append(clusters, leftover)
	}

	return clusters
}

func sortByRank(urls []string, rankIndex map[string]int) []string {
	sorted := make([]string, len(urls))
	copy(sorted, urls)

	sort.SliceStable(sorted, func(i, j int) bool {
		return rankIndex[sorted[i]] < rankIndex[sorted[j]]
	})

	return sorted
}

func fallbackCluster(selected []domain.Item) domain.TopicCluster {
	tc := domain.TopicCluster{
		Label:         FallbackLabel,
		Highlight:     true,
		ItemSummaries: make(map[string]string, len(selected)),
	}

	for _, item := range selected {
		tc.MemberURLs = append(tc.MemberURLs, item.URL)
		tc.Members = append(tc.Members, item)
		tc.ItemSummaries[item.URL] = item.Title
	}

	return tc
}
