// Package normalize converts source-shaped raw records into canonical Items.
//
// This is the only place raw source shapes are inspected; everything past it
// branches on the Source tag alone.
package normalize

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/fetch"
)

// Normalize validates and converts one source's raw records. Records missing
// a title or URL, or carrying a non-absolute URL, are dropped and counted;
// they never abort the run.
func Normalize(source domain.Source, records []fetch.RawRecord, logger *zerolog.Logger) ([]domain.Item, int) {
	items := make([]domain.Item, 0, len(records))

	var dropped int

	for _, r := range records {
		item, err := toItem(source, r)
		if err != nil {
			dropped++

			logger.Debug().
				Err(err).
				Str("source", string(source)).
				Str("title", r.Title).
				Str("url", r.URL).
				Msg("dropping malformed record")

			continue
		}

		items = append(items, item)
	}

	return items, dropped
}

func toItem(source domain.Source, r fetch.RawRecord) (domain.Item, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return domain.Item{}, fmt.Errorf("%w: empty title", coreerrors.ErrMalformedRecord)
	}

	if !isAbsoluteURL(r.URL) {
		return domain.Item{}, fmt.Errorf("%w: url %q is not absolute", coreerrors.ErrMalformedRecord, r.URL)
	}

	fetchedAt := r.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	return domain.Item{
		Source:       source,
		Title:        title,
		URL:          r.URL,
		RawScore:     clampScore(r.Score),
		CommentCount: clampScore(r.Comments),
		FetchedAt:    fetchedAt,
	}, nil
}

func clampScore(n int) uint {
	if n < 0 {
		return 0
	}

	return uint(n)
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Merge collapses items sharing a URL across sources into one Item: the
// first-seen title and source win, the highest raw score survives, and the
// remaining sources are recorded as tags. Returns the merged items in
// first-seen order plus the number of collapsed duplicates.
func Merge(batches ...[]domain.Item) ([]domain.Item, int) {
	byURL := make(map[string]int)
	merged := make([]domain.Item, 0)

	var duplicates int

	for _, batch := range batches {
		for _, item := range batch {
			idx, seen := byURL[item.URL]
			if !seen {
				byURL[item.URL] = len(merged)
				merged = append(merged, item)

				continue
			}

			duplicates++

			existing := &merged[idx]
			if item.RawScore > existing.RawScore {
				existing.RawScore = item.RawScore
			}

			if item.CommentCount > existing.CommentCount {
				existing.CommentCount = item.CommentCount
			}

			if item.Source != existing.Source && !hasSource(existing, item.Source) {
				existing.AlsoSeenOn = append(existing.AlsoSeenOn, item.Source)
			}
		}
	}

	return merged, duplicates
}

func hasSource(item *domain.Item, source domain.Source) bool {
	for _, s := range item.AlsoSeenOn {
		if s == source {
			return true
		}
	}

	return false
}
