package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	"github.com/lueurxax/daily-news-digest/internal/htmlutils"
)

const (
	hatenaPopularFeedURL = "https://b.hatena.ne.jp/hotentry/all.rss"
	hatenaNewFeedURL     = "https://b.hatena.ne.jp/entrylist/all.rss"

	hatenaExtNamespace = "hatena"
	hatenaExtBookmarks = "bookmarkcount"
)

// HatenaFetcher reads the Hatena Bookmark hotentry and new-entry feeds.
type HatenaFetcher struct {
	parser       *gofeed.Parser
	popularURL   string
	newURL       string
	popularCount int
	newCount     int
	now          func() time.Time
}

// NewHatena creates a Hatena Bookmark fetcher taking popularCount entries
// from the hotentry feed and newCount from the new-entry feed.
func NewHatena(popularCount, newCount int, timeout time.Duration) *HatenaFetcher {
	parser := gofeed.NewParser()
	parser.Client = newHTTPClient(timeout)
	parser.UserAgent = userAgent

	return &HatenaFetcher{
		parser:       parser,
		popularURL:   hatenaPopularFeedURL,
		newURL:       hatenaNewFeedURL,
		popularCount: popularCount,
		newCount:     newCount,
		now:          time.Now,
	}
}

// NewHatenaWithFeeds creates a fetcher against custom feed URLs, for tests.
func NewHatenaWithFeeds(popularURL, newURL string, popularCount, newCount int, timeout time.Duration) *HatenaFetcher {
	f := NewHatena(popularCount, newCount, timeout)
	f.popularURL = popularURL
	f.newURL = newURL

	return f
}

func (f *HatenaFetcher) Source() domain.Source {
	return domain.SourceHatena
}

func (f *HatenaFetcher) Fetch(ctx context.Context) ([]RawRecord, error) {
	popular, err := f.fetchFeed(ctx, f.popularURL, f.popularCount)
	if err != nil {
		return nil, fmt.Errorf("hatena popular feed: %w", err)
	}

	// The new-entry feed is best effort: popular entries alone still make
	// a usable digest.
	fresh, err := f.fetchFeed(ctx, f.newURL, f.newCount)
	if err != nil {
		return popular, nil //nolint:nilerr // degraded, not failed
	}

	return append(popular, fresh...), nil
}

func (f *HatenaFetcher) fetchFeed(ctx context.Context, url string, limit int) ([]RawRecord, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, limit)

	for _, item := range feed.Items {
		if len(records) >= limit {
			break
		}

		records = append(records, RawRecord{
			Title:     htmlutils.CleanText(item.Title),
			URL:       item.Link,
			Score:     hatenaBookmarkCount(item),
			FetchedAt: f.fetchedAt(item),
		})
	}

	return records, nil
}

// hatenaBookmarkCount reads the hatena:bookmarkcount RSS extension.
func hatenaBookmarkCount(item *gofeed.Item) int {
	exts, ok := item.Extensions[hatenaExtNamespace]
	if !ok {
		return 0
	}

	values, ok := exts[hatenaExtBookmarks]
	if !ok || len(values) == 0 {
		return 0
	}

	count, err := strconv.Atoi(values[0].Value)
	if err != nil {
		return 0
	}

	return count
}

func (f *HatenaFetcher) fetchedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	// The RDF feed carries dc:date strings gofeed sometimes leaves unparsed.
	if item.Published != "" {
		if ts, err := dateparse.ParseAny(item.Published); err == nil {
			return ts
		}
	}

	return f.now()
}
