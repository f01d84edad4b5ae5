package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
)

const hackerNewsBaseURL = "https://hacker-news.firebaseio.com"

// hnItem is the Firebase API item shape.
type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Type        string `json:"type"`
}

// HackerNewsFetcher reads top stories from the Hacker News Firebase API.
type HackerNewsFetcher struct {
	client     *http.Client
	baseURL    string
	storyCount int
	now        func() time.Time
}

// NewHackerNews creates a fetcher taking the first storyCount front-page
// stories.
func NewHackerNews(storyCount int, timeout time.Duration) *HackerNewsFetcher {
	return &HackerNewsFetcher{
		client:     newHTTPClient(timeout),
		baseURL:    hackerNewsBaseURL,
		storyCount: storyCount,
		now:        time.Now,
	}
}

// NewHackerNewsWithBaseURL creates a fetcher against a custom base URL, for
// tests.
func NewHackerNewsWithBaseURL(baseURL string, storyCount int, timeout time.Duration) *HackerNewsFetcher {
	f := NewHackerNews(storyCount, timeout)
	f.baseURL = baseURL

	return f
}

func (f *HackerNewsFetcher) Source() domain.Source {
	return domain.SourceHackerNews
}

func (f *HackerNewsFetcher) Fetch(ctx context.Context) ([]RawRecord, error) {
	ids, err := f.topStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("hackernews top stories: %w", err)
	}

	records := make([]RawRecord, 0, f.storyCount)

	for _, id := range ids {
		if len(records) >= f.storyCount {
			break
		}

		item, err := f.item(ctx, id)
		if err != nil {
			// One dead item is not worth losing the source over.
			continue
		}

		if item == nil || item.Type != "story" {
			continue
		}

		url := item.URL
		if url == "" {
			// Ask HN and similar text posts live on the site itself.
			url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
		}

		records = append(records, RawRecord{
			Title:     item.Title,
			URL:       url,
			Score:     item.Score,
			Comments:  item.Descendants,
			FetchedAt: f.now(),
		})
	}

	return records, nil
}

func (f *HackerNewsFetcher) topStories(ctx context.Context) ([]int, error) {
	var ids []int
	if err := f.getJSON(ctx, f.baseURL+"/v0/topstories.json", &ids); err != nil {
		return nil, err
	}

	return ids, nil
}

func (f *HackerNewsFetcher) item(ctx context.Context, id int) (*hnItem, error) {
	var item *hnItem
	if err := f.getJSON(ctx, fmt.Sprintf("%s/v0/item/%d.json", f.baseURL, id), &item); err != nil {
		return nil, err
	}

	return item, nil
}

func (f *HackerNewsFetcher) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
