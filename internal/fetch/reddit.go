package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	"github.com/lueurxax/daily-news-digest/internal/htmlutils"
)

const redditBaseURL = "https://www.reddit.com"

// redditListing is the subreddit listing response shape.
type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				URL         string  `json:"url"`
				Permalink   string  `json:"permalink"`
				Ups         int     `json:"ups"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Stickied    bool    `json:"stickied"`
				IsSelf      bool    `json:"is_self"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditFetcher reads hot posts from a subreddit's public JSON listing.
type RedditFetcher struct {
	client    *http.Client
	baseURL   string
	subreddit string
	postCount int
	now       func() time.Time
}

// NewReddit creates a fetcher taking the first postCount hot posts from the
// given subreddit.
func NewReddit(subreddit string, postCount int, timeout time.Duration) *RedditFetcher {
	return &RedditFetcher{
		client:    newHTTPClient(timeout),
		baseURL:   redditBaseURL,
		subreddit: subreddit,
		postCount: postCount,
		now:       time.Now,
	}
}

// NewRedditWithBaseURL creates a fetcher against a custom base URL, for
// tests.
func NewRedditWithBaseURL(baseURL, subreddit string, postCount int, timeout time.Duration) *RedditFetcher {
	f := NewReddit(subreddit, postCount, timeout)
	f.baseURL = baseURL

	return f
}

func (f *RedditFetcher) Source() domain.Source {
	return domain.SourceReddit
}

func (f *RedditFetcher) Fetch(ctx context.Context) ([]RawRecord, error) {
	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", f.baseURL, f.subreddit, f.postCount+5)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit listing: unexpected status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit listing: %w", err)
	}

	records := make([]RawRecord, 0, f.postCount)

	for _, child := range listing.Data.Children {
		if len(records) >= f.postCount {
			break
		}

		post := child.Data
		if post.Stickied {
			continue
		}

		url := post.URL
		if post.IsSelf {
			url = f.baseURL + post.Permalink
		}

		records = append(records, RawRecord{
			Title:     htmlutils.CleanText(post.Title),
			URL:       url,
			Score:     post.Ups,
			Comments:  post.NumComments,
			FetchedAt: f.now(),
		})
	}

	return records, nil
}
