// Package fetch retrieves raw records from the three content sources.
//
// Fetchers are thin I/O wrappers: they return source-shaped records and do
// no filtering or scoring. A failed source degrades to an empty slice so a
// single outage never aborts the run.
package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
)

const userAgent = "daily-news-digest/1.0"

// RawRecord is one source-native record before normalization. Field
// semantics vary per source; the normalizer owns validation.
type RawRecord struct {
	Title     string
	URL       string
	Score     int
	Comments  int
	FetchedAt time.Time
}

// Fetcher retrieves the current records for one source.
type Fetcher interface {
	Source() domain.Source
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// Result pairs a source with its fetched records.
type Result struct {
	Source  domain.Source
	Records []RawRecord
}

// All fans out across the given fetchers concurrently and collects their
// records. Individual fetcher errors are logged and yield an empty slice
// for that source.
func All(ctx context.Context, fetchers []Fetcher, logger *zerolog.Logger) []Result {
	results := make([]Result, len(fetchers))

	var (
		g  errgroup.Group
		mu sync.Mutex
	)

	for i, f := range fetchers {
		g.Go(func() error {
			records, err := f.Fetch(ctx)
			if err != nil {
				logger.Error().Err(err).Str("source", string(f.Source())).Msg("fetch failed, continuing without source")

				records = nil
			}

			mu.Lock()
			results[i] = Result{Source: f.Source(), Records: records}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait() // fetcher errors are absorbed above

	return results
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
