// Package pipeline drives one digest run end to end: fetch, normalize,
// rank, allocate, cluster, assemble, archive. Per-item failures are
// absorbed into Diagnostics; only an empty pool or an archive commit
// failure aborts the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/archive"
	"github.com/lueurxax/daily-news-digest/internal/assemble"
	"github.com/lueurxax/daily-news-digest/internal/budget"
	"github.com/lueurxax/daily-news-digest/internal/cluster"
	"github.com/lueurxax/daily-news-digest/internal/config"
	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/fetch"
	"github.com/lueurxax/daily-news-digest/internal/llm"
	"github.com/lueurxax/daily-news-digest/internal/normalize"
	"github.com/lueurxax/daily-news-digest/internal/observability"
	"github.com/lueurxax/daily-news-digest/internal/rank"
)

// Runner holds the wired stages of the digest pipeline.
type Runner struct {
	cfg       *config.Config
	fetchers  []fetch.Fetcher
	clusterer *cluster.Clusterer
	retries   *llm.RetryCounter
	archive   *archive.Manager
	location  *time.Location
	logger    *zerolog.Logger
	now       func() time.Time
}

func New(
	cfg *config.Config,
	fetchers []fetch.Fetcher,
	clusterer *cluster.Clusterer,
	retries *llm.RetryCounter,
	archiveManager *archive.Manager,
	location *time.Location,
	logger *zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		fetchers:  fetchers,
		clusterer: clusterer,
		retries:   retries,
		archive:   archiveManager,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one full digest generation. The returned Diagnostics is
// populated even when the run fails partway.
func (r *Runner) Run(ctx context.Context) (*domain.Digest, domain.Diagnostics, error) {
	started := r.now()

	var diag domain.Diagnostics

	digest, err := r.run(ctx, &diag)
	if err != nil {
		observability.RunsCompleted.WithLabelValues("error").Inc()

		return nil, diag, err
	}

	observability.RunsCompleted.WithLabelValues("ok").Inc()
	observability.RunDurationSeconds.Observe(time.Since(started).Seconds())
	observability.DigestWordCount.Set(float64(digest.TotalWordCount))
	observability.DigestItemsSelected.Set(float64(diag.ItemsSelected))

	r.logger.Info().
		Str("run_id", diag.RunID).
		Int("items_selected", diag.ItemsSelected).
		Int("word_count", digest.TotalWordCount).
		Dur("took", time.Since(started)).
		Msg("digest run complete")

	return digest, diag, nil
}

func (r *Runner) run(ctx context.Context, diag *domain.Diagnostics) (*domain.Digest, error) {
	results := fetch.All(ctx, r.fetchers, r.logger)

	batches := make([][]domain.Item, 0, len(results))

	for _, res := range results {
		diag.FetchedRecords += len(res.Records)
		observability.ItemsFetched.WithLabelValues(string(res.Source)).Add(float64(len(res.Records)))

		items, dropped := normalize.Normalize(res.Source, res.Records, r.logger)

		diag.MalformedRecords += dropped
		observability.ItemsDropped.WithLabelValues(observability.DropReasonMalformed).Add(float64(dropped))

		batches = append(batches, items)
	}

	merged, duplicates := normalize.Merge(batches...)

	diag.DuplicateURLs = duplicates
	observability.ItemsDropped.WithLabelValues(observability.DropReasonDuplicate).Add(float64(duplicates))

	if len(merged) == 0 {
		return nil, fmt.Errorf("no items survived normalization: %w", coreerrors.ErrNoItems)
	}

	ranked := rank.Rank(merged)
	diag.ItemsRanked = len(ranked)

	alloc := budget.Allocate(ranked, r.cfg.WordBudget, r.cfg.HighlightCount)

	diag.ItemsSelected = len(alloc.Selected)
	diag.ItemsDropped = alloc.Dropped
	observability.ItemsDropped.WithLabelValues(observability.DropReasonBudget).Add(float64(alloc.Dropped))

	r.logger.Debug().
		Int("ranked", len(ranked)).
		Int("selected", len(alloc.Selected)).
		Int("estimated_words", alloc.EstimatedWords).
		Msg("budget allocation done")

	highlights := rank.Highlights(alloc.Selected, r.cfg.HighlightCount, r.cfg.DiversityFraction)

	clustered, err := r.clusterer.Cluster(ctx, alloc.Selected, highlights)
	if err != nil {
		// An aborted run leaves the archive exactly as it was.
		return nil, err
	}

	// The unresolved-reference drop metric is already counted inside Cluster.
	diag.UnresolvedLines = clustered.UnresolvedLines
	diag.FallbackUsed = clustered.FallbackUsed
	diag.SummarizeRetries = r.retries.Take()

	digest, err := assemble.Assemble(clustered.Clusters, r.now().In(r.location), r.cfg.WordBudget, r.cfg.BudgetTolerance)
	if err != nil {
		if !errors.Is(err, coreerrors.ErrBudgetExceeded) {
			return nil, err
		}

		diag.BudgetExceeded = true
		r.logger.Warn().Err(err).Msg("digest over budget, publishing anyway")
	}

	diag.RunID = digest.RunID

	if _, err := r.archive.Commit(ctx, &digest); err != nil {
		return nil, err
	}

	swept, err := r.archive.Sweep(ctx, r.now().In(r.location), r.cfg.KeepDays)
	if err != nil {
		// Retention failure never invalidates the committed digest.
		r.logger.Error().Err(err).Msg("archive sweep failed")
	} else {
		diag.SweptEntries = len(swept)
	}

	return &digest, nil
}
