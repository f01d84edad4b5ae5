// Package app wires the application together and exposes its two
// operational modes:
//
//   - Once mode: generate one digest immediately and exit
//   - Daemon mode: run the daily schedule with health and metrics endpoints
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/archive"
	"github.com/lueurxax/daily-news-digest/internal/cluster"
	"github.com/lueurxax/daily-news-digest/internal/config"
	"github.com/lueurxax/daily-news-digest/internal/fetch"
	"github.com/lueurxax/daily-news-digest/internal/llm"
	"github.com/lueurxax/daily-news-digest/internal/observability"
	"github.com/lueurxax/daily-news-digest/internal/pipeline"
	"github.com/lueurxax/daily-news-digest/internal/schedule"
)

// App holds the wired application.
type App struct {
	cfg       *config.Config
	store     archive.Store
	runner    *pipeline.Runner
	scheduler *schedule.Scheduler
	logger    *zerolog.Logger
}

// New builds the full dependency graph from configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	store, err := archive.NewFSStore(cfg.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("open archive dir %q: %w", cfg.ArchiveDir, err)
	}

	summarizer, retries := llm.New(cfg, logger)

	runner := pipeline.New(
		cfg,
		buildFetchers(cfg),
		cluster.New(summarizer, logger),
		retries,
		archive.NewManager(store, logger),
		location,
		logger,
	)

	scheduler, err := schedule.New(cfg.Timezone, cfg.ScheduleTime, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		store:     store,
		runner:    runner,
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

func buildFetchers(cfg *config.Config) []fetch.Fetcher {
	var fetchers []fetch.Fetcher

	if cfg.HatenaEnabled {
		fetchers = append(fetchers, fetch.NewHatena(cfg.HatenaPopularCount, cfg.HatenaNewCount, cfg.FetchTimeout))
	}

	if cfg.HackerNewsEnabled {
		fetchers = append(fetchers, fetch.NewHackerNews(cfg.HackerNewsCount, cfg.FetchTimeout))
	}

	if cfg.RedditEnabled {
		fetchers = append(fetchers, fetch.NewReddit(cfg.RedditSubreddit, cfg.RedditCount, cfg.FetchTimeout))
	}

	return fetchers
}

// RunOnce generates a single digest and returns.
func (a *App) RunOnce(ctx context.Context) error {
	_, _, err := a.runner.Run(ctx)

	return err
}

// RunDaemon runs the daily schedule until ctx is canceled, then drains any
// in-flight run.
func (a *App) RunDaemon(ctx context.Context) error {
	err := a.scheduler.Start(ctx, func(ctx context.Context) error {
		_, _, err := a.runner.Run(ctx)

		return err
	})
	if err != nil {
		return err
	}

	<-ctx.Done()

	a.logger.Info().Msg("shutting down, waiting for in-flight run")
	<-a.scheduler.Stop().Done()

	return ctx.Err()
}

// StartHealthServer serves /healthz, /readyz and /metrics until ctx is
// canceled. Readiness means the archive store is reachable.
func (a *App) StartHealthServer(ctx context.Context) error {
	ready := func(ctx context.Context) error {
		_, err := a.store.Entries(ctx)

		return err
	}

	return observability.NewServer(a.cfg.HealthPort, ready, a.logger).Start(ctx)
}
