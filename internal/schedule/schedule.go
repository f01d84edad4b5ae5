// Package schedule triggers the daily digest run at a fixed local time.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is the unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler fires a Job once a day at the configured wall-clock time in the
// publication timezone. A run still in flight when the next tick arrives
// causes that tick to be skipped, never a concurrent run.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	logger *zerolog.Logger
}

// New parses scheduleTime ("HH:MM", 24h) against the named IANA timezone.
func New(timezone, scheduleTime string, logger *zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	spec, err := cronSpec(scheduleTime)
	if err != nil {
		return nil, err
	}

	adapter := &cronLogger{logger: logger}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(adapter), cron.Recover(adapter)),
	)

	return &Scheduler{cron: c, spec: spec, logger: logger}, nil
}

// Start registers the job and begins ticking. The job receives ctx; cancel
// it to interrupt an in-flight run, then call Stop to drain.
func (s *Scheduler) Start(ctx context.Context, job Job) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := job(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled digest run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", s.spec, err)
	}

	s.cron.Start()

	if next := s.cron.Entries(); len(next) > 0 {
		s.logger.Info().Time("next_run", next[0].Next).Msg("scheduler started")
	}

	return nil
}

// Stop halts ticking and returns a context that is done once any in-flight
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func cronSpec(scheduleTime string) (string, error) {
	var hour, minute int

	if _, err := fmt.Sscanf(scheduleTime, "%d:%d", &hour, &minute); err != nil {
		return "", fmt.Errorf("parse schedule time %q: %w", scheduleTime, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("schedule time %q out of range", scheduleTime)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

type cronLogger struct {
	logger *zerolog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
