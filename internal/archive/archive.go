// Package archive maintains the rolling window of persisted digests.
//
// One persisted unit per calendar date plus one index artifact listing all
// retained dates in reverse chronological order. The index is regenerated
// after every commit and every sweep, so it always exactly reflects the set
// of non-evicted entries.
package archive

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/observability"
)

// DateKey is the canonical date format for archive entries.
const DateKey = "2006-01-02"

// Store is the persistence handle for archived digests. Implementations
// must make Put atomic per date: an entry is either fully written or absent,
// never half-visible.
type Store interface {
	// Put persists the digest under entry.Date, overwriting any previous
	// entry for the same date, and returns the entry with its storage
	// location filled in.
	Put(ctx context.Context, entry domain.ArchiveEntry, digest *domain.Digest) (domain.ArchiveEntry, error)

	// Delete removes the entry and its backing digest for the date.
	Delete(ctx context.Context, date time.Time) error

	// Entries lists all persisted entries in unspecified order.
	Entries(ctx context.Context) ([]domain.ArchiveEntry, error)

	// WriteIndex replaces the index artifact.
	WriteIndex(ctx context.Context, entries []domain.ArchiveEntry) error
}

// Manager enforces the retention policy over a Store.
type Manager struct {
	store  Store
	logger *zerolog.Logger
}

func NewManager(store Store, logger *zerolog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Commit persists the digest as an immutable archive entry keyed by its
// date and regenerates the index. Committing the same date twice overwrites
// rather than duplicates. The entry is written before the index, so the
// index never references a partially written entry.
func (m *Manager) Commit(ctx context.Context, digest *domain.Digest) (domain.ArchiveEntry, error) {
	// A canceled run must not touch stored state.
	if err := ctx.Err(); err != nil {
		return domain.ArchiveEntry{}, fmt.Errorf("commit aborted: %w", err)
	}

	year, month, day := digest.Date.Date()

	entry := domain.ArchiveEntry{
		Date:      time.Date(year, month, day, 0, 0, 0, 0, digest.Date.Location()),
		ItemCount: digest.ItemCount(),
		Labels:    clusterLabels(digest),
	}

	entry, err := m.store.Put(ctx, entry, digest)
	if err != nil {
		return domain.ArchiveEntry{}, fmt.Errorf("%w: %w", coreerrors.ErrCommitFailed, err)
	}

	if err := m.rebuildIndex(ctx); err != nil {
		return domain.ArchiveEntry{}, fmt.Errorf("%w: %w", coreerrors.ErrCommitFailed, err)
	}

	m.logger.Info().
		Str("date", entry.Date.Format(DateKey)).
		Int("items", entry.ItemCount).
		Msg("digest committed to archive")

	return entry, nil
}

// Sweep evicts entries older than now minus keepDays and regenerates the
// index. Returns the evicted entries.
func (m *Manager) Sweep(ctx context.Context, now time.Time, keepDays int) ([]domain.ArchiveEntry, error) {
	// Day granularity: an entry dated exactly keepDays ago survives until
	// the next calendar day.
	year, month, day := now.Date()
	cutoff := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -keepDays)

	entries, err := m.store.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archive entries: %w", err)
	}

	var evicted []domain.ArchiveEntry

	for _, entry := range entries {
		if !entry.Date.Before(cutoff) {
			continue
		}

		if err := m.store.Delete(ctx, entry.Date); err != nil {
			return evicted, fmt.Errorf("evict %s: %w", entry.Date.Format(DateKey), err)
		}

		evicted = append(evicted, entry)
	}

	if err := m.rebuildIndex(ctx); err != nil {
		return evicted, err
	}

	if len(evicted) > 0 {
		observability.ArchiveSweptTotal.Add(float64(len(evicted)))
		m.logger.Info().Int("evicted", len(evicted)).Str("cutoff", cutoff.Format(DateKey)).Msg("retention sweep complete")
	}

	return evicted, nil
}

func (m *Manager) rebuildIndex(ctx context.Context) error {
	entries, err := m.store.Entries(ctx)
	if err != nil {
		return fmt.Errorf("list archive entries: %w", err)
	}

	// Reverse chronological.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	if err := m.store.WriteIndex(ctx, entries); err != nil {
		return fmt.Errorf("write archive index: %w", err)
	}

	observability.ArchiveEntries.Set(float64(len(entries)))

	return nil
}

func clusterLabels(digest *domain.Digest) []string {
	labels := make([]string, 0, len(digest.Clusters))
	for i := range digest.Clusters {
		labels = append(labels, digest.Clusters[i].Label)
	}

	return labels
}
