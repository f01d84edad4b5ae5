package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
)

func digestFor(date time.Time) *domain.Digest {
	return &domain.Digest{
		RunID: "run-" + date.Format(DateKey),
		Date:  date,
		Clusters: []domain.TopicCluster{
			{
				Label:      "今日のハイライト",
				Highlight:  true,
				MemberURLs: []string{"https://example.com/a", "https://example.com/b"},
			},
			{
				Label:      "プログラミング",
				MemberURLs: []string{"https://example.com/c"},
			},
		},
		GeneratedAt: date,
	}
}

func TestCommitIdempotentPerDate(t *testing.T) {
	logger := zerolog.Nop()
	store := NewMemoryStore()
	m := NewManager(store, &logger)

	date := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)

	first, err := m.Commit(context.Background(), digestFor(date))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	second, err := m.Commit(context.Background(), digestFor(date))
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if first.Date != second.Date {
		t.Fatalf("entry dates differ: %v vs %v", first.Date, second.Date)
	}

	entries, _ := store.Entries(context.Background())
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 entry after double commit, got %d", len(entries))
	}

	index := store.Index()
	if len(index) != 1 {
		t.Fatalf("index has %d entries after double commit, want 1", len(index))
	}

	if index[0].ItemCount != 3 {
		t.Fatalf("index entry item count = %d, want 3", index[0].ItemCount)
	}
}

func TestCommitRefusesCanceledContext(t *testing.T) {
	logger := zerolog.Nop()
	store := NewMemoryStore()
	m := NewManager(store, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	date := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)

	if _, err := m.Commit(ctx, digestFor(date)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	if len(store.Index()) != 0 {
		t.Fatalf("canceled commit wrote %d entries, want 0", len(store.Index()))
	}
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	logger := zerolog.Nop()
	store := NewMemoryStore()
	m := NewManager(store, &logger)

	now := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	ctx := context.Background()

	dates := []time.Time{
		now.AddDate(0, 0, -100), // expired
		now.AddDate(0, 0, -91),  // expired
		now.AddDate(0, 0, -90),  // exactly at the boundary, kept
		now.AddDate(0, 0, -1),
		now,
	}

	for _, d := range dates {
		if _, err := m.Commit(ctx, digestFor(d)); err != nil {
			t.Fatalf("commit %v: %v", d, err)
		}
	}

	evicted, err := m.Sweep(ctx, now, 90)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(evicted) != 2 {
		t.Fatalf("expected 2 evicted, got %d", len(evicted))
	}

	index := store.Index()
	if len(index) != 3 {
		t.Fatalf("index has %d entries after sweep, want 3", len(index))
	}

	// Reverse chronological, exactly the survivors.
	for i := 1; i < len(index); i++ {
		if !index[i].Date.Before(index[i-1].Date) {
			t.Fatalf("index not reverse chronological: %v", index)
		}
	}

	if !index[0].Date.Equal(truncate(now)) {
		t.Fatalf("most recent entry missing from index head: %v", index[0].Date)
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	logger := zerolog.Nop()

	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	m := NewManager(store, &logger)
	ctx := context.Background()

	date := time.Date(2026, 8, 29, 7, 0, 0, 0, time.UTC)

	entry, err := m.Commit(ctx, digestFor(date))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if entry.Path != "2026-08-29.json" {
		t.Fatalf("entry path = %q", entry.Path)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ItemCount != 3 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	digest, err := store.Get(ctx, date)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if digest.RunID != "run-2026-08-29" || len(digest.Clusters) != 2 {
		t.Fatalf("digest did not round-trip: %+v", digest)
	}
}

func TestFSStoreSweepRemovesFiles(t *testing.T) {
	logger := zerolog.Nop()

	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	m := NewManager(store, &logger)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -120)

	if _, err := m.Commit(ctx, digestFor(old)); err != nil {
		t.Fatalf("commit old: %v", err)
	}
	if _, err := m.Commit(ctx, digestFor(now)); err != nil {
		t.Fatalf("commit now: %v", err)
	}

	evicted, err := m.Sweep(ctx, now, 90)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(evicted) != 1 {
		t.Fatalf("expected 1 evicted, got %d", len(evicted))
	}

	if _, err := store.Get(ctx, old); err == nil {
		t.Fatalf("evicted digest still readable")
	}

	entries, _ := store.Entries(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", len(entries))
	}
}

func truncate(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
