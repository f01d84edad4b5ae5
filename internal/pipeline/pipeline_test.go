package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/daily-news-digest/internal/archive"
	"github.com/lueurxax/daily-news-digest/internal/cluster"
	"github.com/lueurxax/daily-news-digest/internal/config"
	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
	"github.com/lueurxax/daily-news-digest/internal/fetch"
	"github.com/lueurxax/daily-news-digest/internal/llm"
)

type stubFetcher struct {
	source  domain.Source
	records []fetch.RawRecord
	err     error
}

func (f *stubFetcher) Source() domain.Source { return f.source }

func (f *stubFetcher) Fetch(context.Context) ([]fetch.RawRecord, error) {
	return f.records, f.err
}

type failingStore struct {
	*archive.MemoryStore
}

func (s *failingStore) Put(context.Context, domain.ArchiveEntry, *domain.Digest) (domain.ArchiveEntry, error) {
	return domain.ArchiveEntry{}, errors.New("disk full")
}

func testConfig() *config.Config {
	return &config.Config{
		WordBudget:        1800,
		BudgetTolerance:   0.2,
		HighlightCount:    2,
		DiversityFraction: 0.5,
		KeepDays:          90,
	}
}

func newRunner(cfg *config.Config, fetchers []fetch.Fetcher, summarizer llm.Summarizer, store archive.Store) *Runner {
	logger := zerolog.Nop()

	return New(
		cfg,
		fetchers,
		cluster.New(summarizer, &logger),
		&llm.RetryCounter{},
		archive.NewManager(store, &logger),
		time.UTC,
		&logger,
	)
}

func testFetchers() []fetch.Fetcher {
	t0 := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	return []fetch.Fetcher{
		&stubFetcher{source: domain.SourceHatena, records: []fetch.RawRecord{
			{Title: "Go 1.24 リリース", URL: "https://example.com/a", Score: 100, FetchedAt: t0},
			{Title: "新しいエディタ", URL: "https://example.com/b", Score: 50, FetchedAt: t0},
		}},
		&stubFetcher{source: domain.SourceHackerNews, records: []fetch.RawRecord{
			{Title: "A database story", URL: "https://example.com/c", Score: 40, FetchedAt: t0.Add(time.Hour)},
		}},
	}
}

const goodResponse = "## 開発ツール\n" +
	"新しい開発ツールの話題が中心です。\n" +
	"- [Go 1.24 が公開されました。](https://example.com/a)\n" +
	"- [データベース障害の記録です。](https://example.com/c)\n" +
	"\n" +
	"## エディタ\n" +
	"エディタの新機能が話題です。\n" +
	"- [新しいエディタが登場しました。](https://example.com/b)\n"

func TestRunProducesDigest(t *testing.T) {
	store := archive.NewMemoryStore()
	runner := newRunner(testConfig(), testFetchers(), llm.NewMock(goodResponse), store)

	digest, diag, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diag.FetchedRecords != 3 || diag.ItemsSelected != 3 {
		t.Fatalf("diagnostics fetched=%d selected=%d, want 3/3", diag.FetchedRecords, diag.ItemsSelected)
	}

	if diag.RunID == "" || diag.RunID != digest.RunID {
		t.Fatalf("run id not propagated: diag=%q digest=%q", diag.RunID, digest.RunID)
	}

	if digest.ItemCount() != 3 {
		t.Fatalf("digest holds %d items, want 3", digest.ItemCount())
	}

	first := digest.Clusters[0]
	if !first.Highlight || first.Label != cluster.HighlightsLabel {
		t.Fatalf("first cluster is %q (highlight=%v), want highlights first", first.Label, first.Highlight)
	}

	// Diversity: two slots, half-fraction, so the second slot belongs to
	// the other source even though both hatena items outrank it raw.
	if len(first.MemberURLs) != 2 || first.MemberURLs[1] != "https://example.com/c" {
		t.Fatalf("highlight members = %v, want a then c", first.MemberURLs)
	}

	if len(store.Index()) != 1 {
		t.Fatalf("archive index holds %d entries, want 1", len(store.Index()))
	}

	if diag.FallbackUsed || diag.BudgetExceeded {
		t.Fatalf("unexpected degradation flags: %+v", diag)
	}
}

func TestRunFailsWithoutItems(t *testing.T) {
	fetchers := []fetch.Fetcher{
		&stubFetcher{source: domain.SourceHatena, err: errors.New("feed unreachable")},
	}

	runner := newRunner(testConfig(), fetchers, llm.NewMock(goodResponse), archive.NewMemoryStore())

	_, _, err := runner.Run(context.Background())
	if !errors.Is(err, coreerrors.ErrNoItems) {
		t.Fatalf("err = %v, want ErrNoItems", err)
	}
}

func TestRunFallsBackWhenSummarizerFails(t *testing.T) {
	mock := llm.NewMock("")
	mock.Fail(errors.New("model overloaded"))

	store := archive.NewMemoryStore()
	runner := newRunner(testConfig(), testFetchers(), mock, store)

	digest, diag, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !diag.FallbackUsed {
		t.Fatal("fallback flag not set")
	}

	if len(digest.Clusters) != 1 || digest.Clusters[0].Label != cluster.FallbackLabel {
		t.Fatalf("clusters = %+v, want single fallback cluster", digest.Clusters)
	}

	// Degraded output is still a digest: original titles, archived as usual.
	if digest.ItemCount() != 3 || len(store.Index()) != 1 {
		t.Fatalf("fallback digest items=%d archived=%d", digest.ItemCount(), len(store.Index()))
	}
}

func TestRunAdmitsOversizedItem(t *testing.T) {
	cfg := testConfig()
	cfg.WordBudget = 10 // below even one item's estimate
	cfg.HighlightCount = 1

	fetchers := []fetch.Fetcher{
		&stubFetcher{source: domain.SourceHatena, records: []fetch.RawRecord{
			{Title: "Only story today", URL: "https://example.com/solo", Score: 7, FetchedAt: time.Now()},
		}},
	}

	response := "## ニュース\n- [今日の唯一の記事です。](https://example.com/solo)\n"

	r := newRunner(cfg, fetchers, llm.NewMock(response), archive.NewMemoryStore())

	_, diag, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diag.ItemsSelected != 1 || diag.ItemsDropped != 0 {
		t.Fatalf("selected=%d dropped=%d, want the lone item admitted", diag.ItemsSelected, diag.ItemsDropped)
	}
}

type interruptedSummarizer struct{}

func (interruptedSummarizer) Summarize(ctx context.Context, _ string) (string, error) {
	return "", ctx.Err()
}

func TestRunAbortedLeavesArchiveUntouched(t *testing.T) {
	store := archive.NewMemoryStore()
	r := newRunner(testConfig(), testFetchers(), interruptedSummarizer{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, diag, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	// No degraded digest, no archive write.
	if diag.FallbackUsed {
		t.Fatal("aborted run reported fallback")
	}

	if len(store.Index()) != 0 {
		t.Fatalf("aborted run committed %d entries, want 0", len(store.Index()))
	}
}

func TestRunCommitFailureIsFatal(t *testing.T) {
	store := &failingStore{MemoryStore: archive.NewMemoryStore()}
	r := newRunner(testConfig(), testFetchers(), llm.NewMock(goodResponse), store)

	_, _, err := r.Run(context.Background())
	if !errors.Is(err, coreerrors.ErrCommitFailed) {
		t.Fatalf("err = %v, want ErrCommitFailed", err)
	}
}
