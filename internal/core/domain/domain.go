package domain

import "time"

// Source identifies the origin of a content item.
type Source string

// Known content sources.
const (
	SourceHatena     Source = "hatena"
	SourceHackerNews Source = "hackernews"
	SourceReddit     Source = "reddit"
)

// DisplayName returns the human-readable source name used in prompts and
// rendered output.
func (s Source) DisplayName() string {
	switch s {
	case SourceHatena:
		return "はてブ"
	case SourceHackerNews:
		return "Hacker News"
	case SourceReddit:
		return "Reddit"
	}

	return string(s)
}

// ScoreLabel returns the unit of the source-native raw score.
func (s Source) ScoreLabel() string {
	switch s {
	case SourceHatena:
		return "bookmarks"
	case SourceHackerNews:
		return "points"
	case SourceReddit:
		return "upvotes"
	}

	return "score"
}

// Item is one normalized content record from any source.
// URL uniquely identifies an Item within a run; duplicate URLs across
// sources collapse into one Item with the union of source tags.
type Item struct {
	Source          Source
	AlsoSeenOn      []Source // other sources carrying the same URL
	Title           string
	URL             string
	RawScore        uint
	NormalizedScore float64 // in [0,1], comparable across sources
	CommentCount    uint
	FetchedAt       time.Time
}

// TopicCluster is a named group of Items sharing a theme.
// MemberURLs keeps insertion order, which is ranked order.
type TopicCluster struct {
	Label      string
	MemberURLs []string
	// Summary is the multi-item synopsis for the cluster, empty when the
	// cluster only carries per-item lines.
	Summary string
	// ItemSummaries maps member URL to its 1-2 sentence summary.
	ItemSummaries map[string]string
	// Members carries the full Item records in MemberURLs order.
	Members []Item
	// Highlight marks the fixed always-first cluster.
	Highlight bool
}

// AggregateScore sums the normalized scores of all members.
func (c *TopicCluster) AggregateScore() float64 {
	var sum float64
	for _, it := range c.Members {
		sum += it.NormalizedScore
	}

	return sum
}

// Digest is the complete, ordered output for one calendar date.
// It is never mutated after assembly.
type Digest struct {
	RunID          string
	Date           time.Time // calendar date in the publication timezone
	Clusters       []TopicCluster
	TotalWordCount int
	GeneratedAt    time.Time
}

// ItemCount returns the number of items across all clusters.
func (d *Digest) ItemCount() int {
	var n int
	for i := range d.Clusters {
		n += len(d.Clusters[i].MemberURLs)
	}

	return n
}

// ArchiveEntry is the metadata projection of a persisted Digest.
type ArchiveEntry struct {
	Date      time.Time `json:"date"`
	ItemCount int       `json:"item_count"`
	Labels    []string  `json:"labels"`
	Path      string    `json:"path"`
}

// Diagnostics accumulates per-run observability counters. Per-item and
// per-line failures are absorbed into these counters, never abort the run.
type Diagnostics struct {
	RunID            string
	FetchedRecords   int
	MalformedRecords int
	DuplicateURLs    int
	ItemsRanked      int
	ItemsSelected    int
	ItemsDropped     int // dropped by the budget allocator
	UnresolvedLines  int // summarizer lines referencing unknown URLs
	SummarizeRetries int
	FallbackUsed     bool
	BudgetExceeded   bool
	SweptEntries     int
}
