package cluster

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// parsedCluster is one category section as returned by the summarizer,
// before membership bookkeeping.
type parsedCluster struct {
	label     string
	synopsis  string
	summaries map[string]string // URL -> per-item summary line
	urls      []string          // response order
}

var (
	headerRegex = regexp.MustCompile(`^#{2,3}\s+(.+)$`)
	bulletRegex = regexp.MustCompile(`^[-*]\s+\[(.+?)\]\((\S+?)\)\s*$`)
)

// ParseResponse reads the structured text back into cluster sections.
// Bullet lines referencing a URL outside known are dropped and counted;
// they never fabricate an Item. Sections whose label collides after
// case/whitespace folding are merged into the first occurrence.
func ParseResponse(text string, known map[string]bool) ([]parsedCluster, int) {
	var (
		clusters   []parsedCluster
		current    *parsedCluster
		unresolved int
	)

	byLabel := make(map[string]int)

	flush := func() {
		if current == nil {
			return
		}

		key := labelKey(current.label)
		if idx, seen := byLabel[key]; seen {
			merge(&clusters[idx], current)
		} else {
			byLabel[key] = len(clusters)
			clusters = append(clusters, *current)
		}

		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := headerRegex.FindStringSubmatch(line); m != nil {
			flush()

			current = &parsedCluster{
				label:     strings.TrimSpace(m[1]),
				summaries: make(map[string]string),
			}

			continue
		}

		if current == nil {
			// Preamble before the first category header.
			continue
		}

		if m := bulletRegex.FindStringSubmatch(line); m != nil {
			summary, url := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])

			if !known[url] {
				unresolved++

				continue
			}

			if _, dup := current.summaries[url]; !dup {
				current.urls = append(current.urls, url)
			}

			current.summaries[url] = summary

			continue
		}

		// Plain text under a header is the category synopsis.
		if current.synopsis == "" {
			current.synopsis = line
		} else {
			current.synopsis += "\n" + line
		}
	}

	flush()

	return clusters, unresolved
}

func merge(dst, src *parsedCluster) {
	for _, url := range src.urls {
		if _, dup := dst.summaries[url]; !dup {
			dst.urls = append(dst.urls, url)
		}

		dst.summaries[url] = src.summaries[url]
	}

	if dst.synopsis == "" {
		dst.synopsis = src.synopsis
	}
}

var labelCaser = cases.Fold()

// labelKey folds case and internal whitespace so "AI 開発" and "ai　開発"
// collapse to one category.
func labelKey(label string) string {
	fields := strings.Fields(labelCaser.String(label))

	return strings.Join(fields, " ")
}
