package search

import (
	"sort"
	"strings"
	"time"

	"github.com/askdocs/askdocs/internal/document"
)

const (
	// fallback ranking returns at most this many documents
	maxRankedResults = 3
	// documents uploaded within this window get their score doubled
	recencyWindow = 24 * time.Hour
	// query tokens this short carry no ranking signal
	minRankWordLen = 3
)

// Ranked pairs a document with its lexical relevance score.
type Ranked struct {
	Doc   *document.Document
	Score int
}

// Rank scores documents by summed case-insensitive occurrence counts of the
// query's words (length > 2) and returns the top results, score descending.
// Ties keep the original document order. Documents scoring zero are dropped,
// so a query with no rankable words returns nothing. now is the evaluation
// time for the recency boost.
func Rank(docs []*document.Document, query string, now time.Time) []Ranked {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= minRankWordLen {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}

	ranked := make([]Ranked, 0, len(docs))
	for _, d := range docs {
		if d.Content == "" {
			continue
		}
		content := strings.ToLower(d.Content)
		score := 0
		for _, w := range words {
			score += strings.Count(content, w)
		}
		if score <= 0 {
			continue
		}
		if now.Sub(d.UploadDate) < recencyWindow {
			score *= 2
		}
		ranked = append(ranked, Ranked{Doc: d, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > maxRankedResults {
		ranked = ranked[:maxRankedResults]
	}
	return ranked
}
