package search

import (
	"context"
	"time"

	"github.com/askdocs/askdocs/internal/document/repository"
	"github.com/askdocs/askdocs/internal/index"
	"github.com/askdocs/askdocs/pkg/logger"
	"github.com/askdocs/askdocs/pkg/metrics"
)

const (
	// index-backed retrieval returns up to this many hits
	maxIndexResults = 5
	// cap on one index round trip before falling back
	defaultIndexTimeout = 5 * time.Second
)

// Candidate is one retrieved document considered for answering: full content
// plus source metadata. Score is only set on the lexical fallback path.
type Candidate struct {
	ID       string
	Content  string
	Filename string
	Score    int
}

// Retriever finds the documents most relevant to a query. It prefers the
// full-text index and silently falls back to scanning the owner's documents
// with the lexical ranker when the index is absent, failing, or empty.
//
// Candidates carry full document content: excerpting is deferred to the
// answer composer, which needs the whole text to pick the best window.
type Retriever struct {
	index        index.Index // nil when not configured
	docs         repository.Repository
	indexTimeout time.Duration
}

func NewRetriever(idx index.Index, docs repository.Repository, indexTimeout time.Duration) *Retriever {
	if indexTimeout <= 0 {
		indexTimeout = defaultIndexTimeout
	}
	return &Retriever{index: idx, docs: docs, indexTimeout: indexTimeout}
}

// Retrieve returns relevant candidates for the owner's query, at most 5 from
// the index or 3 from the fallback ranker. An error is returned only when the
// document store itself fails; index trouble degrades silently.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string) ([]Candidate, error) {
	if r.index != nil {
		ictx, cancel := context.WithTimeout(ctx, r.indexTimeout)
		hits, err := r.index.Search(ictx, userID, query, maxIndexResults)
		cancel()
		if err != nil {
			logger.Warnf("retriever: index search failed, using fallback: %v", err)
		} else if len(hits) > 0 {
			out := make([]Candidate, 0, len(hits))
			for _, h := range hits {
				out = append(out, Candidate{ID: h.ID, Content: h.Content, Filename: h.Filename})
			}
			metrics.SearchesTotal.WithLabelValues("index").Inc()
			return out, nil
		}
	}

	docs, err := r.docs.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	ranked := Rank(docs, query, time.Now())
	if len(ranked) == 0 {
		metrics.SearchesTotal.WithLabelValues("none").Inc()
		return nil, nil
	}
	out := make([]Candidate, 0, len(ranked))
	for _, rk := range ranked {
		out = append(out, Candidate{
			ID:       rk.Doc.ID,
			Content:  rk.Doc.Content,
			Filename: rk.Doc.OriginalName,
			Score:    rk.Score,
		})
	}
	metrics.SearchesTotal.WithLabelValues("fallback").Inc()
	return out, nil
}
