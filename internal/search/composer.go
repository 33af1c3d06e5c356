package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/audit"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/pkg/logger"
	"github.com/askdocs/askdocs/pkg/metrics"
)

const (
	// context budget per document when building the grounded prompt
	perDocContextBudget = 5000
	// at most this many candidates feed the context block
	maxContextDocs = 3
	// output caps for the two request kinds
	groundedMaxTokens = 1000
	generalMaxTokens  = 500
	// low temperature keeps grounded answers close to the context
	groundedTemperature = 0.3
	// preview length when the model is unavailable or errors
	fallbackPreviewLen = 500

	generalSystemPrompt  = "You are a helpful AI assistant."
	groundedSystemPrompt = "You are a helpful AI assistant. Answer the question based ONLY on the provided document context. If the answer is not explicitly in the context, say \"I cannot find the answer in the provided documents.\" Do not hallucinate. Keep your answer concise. IMPORTANT: If the answer involves a table, chart, or structured data, you MUST format it as a valid Markdown table. If the user asks for an image, explain that you can only provide text and tables extracted from the documents."

	// FallbackNoDocuments is returned when nothing matches and no completion
	// service can answer from general knowledge.
	FallbackNoDocuments = "No documents found. Upload documents or add Groq API key."
)

// ErrEmptyQuery rejects blank queries before any retrieval work happens.
var ErrEmptyQuery = errors.New("query must not be empty")

// Result is the final answer plus the filenames it was grounded on.
type Result struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// outcome enumerates the composer's four branches so the asymmetric
// persistence rules stay explicit: only completion-success paths store a
// search record.
type outcome int

const (
	noDocsWithModel outcome = iota
	noDocsNoModel
	docsWithModel
	docsNoModel
)

// Composer turns a query into a final answer: it retrieves candidates,
// excerpts them into a context block, asks the completion service for a
// grounded (or general-knowledge) answer, and records the interaction.
type Composer struct {
	retriever *Retriever
	completer llm.Completer // nil when no model is configured
	records   history.Repository
	sink      audit.Sink
}

func NewComposer(retriever *Retriever, completer llm.Completer, records history.Repository, sink audit.Sink) *Composer {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Composer{retriever: retriever, completer: completer, records: records, sink: sink}
}

// Answer runs one full query. The caller always gets a textual response;
// an error is returned only for invalid input or a storage failure.
func (c *Composer) Answer(ctx context.Context, userID, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	candidates, err := c.retriever.Retrieve(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	switch c.classify(candidates) {
	case noDocsWithModel:
		return c.answerGeneral(ctx, userID, query)
	case noDocsNoModel:
		return &Result{Response: FallbackNoDocuments, Sources: []string{}}, nil
	case docsWithModel:
		return c.answerGrounded(ctx, userID, query, candidates)
	default: // docsNoModel
		return c.answerFromContextOnly(userID, query, candidates), nil
	}
}

func (c *Composer) classify(candidates []Candidate) outcome {
	switch {
	case len(candidates) == 0 && c.completer != nil:
		return noDocsWithModel
	case len(candidates) == 0:
		return noDocsNoModel
	case c.completer != nil:
		return docsWithModel
	default:
		return docsNoModel
	}
}

// answerGeneral handles "no matching documents, model configured": an
// ungrounded general-knowledge answer. A failing model degrades to the fixed
// fallback string without persisting anything.
func (c *Composer) answerGeneral(ctx context.Context, userID, query string) (*Result, error) {
	resp, err := c.completer.Complete(ctx, llm.Request{
		System:    generalSystemPrompt,
		User:      query,
		MaxTokens: generalMaxTokens,
	})
	if err != nil {
		logger.Errorf("composer: general completion failed: %v", err)
		metrics.CompletionRequests.WithLabelValues("error").Inc()
		return &Result{Response: FallbackNoDocuments, Sources: []string{}}, nil
	}
	metrics.CompletionRequests.WithLabelValues("success").Inc()

	if err := c.records.Upsert(ctx, &history.Record{
		UserID:      userID,
		Query:       query,
		Response:    resp,
		DocumentIDs: []string{},
	}); err != nil {
		return nil, fmt.Errorf("store search record: %w", err)
	}
	c.sink.Publish(ctx, audit.QueueSearch, audit.Event{
		Action: "search",
		Data:   map[string]interface{}{"userId": userID, "query": query, "type": "general"},
	})
	return &Result{Response: resp, Sources: []string{}}, nil
}

// answerGrounded handles "candidates found, model configured": a grounded
// answer constrained to the excerpted context. A failing model degrades to an
// error note plus a context preview, without persisting.
func (c *Composer) answerGrounded(ctx context.Context, userID, query string, candidates []Candidate) (*Result, error) {
	contextBlock := buildContext(candidates, query)
	logger.Debugf("composer: grounded context length=%d docs=%d", len(contextBlock), len(candidates))

	resp, err := c.completer.Complete(ctx, llm.Request{
		System:      groundedSystemPrompt,
		User:        fmt.Sprintf("Context from documents:\n%s\n\nQuestion: %s\n\nProvide a clear, specific answer based only on the context above.", contextBlock, query),
		MaxTokens:   groundedMaxTokens,
		Temperature: groundedTemperature,
	})
	if err != nil {
		logger.Errorf("composer: grounded completion failed: %v", err)
		metrics.CompletionRequests.WithLabelValues("error").Inc()
		return &Result{
			Response: fmt.Sprintf("I encountered an error processing your request with the AI model (%s). \n\nHowever, I found these relevant documents that might help:\n\n%s...", err.Error(), head(contextBlock, fallbackPreviewLen)),
			Sources:  sources(candidates),
		}, nil
	}
	metrics.CompletionRequests.WithLabelValues("success").Inc()

	if err := c.records.Upsert(ctx, &history.Record{
		UserID:      userID,
		Query:       query,
		Response:    resp,
		DocumentIDs: ids(candidates),
	}); err != nil {
		return nil, fmt.Errorf("store search record: %w", err)
	}
	c.sink.Publish(ctx, audit.QueueSearch, audit.Event{
		Action: "search",
		Data:   map[string]interface{}{"userId": userID, "query": query},
	})
	return &Result{Response: resp, Sources: sources(candidates)}, nil
}

// answerFromContextOnly handles "candidates found, no model": the context
// preview itself is the best available answer. Not persisted.
func (c *Composer) answerFromContextOnly(userID, query string, candidates []Candidate) *Result {
	contextBlock := buildContext(candidates, query)
	return &Result{
		Response: fmt.Sprintf("Based on your documents:\n\n%s...", head(contextBlock, fallbackPreviewLen)),
		Sources:  sources(candidates),
	}
}

// buildContext concatenates labeled excerpts of up to the first three
// candidates, each cut to the per-document budget around the query's best
// window.
func buildContext(candidates []Candidate, query string) string {
	n := min(len(candidates), maxContextDocs)
	parts := make([]string, 0, n)
	for _, cand := range candidates[:n] {
		parts = append(parts, fmt.Sprintf("File: %s\nContent: %s", cand.Filename, ExtractContext(cand.Content, query, perDocContextBudget)))
	}
	return strings.Join(parts, "\n\n")
}

func sources(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Filename)
	}
	return out
}

func ids(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ID)
	}
	return out
}
