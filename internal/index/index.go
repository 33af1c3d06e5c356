package index

import (
	"context"

	"github.com/askdocs/askdocs/internal/document"
)

// Hit is one ranked result from the full-text index. Content is the full
// indexed text, not an excerpt: excerpting happens later, once the best
// window has been found against the complete document.
type Hit struct {
	ID       string
	Content  string
	Filename string
}

// Index is the optional full-text index over document content. It is a soft
// dependency: callers must treat any error (and an absent implementation) as
// "no index results" and degrade to the lexical fallback, never surface it.
type Index interface {
	// Search returns up to limit hits matching both the owner and the query.
	Search(ctx context.Context, userID, query string, limit int) ([]Hit, error)
	// Add indexes a document so it is immediately searchable.
	Add(ctx context.Context, doc *document.Document) error
	// Remove drops one document from the index.
	Remove(ctx context.Context, id string) error
	// RemoveOwner drops every document the owner has.
	RemoveOwner(ctx context.Context, userID string) error
}
