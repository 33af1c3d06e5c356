package repository

import (
	"context"
	"errors"
	"time"

	"github.com/askdocs/askdocs/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Repository provides persistence operations for documents. All reads are
// scoped to an owner: a user can never see another user's documents.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	// ListByOwner returns the owner's documents ordered by upload date descending.
	ListByOwner(ctx context.Context, userID string) ([]*document.Document, error)
	// FindByOwnerNameSince returns a document with the given original name
	// uploaded at or after the cutoff, or nil when none exists.
	FindByOwnerNameSince(ctx context.Context, userID, originalName string, since time.Time) (*document.Document, error)
	// Delete removes one document and returns it, or ErrNotFound.
	Delete(ctx context.Context, userID, id string) (*document.Document, error)
	// DeleteAllByOwner removes every document the owner has and reports how many.
	DeleteAllByOwner(ctx context.Context, userID string) (int64, error)
}
