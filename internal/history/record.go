package history

import (
	"context"
	"time"
)

// Record is the persisted outcome of one answered query. At most one record
// exists per (owner, exact query text): asking the same question again
// overwrites the previous answer instead of duplicating it.
type Record struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	UserID      string    `json:"userId" bson:"userId"`
	Query       string    `json:"query" bson:"query"`
	Response    string    `json:"response" bson:"response"`
	DocumentIDs []string  `json:"documentIds" bson:"documentIds"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// Repository provides persistence for search records.
type Repository interface {
	// Upsert stores the record, replacing any prior record with the same
	// owner and exact query text.
	Upsert(ctx context.Context, rec *Record) error
	// Recent returns the owner's most recent records, newest first, at most
	// limit. Queries are distinct by construction of Upsert.
	Recent(ctx context.Context, userID string, limit int) ([]*Record, error)
	// DeleteByQuery removes all records matching the exact query text.
	DeleteByQuery(ctx context.Context, userID, query string) (int64, error)
	// DeleteAllByOwner removes the owner's entire history.
	DeleteAllByOwner(ctx context.Context, userID string) (int64, error)
}
