package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepo_UpsertOverwritesSameQuery(t *testing.T) {
	m := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u1", Query: "q", Response: "first"}))
	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u1", Query: "q", Response: "second"}))

	recent, err := m.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "second", recent[0].Response)
}

func TestMemoryRepo_RecentNewestFirstWithLimit(t *testing.T) {
	m := NewMemoryRepo()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, q := range []string{"one", "two", "three"} {
		require.NoError(t, m.Upsert(ctx, &Record{
			UserID:    "u1",
			Query:     q,
			Response:  "r",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := m.Recent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Query)
	assert.Equal(t, "two", recent[1].Query)
}

func TestMemoryRepo_OwnerScoping(t *testing.T) {
	m := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, &Record{UserID: "alice", Query: "q", Response: "a"}))
	require.NoError(t, m.Upsert(ctx, &Record{UserID: "bob", Query: "q", Response: "b"}))

	recent, err := m.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a", recent[0].Response)
}

func TestMemoryRepo_DeleteByQuery(t *testing.T) {
	m := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u1", Query: "keep", Response: "r"}))
	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u1", Query: "drop", Response: "r"}))

	n, err := m.DeleteByQuery(ctx, "u1", "drop")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// exact-match only
	n, err = m.DeleteByQuery(ctx, "u1", "kee")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	recent, err := m.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "keep", recent[0].Query)
}

func TestMemoryRepo_DeleteAllByOwner(t *testing.T) {
	m := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u1", Query: "a", Response: "r"}))
	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u1", Query: "b", Response: "r"}))
	require.NoError(t, m.Upsert(ctx, &Record{UserID: "u2", Query: "a", Response: "r"}))

	n, err := m.DeleteAllByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := m.Recent(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
