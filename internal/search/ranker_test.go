package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/document"
)

func doc(id, content string, uploaded time.Time) *document.Document {
	return &document.Document{ID: id, OriginalName: id + ".txt", Content: content, UploadDate: uploaded}
}

func TestRank_OrdersByOccurrenceCount(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	docs := []*document.Document{
		doc("three", "database database database", old),
		doc("seven", "database database database database database database database", old),
		doc("none", "nothing relevant here", old),
	}

	ranked := Rank(docs, "database", now)
	require.Len(t, ranked, 2)
	assert.Equal(t, "seven", ranked[0].Doc.ID)
	assert.Equal(t, 7, ranked[0].Score)
	assert.Equal(t, "three", ranked[1].Doc.ID)
	assert.Equal(t, 3, ranked[1].Score)
}

func TestRank_RecencyDoublesScore(t *testing.T) {
	now := time.Now()
	docs := []*document.Document{
		doc("old", "kafka kafka kafka", now.Add(-25*time.Hour)),
		doc("fresh", "kafka kafka", now.Add(-1*time.Hour)),
	}

	ranked := Rank(docs, "kafka", now)
	require.Len(t, ranked, 2)
	// 2 occurrences doubled beats 3 undoubled
	assert.Equal(t, "fresh", ranked[0].Doc.ID)
	assert.Equal(t, 4, ranked[0].Score)
	assert.Equal(t, 3, ranked[1].Score)
}

func TestRank_ShortWordsCarryNoSignal(t *testing.T) {
	docs := []*document.Document{doc("a", "it is an ok day", time.Now())}
	assert.Nil(t, Rank(docs, "it is an ok", time.Now()))
}

func TestRank_TopThreeOnly(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	docs := []*document.Document{
		doc("d1", "term", old),
		doc("d2", "term term", old),
		doc("d3", "term term term", old),
		doc("d4", "term term term term", old),
	}
	ranked := Rank(docs, "term", now)
	require.Len(t, ranked, 3)
	assert.Equal(t, "d4", ranked[0].Doc.ID)
	assert.Equal(t, "d3", ranked[1].Doc.ID)
	assert.Equal(t, "d2", ranked[2].Doc.ID)
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	docs := []*document.Document{
		doc("first", "redis redis", old),
		doc("second", "redis redis", old),
	}
	ranked := Rank(docs, "redis", now)
	require.Len(t, ranked, 2)
	assert.Equal(t, "first", ranked[0].Doc.ID)
	assert.Equal(t, "second", ranked[1].Doc.ID)
}

func TestRank_EmptyContentSkipped(t *testing.T) {
	docs := []*document.Document{doc("empty", "", time.Now())}
	assert.Empty(t, Rank(docs, "anything", time.Now()))
}

func TestRank_CaseInsensitive(t *testing.T) {
	now := time.Now()
	docs := []*document.Document{doc("d", "Docker DOCKER docker", now.Add(-48*time.Hour))}
	ranked := Rank(docs, "Docker", now)
	require.Len(t, ranked, 1)
	assert.Equal(t, 3, ranked[0].Score)
}
