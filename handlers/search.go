package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/search"
	"github.com/askdocs/askdocs/pkg/logger"
	"github.com/askdocs/askdocs/pkg/middleware"
)

// recentSearchLimit caps the history listing.
const recentSearchLimit = 10

// SearchRequest is one question against the caller's documents.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchHandler holds dependencies
type SearchHandler struct {
	composer *search.Composer
	records  history.Repository
	hasIndex bool
	hasModel bool
}

func NewSearchHandler(composer *search.Composer, records history.Repository, hasIndex, hasModel bool) *SearchHandler {
	return &SearchHandler{composer: composer, records: records, hasIndex: hasIndex, hasModel: hasModel}
}

// Register routes under /api/search. All routes require authentication.
func (h *SearchHandler) Register(rg *gin.RouterGroup, authmw gin.HandlerFunc) {
	s := rg.Group("/api/search", authmw)
	s.POST("/query", h.Query)
	s.GET("/recent", h.Recent)
	s.GET("/status", h.Status)
	s.DELETE("/recent/:query", h.DeleteRecent)
}

// Query answers one question. Every non-error outcome carries a response
// string; the composer decides between grounded, general, and fallback paths.
func (h *SearchHandler) Query(c *gin.Context) {
	userID := middleware.UserID(c)

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.composer.Answer(c.Request.Context(), userID, req.Query)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}
		logger.Errorf("search: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recent lists the owner's latest answered queries, newest first.
func (h *SearchHandler) Recent(c *gin.Context) {
	userID := middleware.UserID(c)
	records, err := h.records.Recent(c.Request.Context(), userID, recentSearchLimit)
	if err != nil {
		logger.Errorf("search: recent failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load search history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"searches": records})
}

// DeleteRecent removes every record matching the exact query text. The query
// arrives URL-encoded in the path.
func (h *SearchHandler) DeleteRecent(c *gin.Context) {
	userID := middleware.UserID(c)
	query, err := url.PathUnescape(c.Param("query"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameter"})
		return
	}
	deleted, err := h.records.DeleteByQuery(c.Request.Context(), userID, query)
	if err != nil {
		logger.Errorf("search: history delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete search history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Search history deleted", "deleted": deleted})
}

// Status reports which optional retrieval services are live so clients can
// explain degraded answers.
func (h *SearchHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"elasticsearch": h.hasIndex,
		"aiModel":       h.hasModel,
	})
}
