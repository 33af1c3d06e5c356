package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askdocs/askdocs/internal/audit"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/document"
	"github.com/askdocs/askdocs/internal/document/repository"
	"github.com/askdocs/askdocs/internal/extract"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/index"
	"github.com/askdocs/askdocs/internal/search"
	"github.com/askdocs/askdocs/internal/storage"
	"github.com/askdocs/askdocs/internal/users"
	"github.com/askdocs/askdocs/pkg/logger"
	"github.com/askdocs/askdocs/pkg/middleware"
)

// DocumentsHandler holds dependencies. Index, storage, sink and users service
// are optional: absent ones degrade their feature without failing requests.
type DocumentsHandler struct {
	cfg      *config.Config
	docs     repository.Repository
	records  history.Repository
	usersSvc *users.Service
	idx      index.Index
	store    *storage.MinIOStorage
	composer *search.Composer
	sink     audit.Sink
}

func NewDocumentsHandler(cfg *config.Config, docs repository.Repository, records history.Repository, usersSvc *users.Service, idx index.Index, store *storage.MinIOStorage, composer *search.Composer, sink audit.Sink) *DocumentsHandler {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &DocumentsHandler{
		cfg:      cfg,
		docs:     docs,
		records:  records,
		usersSvc: usersSvc,
		idx:      idx,
		store:    store,
		composer: composer,
		sink:     sink,
	}
}

// Register routes under /api/documents. All routes require authentication.
func (h *DocumentsHandler) Register(rg *gin.RouterGroup, authmw gin.HandlerFunc) {
	d := rg.Group("/api/documents", authmw)
	d.POST("/upload", h.Upload)
	d.GET("/list", h.List)
	d.GET("/upload-status", h.UploadStatus)
	d.DELETE("/all", h.DeleteAll)
	d.DELETE("/:id", h.Delete)
}

// Upload accepts up to the configured number of files in one multipart
// request, extracts their text, stores them, and indexes them. When a
// "query" field accompanies the upload the query is answered against the
// freshly stored documents in the same request.
func (h *DocumentsHandler) Upload(c *gin.Context) {
	userID := middleware.UserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}
	if len(files) > h.cfg.Upload.MaxFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("too many files: maximum %d per upload", h.cfg.Upload.MaxFiles)})
		return
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stored := make([]*document.Document, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.cfg.Upload.MaxFileBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file %s exceeds the %d byte limit", fh.Filename, h.cfg.Upload.MaxFileBytes)})
			return
		}
		mimeType := fh.Header.Get("Content-Type")
		if !extract.Supported(mimeType, fh.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{"error": extract.SupportedTypesHint(mimeType)})
			return
		}

		// same-day duplicate by original name is skipped silently
		dup, err := h.docs.FindByOwnerNameSince(c.Request.Context(), userID, fh.Filename, startOfDay)
		if err != nil {
			logger.Errorf("documents: duplicate check failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		if dup != nil {
			logger.Infof("documents: skipping same-day duplicate %s for user %s", fh.Filename, userID)
			stored = append(stored, dup)
			continue
		}

		data, err := readAll(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read %s", fh.Filename)})
			return
		}

		content, err := extract.Text(data, mimeType, fh.Filename)
		if err != nil {
			// store without content rather than rejecting the file
			logger.Warnf("documents: extraction failed for %s: %v", fh.Filename, err)
			content = ""
		}

		doc := &document.Document{
			UserID:       userID,
			Filename:     fh.Filename,
			OriginalName: fh.Filename,
			FileType:     mimeType,
			Content:      content,
			UploadDate:   now,
		}
		id, err := h.docs.Create(c.Request.Context(), doc)
		if err != nil {
			logger.Errorf("documents: create failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		doc.ID = id

		if h.idx != nil {
			if err := h.idx.Add(c.Request.Context(), doc); err != nil {
				logger.Warnf("documents: indexing failed for %s: %v", doc.ID, err)
			}
		}
		if h.store != nil {
			key := storage.ObjectKey(userID, doc.ID, doc.OriginalName)
			if err := h.store.UploadFile(c.Request.Context(), key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
				logger.Warnf("documents: object store upload failed for %s: %v", key, err)
			}
		}
		stored = append(stored, doc)
	}

	h.sink.Publish(c.Request.Context(), audit.QueueSearch, audit.Event{
		Action: "upload",
		Data:   map[string]interface{}{"userId": userID, "count": len(stored)},
	})

	resp := gin.H{
		"message":   fmt.Sprintf("%d document(s) uploaded successfully", len(stored)),
		"documents": summarize(stored),
	}
	if query := form.Value["query"]; len(query) > 0 && query[0] != "" {
		result, err := h.composer.Answer(c.Request.Context(), userID, query[0])
		if err != nil && !errors.Is(err, search.ErrEmptyQuery) {
			logger.Errorf("documents: inline search failed: %v", err)
		}
		if result != nil {
			resp["searchResult"] = result
		}
	}
	c.JSON(http.StatusOK, resp)
}

// List returns the owner's documents, newest first, without content bodies.
func (h *DocumentsHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	docs, err := h.docs.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("documents: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": summarize(docs), "count": len(docs)})
}

// UploadStatus reports the remaining upload quota. Uploads are unlimited; the
// endpoint exists so clients can keep a single code path.
func (h *DocumentsHandler) UploadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uploadCount": 0,
		"remaining":   "unlimited",
		"limit":       "none",
	})
}

// Delete removes a single document and its index and object-store copies.
func (h *DocumentsHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	id := c.Param("id")

	doc, err := h.docs.Delete(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		logger.Errorf("documents: delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}
	if h.idx != nil {
		if err := h.idx.Remove(c.Request.Context(), id); err != nil {
			logger.Warnf("documents: index removal failed for %s: %v", id, err)
		}
	}
	if h.store != nil {
		key := storage.ObjectKey(userID, doc.ID, doc.OriginalName)
		if err := h.store.RemoveFile(c.Request.Context(), key); err != nil {
			logger.Warnf("documents: object removal failed for %s: %v", key, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// DeleteAll erases the owner's documents, search history, index entries, and
// resets the upload counter.
func (h *DocumentsHandler) DeleteAll(c *gin.Context) {
	userID := middleware.UserID(c)

	docsDeleted, err := h.docs.DeleteAllByOwner(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("documents: delete-all failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete documents"})
		return
	}
	recordsDeleted, err := h.records.DeleteAllByOwner(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("documents: history delete-all failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete search history"})
		return
	}
	if h.idx != nil {
		if err := h.idx.RemoveOwner(c.Request.Context(), userID); err != nil {
			logger.Warnf("documents: index owner removal failed: %v", err)
		}
	}
	if h.usersSvc != nil {
		if err := h.usersSvc.ResetUploadCount(c.Request.Context(), userID); err != nil {
			logger.Warnf("documents: upload count reset failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "All data deleted successfully",
		"documentsDeleted": docsDeleted,
		"searchesDeleted":  recordsDeleted,
	})
}

// summarize strips content bodies from list responses.
func summarize(docs []*document.Document) []gin.H {
	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{
			"id":           d.ID,
			"filename":     d.Filename,
			"originalName": d.OriginalName,
			"fileType":     d.FileType,
			"uploadDate":   d.UploadDate,
		})
	}
	return out
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
