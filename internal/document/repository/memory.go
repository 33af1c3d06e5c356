package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/askdocs/askdocs/internal/document"
)

// MemoryRepo is a simple in-memory repository used in unit tests and as a
// stand-in when MongoDB is not configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	seq   int
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(_ context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		m.seq++
		doc.ID = fmt.Sprintf("doc_%d", m.seq)
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	cp := *doc
	m.store[doc.ID] = &cp
	return doc.ID, nil
}

func (m *MemoryRepo) ListByOwner(_ context.Context, userID string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

func (m *MemoryRepo) FindByOwnerNameSince(_ context.Context, userID, originalName string, since time.Time) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.UserID == userID && d.OriginalName == originalName && !d.UploadDate.Before(since) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepo) Delete(_ context.Context, userID, id string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	delete(m.store, id)
	return d, nil
}

func (m *MemoryRepo) DeleteAllByOwner(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.store {
		if d.UserID == userID {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}
