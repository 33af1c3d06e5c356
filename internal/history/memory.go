package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository used in unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	seq   int
	store map[string]*Record // keyed by userID + "\x00" + query
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Record)}
}

func key(userID, query string) string { return userID + "\x00" + query }

func (m *MemoryRepo) Upsert(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.DocumentIDs == nil {
		rec.DocumentIDs = []string{}
	}
	k := key(rec.UserID, rec.Query)
	if prev, ok := m.store[k]; ok {
		rec.ID = prev.ID
	} else {
		m.seq++
		rec.ID = fmt.Sprintf("rec_%d", m.seq)
	}
	cp := *rec
	m.store[k] = &cp
	return nil
}

func (m *MemoryRepo) Recent(_ context.Context, userID string, limit int) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Record{}
	for _, r := range m.store {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) DeleteByQuery(_ context.Context, userID, query string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[key(userID, query)]; !ok {
		return 0, nil
	}
	delete(m.store, key(userID, query))
	return 1, nil
}

func (m *MemoryRepo) DeleteAllByOwner(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.store {
		if r.UserID == userID {
			delete(m.store, k)
			n++
		}
	}
	return n, nil
}
