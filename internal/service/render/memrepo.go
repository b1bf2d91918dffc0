package render

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/chess-gif/internal/domain"
)

// memrepo keeps the history in memory when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID      int64
	renders     []*domain.RenderRecord
	byRequestID map[string]*domain.RenderRecord
}

func NewMemoryRepository() Repository {
	return &memrepo{byRequestID: make(map[string]*domain.RenderRecord)}
}

func (m *memrepo) InsertRender(ctx context.Context, rec *domain.RenderRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateRender
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byRequestID[rec.RequestID]; exists {
		return 0, ErrDuplicateRender
	}
	m.nextID++
	copy := *rec
	copy.ID = m.nextID
	m.renders = append(m.renders, &copy)
	m.byRequestID[rec.RequestID] = &copy
	return copy.ID, nil
}

func (m *memrepo) RecentRenders(ctx context.Context, limit int) ([]*domain.RenderRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	list := make([]*domain.RenderRecord, len(m.renders))
	for i, r := range m.renders {
		c := *r
		list[i] = &c
	}
	m.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memrepo) GetRender(ctx context.Context, requestID string) (*domain.RenderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byRequestID[requestID]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}
