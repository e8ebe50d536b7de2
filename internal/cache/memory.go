package cache

import (
	"context"
	"sync"

	"doclib/internal/model"
)

// Memory is an in-process DocumentCache with the same generation rules as Redis.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*model.Document
	gens map[string]uint64
}

var _ DocumentCache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{docs: map[string]*model.Document{}, gens: map[string]uint64{}}
}

func (m *Memory) Get(_ context.Context, id string) (*model.Document, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id], m.gens[id], nil
}

func (m *Memory) Set(_ context.Context, doc *model.Document, gen uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[doc.ID] != gen {
		return nil
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *Memory) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[id]++
	delete(m.docs, id)
	return nil
}

// Generation reports how many times id has been invalidated.
func (m *Memory) Generation(id string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[id]
}
