// Package memory is an in-process implementation of repository.DocumentRepository.
// It backs DB_BACKEND=memory and the behavioural tests of the service layer.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"doclib/internal/model"
	"doclib/internal/repository"
	"doclib/internal/tagging"
)

// DocumentMemory keeps documents, tags and relations in maps guarded by one mutex,
// which makes every operation atomic the way a transaction would.
type DocumentMemory struct {
	mu        sync.RWMutex
	docs      map[string]*model.Document
	fileNames map[string]string
	tags      map[string]struct{}
	relations map[string][]string
	now       func() time.Time
}

// Option configures a DocumentMemory.
type Option func(*DocumentMemory)

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(m *DocumentMemory) { m.now = now }
}

// NewDocumentMemory creates an empty repository.
func NewDocumentMemory(opts ...Option) *DocumentMemory {
	m := &DocumentMemory{
		docs:      make(map[string]*model.Document),
		fileNames: make(map[string]string),
		tags:      make(map[string]struct{}),
		relations: make(map[string][]string),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func (m *DocumentMemory) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.fileNames[doc.FileName]; taken {
		return nil, repository.ErrDuplicate
	}
	stored := cloneDocument(doc)
	stored.CreatedAt = m.now()
	stored.LastAccessed = nil
	stored.Tags = nil
	m.docs[stored.ID] = stored
	m.fileNames[stored.FileName] = stored.ID
	return m.snapshot(stored.ID), nil
}

func (m *DocumentMemory) FindByID(_ context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.docs[id]; !ok {
		return nil, repository.ErrNotFound
	}
	return m.snapshot(id), nil
}

func (m *DocumentMemory) FileName(_ context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return d.FileName, nil
}

func (m *DocumentMemory) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	return m.Search(ctx, repository.SearchFilter{}, pq)
}

func (m *DocumentMemory) Search(_ context.Context, f repository.SearchFilter, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*model.Document, 0, len(m.docs))
	for id, d := range m.docs {
		if m.matches(id, d, f) {
			matched = append(matched, d)
		}
	}
	slices.SortFunc(matched, func(a, b *model.Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	items := []model.DocumentSummary{}
	if pq.Offset < len(matched) {
		end := min(pq.Offset+pq.Limit, len(matched))
		for _, d := range matched[pq.Offset:end] {
			items = append(items, d.Summary())
		}
	}
	return &repository.PageResult[model.DocumentSummary]{Items: items, Total: int64(len(matched))}, nil
}

func (m *DocumentMemory) matches(id string, d *model.Document, f repository.SearchFilter) bool {
	if f.Title != "" && !containsFold(d.Title, f.Title) {
		return false
	}
	if f.Author != "" && (d.Author == nil || !containsFold(*d.Author, f.Author)) {
		return false
	}
	if f.Tag != "" {
		return slices.ContainsFunc(m.relations[id], func(t string) bool { return containsFold(t, f.Tag) })
	}
	return true
}

func (m *DocumentMemory) Update(_ context.Context, id string, upd model.DocumentUpdate) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Title != nil {
		d.Title = *upd.Title
	}
	if upd.Author != nil {
		d.Author = ptr(*upd.Author)
	}
	if upd.Comments != nil {
		d.Comments = ptr(*upd.Comments)
	}
	if upd.Thumbnail != nil {
		d.Thumbnail = *upd.Thumbnail
	}
	if upd.Tags != nil {
		existing := make([]string, 0, len(upd.Tags))
		for _, t := range upd.Tags {
			if _, ok := m.tags[t]; ok {
				existing = append(existing, t)
			}
		}
		plan := tagging.NewPlan(upd.Tags, existing)
		for _, t := range plan.Create {
			m.tags[t] = struct{}{}
		}
		m.relations[id] = plan.Attach
	}
	return m.snapshot(id), nil
}

func (m *DocumentMemory) Delete(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(m.docs, id)
	delete(m.fileNames, d.FileName)
	delete(m.relations, id)
	return d.FileName, nil
}

func (m *DocumentMemory) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.LastAccessed = &at
	return nil
}

// PingContext always succeeds.
func (m *DocumentMemory) PingContext(context.Context) error { return nil }

// TagCount reports how many distinct tags exist. Tags are never removed.
func (m *DocumentMemory) TagCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tags)
}

// snapshot copies a stored document so callers cannot mutate repository state.
func (m *DocumentMemory) snapshot(id string) *model.Document {
	out := cloneDocument(m.docs[id])
	out.Tags = slices.Clone(m.relations[id])
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func cloneDocument(d *model.Document) *model.Document {
	out := *d
	if out.Author != nil {
		out.Author = ptr(*out.Author)
	}
	if out.Comments != nil {
		out.Comments = ptr(*out.Comments)
	}
	if out.PageCount != nil {
		out.PageCount = ptr(*out.PageCount)
	}
	if out.LastAccessed != nil {
		out.LastAccessed = ptr(*out.LastAccessed)
	}
	return &out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func ptr[T any](v T) *T { return &v }
