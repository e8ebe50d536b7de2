package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"doclib/internal/model"
	"doclib/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock returns successive instants one second apart.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func seed(t *testing.T, repo *DocumentMemory, titles ...string) []*model.Document {
	t.Helper()
	out := make([]*model.Document, 0, len(titles))
	for i, title := range titles {
		doc, err := repo.Create(context.Background(), &model.Document{
			ID:       uuid.NewString(),
			Title:    title,
			FileName: fmt.Sprintf("doc-%02d.pdf", i),
		})
		require.NoError(t, err)
		out = append(out, doc)
	}
	return out
}

func TestDocumentMemory_CreateDuplicate(t *testing.T) {
	repo := NewDocumentMemory()
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.Document{ID: uuid.NewString(), Title: "a", FileName: "a.pdf"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &model.Document{ID: uuid.NewString(), Title: "b", FileName: "a.pdf"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestDocumentMemory_SearchGuide(t *testing.T) {
	repo := NewDocumentMemory(WithClock(tickingClock()))
	ctx := context.Background()

	titles := []string{
		"Field Guide", "Cookbook", "Go Guide", "Atlas", "guide to SQL", "Poems",
		"Travel GUIDE", "Manual", "Guidebook", "Almanac", "Style guide", "Guide, 2nd ed",
	}
	docs := seed(t, repo, titles...)

	var want []string
	for _, d := range docs {
		if containsFold(d.Title, "guide") {
			want = append(want, d.ID)
		}
	}
	require.Len(t, want, 7)

	first, err := repo.Search(ctx, repository.SearchFilter{Title: "guide"}, repository.PageQuery{Limit: 5, Offset: 0})
	require.NoError(t, err)
	second, err := repo.Search(ctx, repository.SearchFilter{Title: "guide"}, repository.PageQuery{Limit: 5, Offset: 5})
	require.NoError(t, err)

	assert.Equal(t, int64(7), first.Total)
	assert.Equal(t, int64(7), second.Total)
	assert.Len(t, first.Items, 5)
	assert.Len(t, second.Items, 2)

	var got []string
	for _, it := range append(first.Items, second.Items...) {
		got = append(got, it.ID)
	}
	assert.Equal(t, want, got)
}

func TestDocumentMemory_PaginationConsistency(t *testing.T) {
	repo := NewDocumentMemory(WithClock(tickingClock()))
	ctx := context.Background()

	titles := make([]string, 23)
	for i := range titles {
		titles[i] = fmt.Sprintf("doc %d", i)
	}
	seed(t, repo, titles...)

	for _, size := range []int{1, 4, 5, 10, 23, 50} {
		seen := map[string]bool{}
		var total int64
		for page := 1; ; page++ {
			res, err := repo.List(ctx, repository.PageQuery{Limit: size, Offset: size * (page - 1)})
			require.NoError(t, err)
			total = res.Total
			if len(res.Items) == 0 {
				break
			}
			for _, it := range res.Items {
				assert.False(t, seen[it.ID], "document %s returned twice", it.ID)
				seen[it.ID] = true
			}
		}
		assert.Equal(t, int64(23), total)
		assert.Len(t, seen, 23, "page size %d", size)
	}
}

func TestDocumentMemory_UpdateTags(t *testing.T) {
	repo := NewDocumentMemory()
	ctx := context.Background()
	docs := seed(t, repo, "one", "two")

	t.Run("idempotent reconciliation", func(t *testing.T) {
		first, err := repo.Update(ctx, docs[0].ID, model.DocumentUpdate{Tags: []string{"b", "a", "b"}})
		require.NoError(t, err)
		second, err := repo.Update(ctx, docs[0].ID, model.DocumentUpdate{Tags: []string{"b", "a", "b"}})
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, first.Tags)
		assert.Equal(t, first.Tags, second.Tags)
		assert.Equal(t, 2, repo.TagCount())
	})

	t.Run("tags are shared between documents", func(t *testing.T) {
		_, err := repo.Update(ctx, docs[1].ID, model.DocumentUpdate{Tags: []string{"a", "c"}})
		require.NoError(t, err)
		assert.Equal(t, 3, repo.TagCount())
	})

	t.Run("nil keeps, empty clears", func(t *testing.T) {
		title := "renamed"
		doc, err := repo.Update(ctx, docs[0].ID, model.DocumentUpdate{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, doc.Tags)
		assert.Equal(t, "renamed", doc.Title)

		doc, err = repo.Update(ctx, docs[0].ID, model.DocumentUpdate{Tags: []string{}})
		require.NoError(t, err)
		assert.Empty(t, doc.Tags)
		// unused tags stay behind
		assert.Equal(t, 3, repo.TagCount())
	})

	t.Run("search by tag", func(t *testing.T) {
		res, err := repo.Search(ctx, repository.SearchFilter{Tag: "C"}, repository.PageQuery{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
		assert.Equal(t, docs[1].ID, res.Items[0].ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Update(ctx, uuid.NewString(), model.DocumentUpdate{Tags: []string{"x"}})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDocumentMemory_ConcurrentTagUpdates(t *testing.T) {
	repo := NewDocumentMemory()
	ctx := context.Background()
	doc := seed(t, repo, "a")[0]

	sets := [][]string{{"a", "b"}, {"c", "d"}}
	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for _, tags := range sets {
			wg.Add(1)
			go func(tags []string) {
				defer wg.Done()
				_, err := repo.Update(ctx, doc.ID, model.DocumentUpdate{Tags: tags})
				assert.NoError(t, err)
			}(tags)
		}
		wg.Wait()

		got, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Contains(t, sets, got.Tags, "round %d", round)
	}
	assert.Equal(t, 4, repo.TagCount())
}

func TestDocumentMemory_ConcurrentDelete(t *testing.T) {
	repo := NewDocumentMemory()
	ctx := context.Background()
	doc := seed(t, repo, "contended")[0]

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Delete(ctx, doc.ID)
		}(i)
	}
	wg.Wait()

	var ok, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, repository.ErrNotFound):
			notFound++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notFound)

	_, err := repo.FindByID(ctx, doc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDocumentMemory_Touch(t *testing.T) {
	repo := NewDocumentMemory()
	ctx := context.Background()
	doc := seed(t, repo, "read me")[0]
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Touch(ctx, doc.ID, at))
	got, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAccessed)
	assert.Equal(t, at, *got.LastAccessed)

	assert.ErrorIs(t, repo.Touch(ctx, "nope", at), repository.ErrNotFound)
}
