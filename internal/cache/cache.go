// Package cache holds document metadata read-through caches.
package cache

import (
	"context"

	"doclib/internal/model"
)

// DocumentCache caches full document metadata by id.
//
// Every id carries a generation that Invalidate advances. Get returns the
// generation it observed (and (nil, gen, nil) on a miss); Set stores the
// document only while that generation is still current, so a read that raced
// with an update or delete cannot put the old row back.
type DocumentCache interface {
	Get(ctx context.Context, id string) (*model.Document, uint64, error)
	Set(ctx context.Context, doc *model.Document, gen uint64) error
	Invalidate(ctx context.Context, id string) error
}

// Noop never stores anything. It is used when no Redis address is configured.
type Noop struct{}

var _ DocumentCache = Noop{}

func (Noop) Get(context.Context, string) (*model.Document, uint64, error) { return nil, 0, nil }
func (Noop) Set(context.Context, *model.Document, uint64) error           { return nil }
func (Noop) Invalidate(context.Context, string) error                     { return nil }
