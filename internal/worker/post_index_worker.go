package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/cache"
	"github.com/spec-kit/docs-hub/internal/events"
	"github.com/spec-kit/docs-hub/internal/search"
)

// PostIndexWorker keeps the read cache and the search index in step with post writes.
type PostIndexWorker struct {
	cache  *cache.PostCache
	index  search.PostIndex
	logger *zap.Logger
}

// StartPostIndexWorker registers the worker on dispatcher. Either cache or index may
// be nil.
func StartPostIndexWorker(dispatcher events.Dispatcher, postCache *cache.PostCache, index search.PostIndex, logger *zap.Logger) *PostIndexWorker {
	w := &PostIndexWorker{cache: postCache, index: index, logger: logger}
	if dispatcher == nil {
		return w
	}
	dispatcher.Subscribe(events.EventPostCreated, w.handleCreated)
	dispatcher.Subscribe(events.EventPostUpdated, w.handleUpdated)
	dispatcher.Subscribe(events.EventPostDeleted, w.handleDeleted)
	return w
}

func (w *PostIndexWorker) handleCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PostCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	cacheErr := w.cache.Invalidate(ctx, payload.Post.Slug)
	if w.index != nil {
		if err := w.index.Index(ctx, payload.Post); err != nil {
			return err
		}
	}
	return cacheErr
}

func (w *PostIndexWorker) handleUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PostUpdatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	cacheErr := w.cache.Invalidate(ctx, payload.PreviousSlug, payload.Post.Slug)
	if w.index != nil {
		if err := w.index.Index(ctx, payload.Post); err != nil {
			return err
		}
	}
	return cacheErr
}

func (w *PostIndexWorker) handleDeleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PostDeletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	cacheErr := w.cache.Invalidate(ctx, payload.Slug)
	if w.index != nil {
		if err := w.index.Delete(ctx, event.PostID); err != nil {
			return err
		}
	}
	w.logger.Debug("post removed from read paths", zap.String("post_id", event.PostID))
	return cacheErr
}
