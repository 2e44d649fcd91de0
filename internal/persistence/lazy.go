package persistence

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// lazyHandle establishes a shared resource on first use. Concurrent callers share a
// single attempt and a failed attempt is not remembered, so the next caller retries.
type lazyHandle[T any] struct {
	connect func(ctx context.Context) (T, error)

	group singleflight.Group
	mu    sync.RWMutex
	value T
	ready bool
}

func newLazyHandle[T any](connect func(ctx context.Context) (T, error)) *lazyHandle[T] {
	return &lazyHandle[T]{connect: connect}
}

// get returns the established value. The shared attempt runs detached from the
// caller's cancellation so one abandoned request cannot fail every waiter; each caller
// still stops waiting when its own ctx is done.
func (h *lazyHandle[T]) get(ctx context.Context) (T, error) {
	if v, ok := h.peek(); ok {
		return v, nil
	}

	ch := h.group.DoChan("connect", func() (any, error) {
		if v, ok := h.peek(); ok {
			return v, nil
		}
		v, err := h.connect(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.value, h.ready = v, true
		h.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (h *lazyHandle[T]) peek() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value, h.ready
}

// reset forgets the established value and returns it so the caller can release it.
func (h *lazyHandle[T]) reset() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.value, h.ready
	var zero T
	h.value, h.ready = zero, false
	return v, ok
}
