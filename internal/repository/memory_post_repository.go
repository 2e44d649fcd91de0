package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/docs-hub/internal/domain"
)

type memoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]domain.Post
	order []string
}

// NewMemoryPostRepository returns a process-local implementation for development and tests.
func NewMemoryPostRepository(seed ...domain.Post) PostRepository {
	r := &memoryPostRepository{posts: make(map[string]domain.Post)}
	for _, post := range seed {
		if post.ID == "" {
			post.ID = uuid.NewString()
		}
		r.posts[post.ID] = post
		r.order = append(r.order, post.ID)
	}
	return r
}

func (r *memoryPostRepository) ListPublished(_ context.Context) ([]domain.Post, error) {
	return r.list(func(p domain.Post) bool { return p.Published }), nil
}

func (r *memoryPostRepository) ListAll(_ context.Context) ([]domain.Post, error) {
	return r.list(func(domain.Post) bool { return true }), nil
}

func (r *memoryPostRepository) GetBySlug(_ context.Context, slug string, includeUnpublished bool) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		post := r.posts[id]
		if post.Slug == slug && (includeUnpublished || post.Published) {
			return &post, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryPostRepository) GetByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &post, nil
}

func (r *memoryPostRepository) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slugTaken(slug, excludeID), nil
}

func (r *memoryPostRepository) Create(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(post.Slug, "") {
		return ErrSlugTaken
	}
	post.ID = uuid.NewString()
	r.posts[post.ID] = *post
	r.order = append(r.order, post.ID)
	return nil
}

func (r *memoryPostRepository) Update(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	if r.slugTaken(post.Slug, post.ID) {
		return ErrSlugTaken
	}
	post.CreatedAt = existing.CreatedAt
	r.posts[post.ID] = *post
	return nil
}

func (r *memoryPostRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return false, nil
	}
	delete(r.posts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *memoryPostRepository) Search(_ context.Context, query string) ([]domain.Post, error) {
	needle := strings.ToLower(query)
	return r.list(func(p domain.Post) bool {
		if !p.Published {
			return false
		}
		return strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Content), needle) ||
			strings.Contains(strings.ToLower(p.Excerpt), needle)
	}), nil
}

// slugTaken must be called with the lock held.
func (r *memoryPostRepository) slugTaken(slug, excludeID string) bool {
	for id, post := range r.posts {
		if post.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (r *memoryPostRepository) list(keep func(domain.Post) bool) []domain.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Post, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if post := r.posts[r.order[i]]; keep(post) {
			result = append(result, post)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
