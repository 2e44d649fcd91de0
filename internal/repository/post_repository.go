package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/docs-hub/internal/domain"
)

var (
	// ErrNotFound is returned when no post matches the lookup.
	ErrNotFound = errors.New("post not found")
	// ErrSlugTaken is returned when a write would duplicate an existing slug.
	ErrSlugTaken = errors.New("slug already exists")
)

// PostRepository encapsulates post persistence. Implementations enforce slug uniqueness
// at the storage level and report violations as ErrSlugTaken.
type PostRepository interface {
	ListPublished(ctx context.Context) ([]domain.Post, error)
	ListAll(ctx context.Context) ([]domain.Post, error)
	GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*domain.Post, error)
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, post *domain.Post) error
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string) ([]domain.Post, error)
}
