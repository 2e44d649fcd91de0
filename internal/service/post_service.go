package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/cache"
	"github.com/spec-kit/docs-hub/internal/domain"
	"github.com/spec-kit/docs-hub/internal/events"
	"github.com/spec-kit/docs-hub/internal/repository"
	"github.com/spec-kit/docs-hub/internal/search"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

// PostService coordinates post workflows on top of a repository driver.
type PostService struct {
	posts      repository.PostRepository
	cache      *cache.PostCache
	index      search.PostIndex
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// PostDependencies bundles collaborators for the post service. Only PostRepo is required.
type PostDependencies struct {
	PostRepo   repository.PostRepository
	Cache      *cache.PostCache
	Index      search.PostIndex
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewPostService constructs the service.
func NewPostService(deps PostDependencies) *PostService {
	s := &PostService{
		posts:      deps.PostRepo,
		cache:      deps.Cache,
		index:      deps.Index,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ListPublished returns published posts, newest first.
func (s *PostService) ListPublished(ctx context.Context) ([]domain.Post, error) {
	if posts, ok := s.cache.GetPublished(ctx); ok {
		return posts, nil
	}
	posts, err := s.posts.ListPublished(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.cache.SetPublished(ctx, posts)
	return posts, nil
}

// ListAll returns every post regardless of state, newest first.
func (s *PostService) ListAll(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return posts, nil
}

// GetBySlug looks a post up by slug. Unpublished posts are only returned when
// includeUnpublished is set.
func (s *PostService) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*domain.Post, error) {
	if !includeUnpublished {
		if post, ok := s.cache.GetBySlug(ctx, slug); ok {
			return post, nil
		}
	}
	post, err := s.posts.GetBySlug(ctx, slug, includeUnpublished)
	if err != nil {
		return nil, translateRepoError(err, slug)
	}
	if !includeUnpublished {
		s.cache.SetBySlug(ctx, *post)
	}
	return post, nil
}

// GetByID looks a post up by its store identifier. Malformed ids are not found.
func (s *PostService) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "")
	}
	return post, nil
}

// Resolve finds the post an identifier refers to. Admins match a slug in any state
// and fall back to the id; everyone else only sees published posts by slug.
func (s *PostService) Resolve(ctx context.Context, identifier string, admin bool) (*domain.Post, error) {
	if !admin {
		return s.GetBySlug(ctx, identifier, false)
	}
	post, err := s.GetBySlug(ctx, identifier, true)
	if err == nil || !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return post, err
	}
	return s.GetByID(ctx, identifier)
}

// Create stores a new published post. actor is the admin email used for auditing.
func (s *PostService) Create(ctx context.Context, actor string, input domain.PostInput) (*domain.Post, error) {
	fields, err := preparePost(input)
	if err != nil {
		return nil, err
	}

	taken, err := s.posts.SlugExists(ctx, fields.slug, "")
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if taken {
		return nil, apperrors.NewSlugConflict(fields.slug, repository.ErrSlugTaken)
	}

	now := s.timestamp()
	post := &domain.Post{
		Title:     fields.title,
		Slug:      fields.slug,
		Content:   input.Content,
		Excerpt:   fields.excerpt,
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, translateRepoError(err, post.Slug)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventPostCreated,
		PostID:  post.ID,
		Actor:   events.Actor{Email: actor},
		Payload: events.PostCreatedPayload{Post: *post},
	})
	return post, nil
}

// Update replaces the editable fields of post id. On a slug conflict the stored post is
// left untouched.
func (s *PostService) Update(ctx context.Context, actor, id string, input domain.PostInput) (*domain.Post, error) {
	fields, err := preparePost(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "")
	}

	taken, err := s.posts.SlugExists(ctx, fields.slug, existing.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if taken {
		return nil, apperrors.NewSlugConflict(fields.slug, repository.ErrSlugTaken)
	}

	post := &domain.Post{
		ID:        existing.ID,
		Title:     fields.title,
		Slug:      fields.slug,
		Content:   input.Content,
		Excerpt:   fields.excerpt,
		Published: existing.Published,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: s.timestamp(),
	}
	if input.Published != nil {
		post.Published = *input.Published
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, translateRepoError(err, post.Slug)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventPostUpdated,
		PostID:  post.ID,
		Actor:   events.Actor{Email: actor},
		Payload: events.PostUpdatedPayload{Post: *post, PreviousSlug: existing.Slug},
	})
	return post, nil
}

// Delete removes post id and reports whether it existed.
func (s *PostService) Delete(ctx context.Context, actor, id string) (bool, error) {
	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.NewInternalError(err)
	}

	deleted, err := s.posts.Delete(ctx, existing.ID)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	if deleted {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventPostDeleted,
			PostID:  existing.ID,
			Actor:   events.Actor{Email: actor},
			Payload: events.PostDeletedPayload{Slug: existing.Slug},
		})
	}
	return deleted, nil
}

// Search matches query case-insensitively against title, content and excerpt of
// published posts, newest first. A blank query lists every published post.
func (s *PostService) Search(ctx context.Context, query string) ([]domain.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListPublished(ctx)
	}

	if s.index != nil {
		posts, err := s.searchIndex(ctx, query)
		if err == nil {
			return posts, nil
		}
		s.logger.Warn("search index unavailable; falling back to store", zap.Error(err))
	}

	posts, err := s.posts.Search(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) searchIndex(ctx context.Context, query string) ([]domain.Post, error) {
	ids, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		post, err := s.posts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if post.Published {
			posts = append(posts, *post)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// ReindexSearch rebuilds the search index from every stored post so posts written
// before the index existed become searchable. It is a no-op without an index.
func (s *PostService) ReindexSearch(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}
	if err := s.index.Reindex(ctx, posts); err != nil {
		return 0, err
	}
	return len(posts), nil
}

// timestamp is stored at millisecond precision, the finest every driver keeps.
func (s *PostService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *PostService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

type postFields struct {
	title   string
	slug    string
	excerpt string
}

func preparePost(input domain.PostInput) (postFields, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Content) == "" {
		return postFields{}, apperrors.NewValidationError("Title and content are required", nil)
	}
	if domain.TitleLength(title) > domain.MaxTitleLength {
		return postFields{}, apperrors.NewValidationError(
			fmt.Sprintf("Title cannot exceed %d characters", domain.MaxTitleLength),
			map[string]any{"field": "title"},
		)
	}

	slug := domain.NormalizeSlug(input.Slug)
	if slug == "" {
		slug = domain.DeriveSlug(title)
	}
	if slug == "" {
		return postFields{}, apperrors.NewValidationError(
			"Slug could not be derived from the title",
			map[string]any{"field": "slug"},
		)
	}
	if !domain.ValidSlug(slug) {
		return postFields{}, apperrors.NewValidationError(
			"Slug can only contain lowercase letters, numbers, and hyphens",
			map[string]any{"field": "slug", "slug": slug},
		)
	}
	if domain.ReservedSlug(slug) {
		return postFields{}, apperrors.NewValidationError(
			fmt.Sprintf("Slug %q is reserved", slug),
			map[string]any{"field": "slug", "slug": slug},
		)
	}

	return postFields{
		title:   title,
		slug:    slug,
		excerpt: domain.DeriveExcerpt(input.Content),
	}, nil
}

func translateRepoError(err error, slug string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("Post", nil)
	case errors.Is(err, repository.ErrSlugTaken):
		return apperrors.NewSlugConflict(slug, err)
	default:
		return apperrors.NewInternalError(err)
	}
}
