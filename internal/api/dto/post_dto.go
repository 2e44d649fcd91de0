package dto

import (
	"time"

	"github.com/spec-kit/docs-hub/internal/domain"
)

// PostRequest is the create and update payload. Slug is optional and derived from the
// title when omitted; Published is only honoured on update.
type PostRequest struct {
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Slug      string `json:"slug" validate:"omitempty,slug"`
	Published *bool  `json:"published"`
}

// ToInput maps the payload to the service input.
func (r PostRequest) ToInput() domain.PostInput {
	return domain.PostInput{
		Title:     r.Title,
		Content:   r.Content,
		Slug:      r.Slug,
		Published: r.Published,
	}
}

// PostResponse is the full post representation.
type PostResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostSummary omits the content for public listings.
type PostSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Excerpt   string    `json:"excerpt"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPostResponse maps a domain post.
func NewPostResponse(post *domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Slug:      post.Slug,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// NewPostResponses maps a slice of posts.
func NewPostResponses(posts []domain.Post) []PostResponse {
	items := make([]PostResponse, 0, len(posts))
	for i := range posts {
		items = append(items, NewPostResponse(&posts[i]))
	}
	return items
}

// NewPostSummaries maps a slice of posts without their content.
func NewPostSummaries(posts []domain.Post) []PostSummary {
	items := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		items = append(items, PostSummary{
			ID:        post.ID,
			Title:     post.Title,
			Slug:      post.Slug,
			Excerpt:   post.Excerpt,
			Published: post.Published,
			CreatedAt: post.CreatedAt,
			UpdatedAt: post.UpdatedAt,
		})
	}
	return items
}
