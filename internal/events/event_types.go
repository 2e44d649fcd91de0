package events

import (
	"time"

	"github.com/spec-kit/docs-hub/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPostCreated      EventType = "post_created"
	EventPostUpdated      EventType = "post_updated"
	EventPostDeleted      EventType = "post_deleted"
	EventAdminLoggedIn    EventType = "admin_logged_in"
	EventAdminLoginFailed EventType = "admin_login_failed"
	EventAdminLoggedOut   EventType = "admin_logged_out"
)

// Actor identifies who triggered an event.
type Actor struct {
	Email string `json:"email,omitempty"`
	IP    string `json:"ip,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	PostID    string    `json:"post_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// PostCreatedPayload carries the stored post.
type PostCreatedPayload struct {
	Post domain.Post `json:"post"`
}

// PostUpdatedPayload carries the stored post and the slug it had before the update.
type PostUpdatedPayload struct {
	Post         domain.Post `json:"post"`
	PreviousSlug string      `json:"previous_slug"`
}

// PostDeletedPayload identifies the removed post.
type PostDeletedPayload struct {
	Slug string `json:"slug"`
}

// LoginPayload describes an authentication attempt.
type LoginPayload struct {
	Reason string `json:"reason,omitempty"`
}
