package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/events"
)

// ActivityService writes an audit trail of admin actions.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger.Named("activity"),
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventPostCreated, a.handlePostEvent)
	a.dispatcher.Subscribe(events.EventPostUpdated, a.handlePostEvent)
	a.dispatcher.Subscribe(events.EventPostDeleted, a.handlePostEvent)
	a.dispatcher.Subscribe(events.EventAdminLoggedIn, a.handleAuthEvent)
	a.dispatcher.Subscribe(events.EventAdminLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventAdminLoggedOut, a.handleAuthEvent)
}

func (a *ActivityService) handlePostEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("post_id", event.PostID),
		zap.String("admin", event.Actor.Email),
	}
	switch payload := event.Payload.(type) {
	case events.PostCreatedPayload:
		fields = append(fields, zap.String("slug", payload.Post.Slug))
	case events.PostUpdatedPayload:
		fields = append(fields, zap.String("slug", payload.Post.Slug), zap.String("previous_slug", payload.PreviousSlug))
	case events.PostDeletedPayload:
		fields = append(fields, zap.String("slug", payload.Slug))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}

func (a *ActivityService) handleAuthEvent(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("admin", event.Actor.Email),
		zap.String("ip", event.Actor.IP))
	return nil
}

func (a *ActivityService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("ip", event.Actor.IP),
	}
	if payload, ok := event.Payload.(events.LoginPayload); ok {
		fields = append(fields, zap.String("reason", payload.Reason))
	}
	a.logger.Warn(string(event.Type), fields...)
	return nil
}
