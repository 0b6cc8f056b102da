package service

import (
	"context"
	"log/slog"
	"time"

	"proxify/internal/domain"

	"github.com/google/uuid"
)

// Lifecycle fans alert mutations out to the event stream and, for new
// alerts, to the notification queue. Both are optional and best effort.
// With a review repository attached, votes of removed alerts are dropped.
type Lifecycle struct {
	publisher EventPublisher
	queue     NotificationQueue
	reviews   ReviewRepository
	logger    *slog.Logger
	now       func() time.Time
}

type LifecycleOption func(*Lifecycle)

func WithVoteCleanup(reviews ReviewRepository) LifecycleOption {
	return func(l *Lifecycle) { l.reviews = reviews }
}

func NewLifecycle(publisher EventPublisher, queue NotificationQueue, logger *slog.Logger, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		publisher: publisher,
		queue:     queue,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) AlertCreated(ctx context.Context, alert domain.Alert) {
	l.publish(ctx, domain.LifecycleCreated, alert.ID, &alert)

	if l.queue == nil {
		return
	}
	n := domain.Notification{
		AlertID:   alert.ID,
		Lat:       alert.Lat,
		Lng:       alert.Lng,
		Payload:   alert.Payload,
		CreatedAt: alert.CreatedAt,
	}
	if err := l.queue.Enqueue(ctx, n); err != nil {
		l.logger.Error("enqueue notification failed", slog.String("alert_id", alert.ID.String()), slog.Any("error", err))
		return
	}
	l.logger.Debug("notification enqueued", slog.String("alert_id", alert.ID.String()))
}

func (l *Lifecycle) AlertReplaced(ctx context.Context, alert domain.Alert) {
	l.publish(ctx, domain.LifecycleReplaced, alert.ID, &alert)
}

func (l *Lifecycle) AlertDeleted(ctx context.Context, id uuid.UUID) {
	l.dropVotes(ctx, id)
	l.publish(ctx, domain.LifecycleDeleted, id, nil)
}

func (l *Lifecycle) AlertExpired(ctx context.Context, alert domain.Alert) {
	l.dropVotes(ctx, alert.ID)
	l.publish(ctx, domain.LifecycleExpired, alert.ID, &alert)
}

func (l *Lifecycle) AlertReviewed(ctx context.Context, alert domain.Alert) {
	l.publish(ctx, domain.LifecycleReviewed, alert.ID, &alert)
}

func (l *Lifecycle) dropVotes(ctx context.Context, id uuid.UUID) {
	if l.reviews == nil {
		return
	}
	if err := l.reviews.DeleteReviews(ctx, id); err != nil {
		l.logger.Warn("votes not dropped", slog.String("alert_id", id.String()), slog.Any("error", err))
	}
}

func (l *Lifecycle) publish(ctx context.Context, kind domain.LifecycleKind, id uuid.UUID, alert *domain.Alert) {
	if l.publisher == nil {
		return
	}
	ev := domain.LifecycleEvent{Kind: kind, AlertID: id, Alert: alert, OccurredAt: l.now()}
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.Warn("lifecycle event dropped", slog.String("kind", string(kind)), slog.String("alert_id", id.String()), slog.Any("error", err))
	}
}
