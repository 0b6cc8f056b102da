package service

import (
	"context"
	"proxify/internal/domain"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type AlertService interface {
	Create(ctx context.Context, req domain.CreateAlertRequest) (domain.Alert, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Alert, error)
	Replace(ctx context.Context, id uuid.UUID, req domain.ReplaceAlertRequest) (domain.Alert, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type QueryService interface {
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]domain.NearbyAlert, error)
	KNN(ctx context.Context, req domain.KNNRequest) ([]domain.NearbyAlert, error)
}

type IngestService interface {
	Ingest(ctx context.Context, d domain.Delivery) (domain.IngestResult, error)
}

type ReviewService interface {
	Review(ctx context.Context, id uuid.UUID, req domain.ReviewRequest) (domain.ReviewOutcome, error)
	Pending(ctx context.Context) ([]domain.Alert, error)
	Votes(ctx context.Context, id uuid.UUID) (domain.VoteTally, error)
}

type AlertStore interface {
	Upsert(ctx context.Context, alert domain.Alert) (uuid.UUID, error)
	Replace(ctx context.Context, id uuid.UUID, build func(prev domain.Alert) domain.Alert) (domain.Alert, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Alert, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Pending(ctx context.Context) []domain.Alert
}

// ReviewRepository keeps moderator votes. AddReview returns e.ErrConflict
// when the reviewer already voted on the alert.
type ReviewRepository interface {
	AddReview(ctx context.Context, r domain.Review) error
	ListReviews(ctx context.Context, alertID uuid.UUID) ([]domain.Review, error)
	DeleteReviews(ctx context.Context, alertID uuid.UUID) error
}

// LifecycleSink hears about mutations made through the direct API.
type LifecycleSink interface {
	AlertCreated(ctx context.Context, alert domain.Alert)
	AlertReplaced(ctx context.Context, alert domain.Alert)
	AlertDeleted(ctx context.Context, id uuid.UUID)
	AlertReviewed(ctx context.Context, alert domain.Alert)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.LifecycleEvent) error
}

type NotificationQueue interface {
	Enqueue(ctx context.Context, n domain.Notification) error
}

type NotificationSource interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.Notification, error)
}

type Service struct {
	AlertService  AlertService
	QueryService  QueryService
	IngestService IngestService
	ReviewService ReviewService
}

func NewService(
	alertService AlertService,
	queryService QueryService,
	ingestService IngestService,
	reviewService ReviewService,
) *Service {
	return &Service{
		AlertService:  alertService,
		QueryService:  queryService,
		IngestService: ingestService,
		ReviewService: reviewService,
	}
}
