package postgres

import (
	"context"
	"proxify/internal/domain"

	"github.com/google/uuid"
)

type AlertRepository interface {
	LoadAll(ctx context.Context) ([]domain.Alert, error)
	Upsert(ctx context.Context, alert *domain.Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type IngestionRepository interface {
	RecordIngestion(ctx context.Context, rec domain.IngestionRecord) error
	LookupIngestion(ctx context.Context, sourceEventID string) (domain.IngestionRecord, error)
}

type ReviewRepository interface {
	AddReview(ctx context.Context, r domain.Review) error
	ListReviews(ctx context.Context, alertID uuid.UUID) ([]domain.Review, error)
	DeleteReviews(ctx context.Context, alertID uuid.UUID) error
}

func (p *Postgres) Alerts() AlertRepository         { return p.Alert }
func (p *Postgres) Ingestions() IngestionRepository { return p.Ingestion }
func (p *Postgres) Reviews() ReviewRepository       { return p.Review }
