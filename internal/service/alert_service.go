package service

import (
	"context"

	"proxify/internal/domain"

	"github.com/google/uuid"
)

func (s *Service) Create(ctx context.Context, req domain.CreateAlertRequest) (domain.Alert, error) {
	return s.AlertService.Create(ctx, req)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Alert, error) {
	return s.AlertService.Get(ctx, id)
}

func (s *Service) Replace(ctx context.Context, id uuid.UUID, req domain.ReplaceAlertRequest) (domain.Alert, error) {
	return s.AlertService.Replace(ctx, id, req)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.AlertService.Delete(ctx, id)
}

func (s *Service) Nearby(ctx context.Context, req domain.NearbyRequest) ([]domain.NearbyAlert, error) {
	return s.QueryService.Nearby(ctx, req)
}

func (s *Service) KNN(ctx context.Context, req domain.KNNRequest) ([]domain.NearbyAlert, error) {
	return s.QueryService.KNN(ctx, req)
}

func (s *Service) Ingest(ctx context.Context, d domain.Delivery) (domain.IngestResult, error) {
	return s.IngestService.Ingest(ctx, d)
}

func (s *Service) Review(ctx context.Context, id uuid.UUID, req domain.ReviewRequest) (domain.ReviewOutcome, error) {
	return s.ReviewService.Review(ctx, id, req)
}

func (s *Service) Pending(ctx context.Context) ([]domain.Alert, error) {
	return s.ReviewService.Pending(ctx)
}

func (s *Service) Votes(ctx context.Context, id uuid.UUID) (domain.VoteTally, error) {
	return s.ReviewService.Votes(ctx, id)
}
