package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"
	"proxify/pkg/validator"

	"github.com/google/uuid"
)

type alertService struct {
	store      AlertStore
	sink       LifecycleSink
	logger     *slog.Logger
	defaultTTL time.Duration
	now        func() time.Time
}

func NewAlertService(store AlertStore, sink LifecycleSink, defaultTTL time.Duration, logger *slog.Logger) AlertService {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &alertService{
		store:      store,
		sink:       sink,
		logger:     logger,
		defaultTTL: defaultTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *alertService) Create(ctx context.Context, req domain.CreateAlertRequest) (domain.Alert, error) {
	const op = "service.Alert.Create"

	if err := checkRequest(req); err != nil {
		return domain.Alert{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	alert := fromRequest(req)
	alert.CreatedAt = now
	alert.ExpiresAt = now.Add(s.ttl(req.TTLSeconds))
	alert.Status = domain.StatusPending

	id, err := s.store.Upsert(ctx, alert)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("%s: %w", op, err)
	}
	alert.ID = id

	s.logger.Info("alert created", slog.String("id", id.String()), slog.String("category", string(alert.Payload.Category)))
	s.sink.AlertCreated(ctx, alert)
	return alert, nil
}

func (s *alertService) Get(ctx context.Context, id uuid.UUID) (domain.Alert, error) {
	return s.store.Get(ctx, id)
}

// Replace swaps content and position of a live alert under the same id.
// CreatedAt and moderation status are kept, the lifetime restarts from now.
// The read and the write happen as one store operation, so an alert deleted
// in between stays deleted.
func (s *alertService) Replace(ctx context.Context, id uuid.UUID, req domain.ReplaceAlertRequest) (domain.Alert, error) {
	const op = "service.Alert.Replace"

	if err := checkRequest(req); err != nil {
		return domain.Alert{}, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := s.now().Add(s.ttl(req.TTLSeconds))
	alert, err := s.store.Replace(ctx, id, func(prev domain.Alert) domain.Alert {
		next := fromRequest(req)
		next.CreatedAt = prev.CreatedAt
		next.ExpiresAt = expiresAt
		next.SourceEventID = prev.SourceEventID
		next.Status = prev.Status
		return next
	})
	if err != nil {
		return domain.Alert{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("alert replaced", slog.String("id", id.String()))
	s.sink.AlertReplaced(ctx, alert)
	return alert, nil
}

func (s *alertService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "service.Alert.Delete"

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("alert deleted", slog.String("id", id.String()))
	s.sink.AlertDeleted(ctx, id)
	return nil
}

func (s *alertService) ttl(seconds int) time.Duration {
	if seconds > 0 {
		return min(time.Duration(seconds)*time.Second, domain.MaxTTL)
	}
	return s.defaultTTL
}

func checkRequest(req domain.CreateAlertRequest) error {
	if !domain.ValidCoordinates(req.Lat, req.Lng) {
		return fmt.Errorf("(%v, %v): %w", req.Lat, req.Lng, e.ErrInvalidCoordinates)
	}
	if err := validator.ValidateStruct(req); err != nil {
		return fmt.Errorf("%v: %w", err, e.ErrInvalidInput)
	}
	return nil
}

func fromRequest(req domain.CreateAlertRequest) domain.Alert {
	return domain.Alert{
		Lat: req.Lat,
		Lng: req.Lng,
		Payload: domain.Payload{
			Message:     req.Message,
			Severity:    req.Severity,
			Source:      req.Source,
			Category:    req.Category,
			Attachments: req.Attachments,
		},
	}
}
