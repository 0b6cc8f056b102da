package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"proxify/internal/domain"
	"proxify/internal/geo"
	"proxify/pkg/e"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
	MaxK         = 1000
)

type SpatialIndex interface {
	QueryRadius(lat, lng, radiusKM float64) (iter.Seq[geo.Hit], error)
	Nearest(lat, lng float64) (iter.Seq[geo.Hit], error)
}

type AlertReader interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Alert, error)
}

// Engine answers proximity queries from the index and hydrates each hit
// from the store. Hits whose alert is gone or expired are skipped.
type Engine struct {
	index  SpatialIndex
	alerts AlertReader
	logger *slog.Logger
}

func NewEngine(index SpatialIndex, alerts AlertReader, logger *slog.Logger) *Engine {
	return &Engine{index: index, alerts: alerts, logger: logger}
}

func (en *Engine) Nearby(ctx context.Context, req domain.NearbyRequest) ([]domain.NearbyAlert, error) {
	const op = "query.Nearby"

	if !domain.ValidCoordinates(req.Lat, req.Lng) {
		return nil, fmt.Errorf("%s: (%v, %v): %w", op, req.Lat, req.Lng, e.ErrInvalidCoordinates)
	}
	if !(req.RadiusKM > 0) || math.IsInf(req.RadiusKM, 0) {
		return nil, fmt.Errorf("%s: radius_km %v: %w", op, req.RadiusKM, e.ErrInvalidInput)
	}
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%s: limit %d: %w", op, limit, e.ErrInvalidInput)
	case limit == 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	hits, err := en.index.QueryRadius(req.Lat, req.Lng, req.RadiusKM)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return en.hydrate(ctx, op, hits, limit)
}

func (en *Engine) KNN(ctx context.Context, req domain.KNNRequest) ([]domain.NearbyAlert, error) {
	const op = "query.KNN"

	if !domain.ValidCoordinates(req.Lat, req.Lng) {
		return nil, fmt.Errorf("%s: (%v, %v): %w", op, req.Lat, req.Lng, e.ErrInvalidCoordinates)
	}
	if req.K <= 0 || req.K > MaxK {
		return nil, fmt.Errorf("%s: k %d: %w", op, req.K, e.ErrInvalidInput)
	}

	// Nearest is unbounded so skipped hits do not shrink the answer below k.
	hits, err := en.index.Nearest(req.Lat, req.Lng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return en.hydrate(ctx, op, hits, req.K)
}

func (en *Engine) hydrate(ctx context.Context, op string, hits iter.Seq[geo.Hit], limit int) ([]domain.NearbyAlert, error) {
	out := make([]domain.NearbyAlert, 0, min(limit, 16))
	skipped := 0

	for h := range hits {
		if err := ctx.Err(); err != nil {
			return nil, e.WrapError(ctx, op, err)
		}

		alert, err := en.alerts.Get(ctx, h.ID)
		if errors.Is(err, e.ErrNotFound) {
			skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		out = append(out, domain.NearbyAlert{
			ID:         alert.ID,
			DistanceKM: h.DistanceKM,
			Lat:        alert.Lat,
			Lng:        alert.Lng,
			Payload:    alert.Payload,
			Status:     alert.Status,
			CreatedAt:  alert.CreatedAt,
			ExpiresAt:  alert.ExpiresAt,
		})
		if len(out) == limit {
			break
		}
	}

	if skipped > 0 {
		en.logger.Debug("stale hits skipped", slog.String("op", op), slog.Int("skipped", skipped))
	}
	return out, nil
}
