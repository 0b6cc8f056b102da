package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Ingestions struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewIngestions(pool *pgxpool.Pool, logger *slog.Logger) *Ingestions {
	return &Ingestions{pool: pool, logger: logger}
}

// RecordIngestion keeps the latest mapping for a source event; a record
// re-written after its window has lapsed points at the new alert.
func (p *Ingestions) RecordIngestion(ctx context.Context, rec domain.IngestionRecord) error {
	const op = "postgres.Ingestion.Record"

	const query = `
		INSERT INTO ingestion_records (source_event_id, alert_id, received_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_event_id) DO UPDATE
		SET alert_id    = EXCLUDED.alert_id,
			received_at = EXCLUDED.received_at
	`

	if _, err := p.pool.Exec(ctx, query, rec.SourceEventID, rec.AlertID, rec.ReceivedAt); err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("source_event_id", rec.SourceEventID),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *Ingestions) LookupIngestion(ctx context.Context, sourceEventID string) (domain.IngestionRecord, error) {
	const op = "postgres.Ingestion.Lookup"

	const query = `
		SELECT source_event_id, alert_id, received_at
		FROM ingestion_records
		WHERE source_event_id = $1
	`

	var rec domain.IngestionRecord
	err := p.pool.QueryRow(ctx, query, sourceEventID).Scan(&rec.SourceEventID, &rec.AlertID, &rec.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.IngestionRecord{}, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return domain.IngestionRecord{}, e.WrapError(ctx, op, err)
	}
	rec.ReceivedAt = rec.ReceivedAt.UTC()

	return rec, nil
}
