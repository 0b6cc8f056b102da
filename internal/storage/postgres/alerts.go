package postgres

import (
	"context"
	"log/slog"
	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Alerts struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAlerts(pool *pgxpool.Pool, logger *slog.Logger) *Alerts {
	return &Alerts{pool: pool, logger: logger}
}

const alertColumns = `
	id,
	ST_Y(geo_point::geometry) AS lat,
	ST_X(geo_point::geometry) AS lng,
	payload,
	status,
	created_at,
	expires_at,
	source_event_id
`

// LoadAll returns every stored alert, expired ones included.
func (p *Alerts) LoadAll(ctx context.Context) ([]domain.Alert, error) {
	const op = "postgres.Alert.LoadAll"

	rows, err := p.pool.Query(ctx, `SELECT `+alertColumns+` FROM alerts`)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return alerts, nil
}

// Upsert writes the whole alert, replacing content stored under the same id.
func (p *Alerts) Upsert(ctx context.Context, alert *domain.Alert) error {
	const op = "postgres.Alert.Upsert"

	const query = `
		INSERT INTO alerts (id, geo_point, payload, status, created_at, expires_at, source_event_id)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET geo_point       = EXCLUDED.geo_point,
			payload         = EXCLUDED.payload,
			status          = EXCLUDED.status,
			created_at      = EXCLUDED.created_at,
			expires_at      = EXCLUDED.expires_at,
			source_event_id = EXCLUDED.source_event_id
	`

	_, err := p.pool.Exec(ctx, query,
		alert.ID,
		alert.Lng,
		alert.Lat,
		alert.Payload,
		string(alert.Status),
		alert.CreatedAt,
		alert.ExpiresAt,
		nullString(alert.SourceEventID),
	)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("id", alert.ID.String()),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

// Delete is idempotent, a missing row is not an error.
func (p *Alerts) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Alert.Delete"

	if _, err := p.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id); err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func scanAlert(row pgx.Row) (domain.Alert, error) {
	var (
		a      domain.Alert
		status string
		src    *string
	)
	if err := row.Scan(
		&a.ID,
		&a.Lat,
		&a.Lng,
		&a.Payload,
		&status,
		&a.CreatedAt,
		&a.ExpiresAt,
		&src,
	); err != nil {
		return domain.Alert{}, err
	}
	a.Status = domain.AlertStatus(status)
	if src != nil {
		a.SourceEventID = *src
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.ExpiresAt = a.ExpiresAt.UTC()
	return a, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
