package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Reviews struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReviews(pool *pgxpool.Pool, logger *slog.Logger) *Reviews {
	return &Reviews{pool: pool, logger: logger}
}

// AddReview stores one vote. A second vote by the same reviewer on the same
// alert is rejected with ErrConflict.
func (p *Reviews) AddReview(ctx context.Context, r domain.Review) error {
	const op = "postgres.Review.Add"

	const query = `
		INSERT INTO alert_reviews (alert_id, reviewer, vote, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (alert_id, reviewer) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query, r.AlertID, r.Reviewer, r.Vote, r.CreatedAt)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("alert_id", r.AlertID.String()),
		)
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrConflict)
	}

	return nil
}

func (p *Reviews) ListReviews(ctx context.Context, alertID uuid.UUID) ([]domain.Review, error) {
	const op = "postgres.Review.List"

	const query = `
		SELECT alert_id, reviewer, vote, created_at
		FROM alert_reviews
		WHERE alert_id = $1
		ORDER BY created_at, reviewer
	`

	rows, err := p.pool.Query(ctx, query, alertID)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.AlertID, &r.Reviewer, &r.Vote, &r.CreatedAt); err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return out, nil
}

func (p *Reviews) DeleteReviews(ctx context.Context, alertID uuid.UUID) error {
	const op = "postgres.Review.Delete"

	if _, err := p.pool.Exec(ctx, `DELETE FROM alert_reviews WHERE alert_id = $1`, alertID); err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	return nil
}
