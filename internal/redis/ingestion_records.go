package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"

	goredis "github.com/redis/go-redis/v9"
)

const ingestionKeyPrefix = "ingest:record:"

// IngestionRecords keeps source_event_id -> alert_id for the retry window,
// letting redis expire keys on its own.
type IngestionRecords struct {
	client *goredis.Client
	window time.Duration
}

func NewIngestionRecords(r *Redis, window time.Duration) *IngestionRecords {
	return &IngestionRecords{client: r.Client, window: window}
}

func (s *IngestionRecords) RecordIngestion(ctx context.Context, rec domain.IngestionRecord) error {
	const op = "redis.RecordIngestion"

	ttl := s.window - time.Since(rec.ReceivedAt)
	if ttl <= 0 {
		return nil
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.Set(ctx, ingestionKeyPrefix+rec.SourceEventID, b, ttl).Err(); err != nil {
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (s *IngestionRecords) LookupIngestion(ctx context.Context, sourceEventID string) (domain.IngestionRecord, error) {
	const op = "redis.LookupIngestion"

	var rec domain.IngestionRecord

	data, err := s.client.Get(ctx, ingestionKeyPrefix+sourceEventID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return rec, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return rec, e.WrapError(ctx, op, err)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}
