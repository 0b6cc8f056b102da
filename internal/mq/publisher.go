package mq

import (
	"context"
	"fmt"
	"log/slog"

	"proxify/internal/domain"
)

// Publisher streams alert lifecycle events, keyed by alert id so every
// event of one alert lands on the same partition in order.
type Publisher struct {
	writer MessageWriter
	logger *slog.Logger
}

func NewPublisher(writer MessageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	const op = "mq.Publish"

	if err := PublishJSON(ctx, p.writer, ev.AlertID.String(), ev); err != nil {
		p.logger.Error("publish failed",
			slog.String("op", op),
			slog.String("kind", string(ev.Kind)),
			slog.String("alert_id", ev.AlertID.String()),
			slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
