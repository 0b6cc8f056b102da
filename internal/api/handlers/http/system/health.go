package system

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"log/slog"
)

const depthTimeout = time.Second

// AlertCounter reports how many alerts are held in memory.
type AlertCounter interface {
	Len() int
}

// QueueDepth reports the backlog of the notification queue.
type QueueDepth interface {
	Len(ctx context.Context) (int64, error)
}

type Handler struct {
	logger *slog.Logger
	alerts AlertCounter
	queue  QueueDepth
}

type Option func(*Handler)

func WithQueueDepth(q QueueDepth) Option {
	return func(h *Handler) { h.queue = q }
}

func NewHandler(logger *slog.Logger, alerts AlertCounter, opts ...Option) *Handler {
	h := &Handler{logger: logger, alerts: alerts}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SystemHealth always answers 200; a queue that cannot be read is reported
// as degraded instead of failing the whole health check.
func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "alerts": h.alerts.Len()}

	if h.queue != nil {
		ctx, cancel := context.WithTimeout(r.Context(), depthTimeout)
		n, err := h.queue.Len(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("queue depth unavailable", slog.Any("error", err))
			body["status"] = "degraded"
		} else {
			body["notifications_queued"] = n
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}
