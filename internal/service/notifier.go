package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"proxify/pkg/e"

	"net/http"
	"time"

	"log/slog"
	"proxify/internal/config"
	"proxify/internal/domain"
)

const notifyMaxRetries = 3

// Notifier drains the notification queue and POSTs every new alert to the
// subscriber URL, retrying with linear back-off.
type Notifier struct {
	logger  *slog.Logger
	cfg     config.NotifyConfig
	queue   NotificationSource
	http    *http.Client
	backoff time.Duration
}

func NewNotifier(logger *slog.Logger, cfg config.NotifyConfig, q NotificationSource) *Notifier {
	return &Notifier{
		logger:  logger,
		cfg:     cfg,
		queue:   q,
		http:    &http.Client{Timeout: 5 * time.Second},
		backoff: time.Second,
	}
}

func (s *Notifier) Run(ctx context.Context) {
	s.logger.Info("notifier STARTED", slog.String("url", s.cfg.URL))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("notifier STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		default:
		}

		n, err := s.queue.BRPop(ctx, 5*time.Second)
		if err != nil {
			if errors.Is(err, e.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			s.logger.Error("BRPop failed", slog.Any("error", err))
			sleep(ctx, 500*time.Millisecond)
			continue
		}

		s.logger.Debug("sending notification", slog.String("alert_id", n.AlertID.String()))
		s.sendWithRetry(ctx, n)
	}
}

// sendWithRetry reports whether the subscriber accepted the notification.
func (s *Notifier) sendWithRetry(ctx context.Context, n domain.Notification) bool {
	body, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("marshal notification failed", slog.String("error", err.Error()))
		return false
	}

	for attempt := 1; attempt <= notifyMaxRetries; attempt++ {
		if ctx.Err() != nil {
			s.logger.Info("stop retries due to context cancel")
			return false
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
		if err != nil {
			s.logger.Error("create notification request failed", slog.String("error", err.Error()))
			return false
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return true
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		reason := "unknown"
		if err != nil {
			reason = err.Error()
		} else if resp != nil {
			reason = resp.Status
		}

		s.logger.Warn("notification failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.cfg.URL),
			slog.String("reason", reason),
		)

		if attempt < notifyMaxRetries {
			sleep(ctx, time.Duration(attempt)*s.backoff)
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
