package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"proxify/internal/domain"
	"proxify/pkg/e"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Ingestor interface {
	Ingest(ctx context.Context, d domain.Delivery) (domain.IngestResult, error)
}

type Handler struct {
	logger   *slog.Logger
	Ingestor Ingestor
}

func NewHandler(logger *slog.Logger, ingestor Ingestor) *Handler {
	return &Handler{logger: logger, Ingestor: ingestor}
}

// WebhookAlert answers 201 for a new alert and 200 for a redelivery.
func (h *Handler) WebhookAlert(w http.ResponseWriter, r *http.Request) {
	l := h.logger
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		l = l.With(slog.String("request_id", reqID))
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		l.Warn("read body failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	d := domain.Delivery{
		ID:        r.Header.Get(HeaderID),
		Timestamp: r.Header.Get(HeaderTimestamp),
		Signature: r.Header.Get(HeaderSignature),
		Body:      body,
	}

	res, err := h.Ingestor.Ingest(r.Context(), d)
	if err != nil {
		status, msg := statusFor(err)
		l.Warn("webhook rejected",
			slog.String("svix_id", d.ID),
			slog.String("kind", e.Classify(err)),
			slog.Int("status", status),
			slog.Any("error", err))
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	l.Info("webhook accepted",
		slog.String("svix_id", d.ID),
		slog.String("alert_id", res.AlertID.String()),
		slog.Bool("duplicate", res.Duplicate))
	writeJSON(w, status, res)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid signature"
	case errors.Is(err, e.ErrInvalidCoordinates):
		return http.StatusBadRequest, "invalid coordinates"
	case errors.Is(err, e.ErrInvalidEvent), errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, "invalid event"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
