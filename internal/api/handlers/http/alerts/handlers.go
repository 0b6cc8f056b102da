package alerts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"proxify/internal/domain"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type AlertManager interface {
	Create(ctx context.Context, req domain.CreateAlertRequest) (domain.Alert, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Alert, error)
	Replace(ctx context.Context, id uuid.UUID, req domain.ReplaceAlertRequest) (domain.Alert, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProximityFinder interface {
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]domain.NearbyAlert, error)
	KNN(ctx context.Context, req domain.KNNRequest) ([]domain.NearbyAlert, error)
}

type Moderator interface {
	Review(ctx context.Context, id uuid.UUID, req domain.ReviewRequest) (domain.ReviewOutcome, error)
	Pending(ctx context.Context) ([]domain.Alert, error)
	Votes(ctx context.Context, id uuid.UUID) (domain.VoteTally, error)
}

type Handler struct {
	logger    *slog.Logger
	Alerts    AlertManager
	Finder    ProximityFinder
	Moderator Moderator
}

func NewHandler(logger *slog.Logger, alerts AlertManager, finder ProximityFinder, moderator Moderator) *Handler {
	return &Handler{
		logger:    logger,
		Alerts:    alerts,
		Finder:    finder,
		Moderator: moderator,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) AlertCreate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertCreate", slog.String("remote", r.RemoteAddr))

	var req domain.CreateAlertRequest
	if err := decodeStrict(r.Body, &req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	alert, err := h.Alerts.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert created", slog.String("id", alert.ID.String()))
	h.writeJSON(w, http.StatusCreated, alert)
}

func (h *Handler) AlertGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	alert, err := h.Alerts.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) AlertReplace(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	var req domain.ReplaceAlertRequest
	if err := decodeStrict(r.Body, &req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	alert, err := h.Alerts.Replace(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert replaced", slog.String("id", id.String()))
	h.writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) AlertDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	if err := h.Alerts.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AlertsNearby(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertsNearby", slog.String("query", r.URL.RawQuery))

	q := r.URL.Query()
	var (
		req  domain.NearbyRequest
		errs []string
	)
	req.Lat = requireFloat(q, "lat", &errs)
	req.Lng = requireFloat(q, "lng", &errs)
	req.RadiusKM = requireFloat(q, "radius_km", &errs)
	req.Limit = optionalInt(q, "limit", 0, &errs)
	if len(errs) > 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid query", "fields": errs})
		return
	}

	found, err := h.Finder.Nearby(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Debug("nearby answered", slog.Int("count", len(found)))
	h.writeJSON(w, http.StatusOK, domain.NearbyResponse{Alerts: found, Count: len(found)})
}

func (h *Handler) AlertsKNN(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		req  domain.KNNRequest
		errs []string
	)
	req.Lat = requireFloat(q, "lat", &errs)
	req.Lng = requireFloat(q, "lng", &errs)
	req.K = optionalInt(q, "k", 0, &errs)
	if q.Get("k") == "" {
		errs = append(errs, "k is required")
	}
	if len(errs) > 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid query", "fields": errs})
		return
	}

	found, err := h.Finder.KNN(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.NearbyResponse{Alerts: found, Count: len(found)})
}

func (h *Handler) alertID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.log(r).Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// decodeStrict refuses unknown fields and trailing data after the object.
func decodeStrict(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}
