package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"proxify/pkg/e"
	"strconv"
)

var errTrailingData = errors.New("unexpected data after JSON object")

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	l := h.log(r)

	status, msg := statusFor(err)
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("kind", e.Classify(err)),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		l.Error("handler error", attrs...)
	} else {
		l.Warn("request rejected", attrs...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidCoordinates):
		return http.StatusBadRequest, "invalid coordinates"
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, e.ErrConflict), errors.Is(err, e.ErrUniqueViolation):
		return http.StatusConflict, "conflict"
	case errors.Is(err, e.ErrDeadline):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}

func requireFloat(q url.Values, key string, errs *[]string) float64 {
	s := q.Get(key)
	if s == "" {
		*errs = append(*errs, key+" is required")
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a number", key))
		return 0
	}
	return f
}

func optionalInt(q url.Values, key string, def int, errs *[]string) int {
	s := q.Get(key)
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer", key))
		return def
	}
	return i
}
