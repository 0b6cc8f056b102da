package alerts

import (
	"log/slog"
	"net/http"

	"proxify/internal/domain"
)

// AlertReview records one moderator vote. The response carries the tally
// and whether the vote settled the alert.
func (h *Handler) AlertReview(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	var req domain.ReviewRequest
	if err := decodeStrict(r.Body, &req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	out, err := h.Moderator.Review(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("vote recorded", slog.String("id", id.String()), slog.String("status", string(out.Status)))
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AlertsPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Moderator.Pending(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if pending == nil {
		pending = []domain.Alert{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"alerts": pending, "count": len(pending)})
}

func (h *Handler) AlertVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	tally, err := h.Moderator.Votes(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, tally)
}
