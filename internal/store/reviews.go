package store

import (
	"context"
	"fmt"
	"sync"

	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/google/uuid"
)

// Reviews keeps moderator votes in memory when no database is configured.
type Reviews struct {
	mu    sync.RWMutex
	votes map[uuid.UUID][]domain.Review
}

func NewReviews() *Reviews {
	return &Reviews{votes: make(map[uuid.UUID][]domain.Review)}
}

func (r *Reviews) AddReview(_ context.Context, v domain.Review) error {
	const op = "store.Reviews.Add"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, prev := range r.votes[v.AlertID] {
		if prev.Reviewer == v.Reviewer {
			return fmt.Errorf("%s: %w", op, e.ErrConflict)
		}
	}
	r.votes[v.AlertID] = append(r.votes[v.AlertID], v)
	return nil
}

func (r *Reviews) ListReviews(_ context.Context, alertID uuid.UUID) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	votes := r.votes[alertID]
	out := make([]domain.Review, len(votes))
	copy(out, votes)
	return out, nil
}

func (r *Reviews) DeleteReviews(_ context.Context, alertID uuid.UUID) error {
	r.mu.Lock()
	delete(r.votes, alertID)
	r.mu.Unlock()
	return nil
}
