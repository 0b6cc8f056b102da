package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"
	"proxify/pkg/validator"

	"github.com/google/uuid"
)

const (
	ApprovalsToReview  = 2
	RejectionsToDelete = 3

	reviewStripes = 16
)

// reviewService runs the moderation vote. Votes on one alert are serialized
// so the tally a caller sees includes its own vote and nobody else's half.
type reviewService struct {
	store   AlertStore
	reviews ReviewRepository
	sink    LifecycleSink
	logger  *slog.Logger
	now     func() time.Time
	locks   [reviewStripes]sync.Mutex
}

func NewReviewService(store AlertStore, reviews ReviewRepository, sink LifecycleSink, logger *slog.Logger) ReviewService {
	return &reviewService{
		store:   store,
		reviews: reviews,
		sink:    sink,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Review records one moderator vote on a pending alert. Three rejections
// delete it; otherwise two approvals mark it reviewed. Rejections are
// checked first.
func (s *reviewService) Review(ctx context.Context, id uuid.UUID, req domain.ReviewRequest) (domain.ReviewOutcome, error) {
	const op = "service.Review.Review"

	if err := validator.ValidateStruct(req); err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("%s: %v: %w", op, err, e.ErrInvalidInput)
	}

	mu := &s.locks[int(id[15])%reviewStripes]
	mu.Lock()
	defer mu.Unlock()

	alert, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("%s: %w", op, err)
	}
	if alert.Status == domain.StatusReviewed {
		return domain.ReviewOutcome{}, fmt.Errorf("%s: %s already reviewed: %w", op, id, e.ErrConflict)
	}

	vote := domain.Review{AlertID: id, Reviewer: req.Reviewer, Vote: *req.Vote, CreatedAt: s.now()}
	if err := s.reviews.AddReview(ctx, vote); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return domain.ReviewOutcome{}, fmt.Errorf("%s: %s already voted: %w", op, req.Reviewer, err)
		}
		return domain.ReviewOutcome{}, fmt.Errorf("%s: %w", op, err)
	}

	tally, err := s.tally(ctx, id)
	if err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("%s: %w", op, err)
	}
	out := domain.ReviewOutcome{
		AlertID:    id,
		Status:     domain.VerdictPending,
		Approvals:  tally.Approvals,
		Rejections: tally.Rejections,
	}

	switch {
	case tally.Rejections >= RejectionsToDelete:
		if err := s.store.Delete(ctx, id); err != nil {
			return domain.ReviewOutcome{}, fmt.Errorf("%s: %w", op, err)
		}
		s.sink.AlertDeleted(ctx, id)
		out.Status = domain.VerdictDeleted
		s.logger.Info("alert rejected by moderators", slog.String("id", id.String()), slog.Int("rejections", tally.Rejections))

	case tally.Approvals >= ApprovalsToReview:
		reviewed, err := s.store.Replace(ctx, id, func(prev domain.Alert) domain.Alert {
			prev.Status = domain.StatusReviewed
			return prev
		})
		if err != nil {
			return domain.ReviewOutcome{}, fmt.Errorf("%s: %w", op, err)
		}
		s.sink.AlertReviewed(ctx, reviewed)
		out.Status = domain.VerdictReviewed
		s.logger.Info("alert approved by moderators", slog.String("id", id.String()), slog.Int("approvals", tally.Approvals))

	default:
		s.logger.Debug("vote recorded", slog.String("id", id.String()), slog.String("reviewer", req.Reviewer), slog.Bool("vote", vote.Vote))
	}

	return out, nil
}

func (s *reviewService) Pending(ctx context.Context) ([]domain.Alert, error) {
	const op = "service.Review.Pending"

	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return s.store.Pending(ctx), nil
}

// Votes lists the votes cast on a live alert.
func (s *reviewService) Votes(ctx context.Context, id uuid.UUID) (domain.VoteTally, error) {
	const op = "service.Review.Votes"

	if _, err := s.store.Get(ctx, id); err != nil {
		return domain.VoteTally{}, fmt.Errorf("%s: %w", op, err)
	}
	tally, err := s.tally(ctx, id)
	if err != nil {
		return domain.VoteTally{}, fmt.Errorf("%s: %w", op, err)
	}
	return tally, nil
}

func (s *reviewService) tally(ctx context.Context, id uuid.UUID) (domain.VoteTally, error) {
	votes, err := s.reviews.ListReviews(ctx, id)
	if err != nil {
		return domain.VoteTally{}, err
	}
	t := domain.VoteTally{AlertID: id, Votes: votes}
	if t.Votes == nil {
		t.Votes = []domain.Review{}
	}
	for _, v := range votes {
		if v.Vote {
			t.Approvals++
		} else {
			t.Rejections++
		}
	}
	return t, nil
}
