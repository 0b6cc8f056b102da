package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReviewVerdict string

const (
	VerdictPending  ReviewVerdict = "pending"
	VerdictReviewed ReviewVerdict = "reviewed"
	VerdictDeleted  ReviewVerdict = "deleted"
)

// ReviewRequest is one moderator vote. Vote true approves, false rejects.
type ReviewRequest struct {
	Reviewer string `json:"reviewer" validate:"required,max=128"`
	Vote     *bool  `json:"vote" validate:"required"`
}

// Review is a recorded vote; a reviewer votes at most once per alert.
type Review struct {
	AlertID   uuid.UUID `json:"alert_id"`
	Reviewer  string    `json:"reviewer"`
	Vote      bool      `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewOutcome struct {
	AlertID    uuid.UUID     `json:"alert_id"`
	Status     ReviewVerdict `json:"status"`
	Approvals  int           `json:"approvals"`
	Rejections int           `json:"rejections"`
}

type VoteTally struct {
	AlertID    uuid.UUID `json:"alert_id"`
	Approvals  int       `json:"approvals"`
	Rejections int       `json:"rejections"`
	Votes      []Review  `json:"votes"`
}
