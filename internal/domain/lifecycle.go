package domain

import (
	"time"

	"github.com/google/uuid"
)

type LifecycleKind string

const (
	LifecycleCreated  LifecycleKind = "alert.created"
	LifecycleReplaced LifecycleKind = "alert.replaced"
	LifecycleDeleted  LifecycleKind = "alert.deleted"
	LifecycleExpired  LifecycleKind = "alert.expired"
	LifecycleReviewed LifecycleKind = "alert.reviewed"
)

// LifecycleEvent is published to the event stream on every alert mutation.
type LifecycleEvent struct {
	Kind       LifecycleKind `json:"kind"`
	AlertID    uuid.UUID     `json:"alert_id"`
	Alert      *Alert        `json:"alert,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Notification is what the notifier delivers to the subscriber URL.
type Notification struct {
	AlertID   uuid.UUID `json:"alert_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
