package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxTTL bounds a per-alert lifetime; ttl_seconds tags carry the same limit.
const MaxTTL = 365 * 24 * time.Hour

type Category string

const (
	CategoryAlert Category = "alert"
	CategoryNews  Category = "news"
	CategorySale  Category = "sale"
	CategoryHelp  Category = "help"
	CategoryEvent Category = "event"
)

// AlertStatus tracks moderation: alerts start pending and become reviewed
// once enough reviewers approve them.
type AlertStatus string

const (
	StatusPending  AlertStatus = "pending"
	StatusReviewed AlertStatus = "reviewed"
)

// Payload is the opaque content of an alert, the core never interprets it.
type Payload struct {
	Message     string   `json:"message"`
	Severity    int      `json:"severity"`
	Source      string   `json:"source"`
	Category    Category `json:"category"`
	Attachments []string `json:"attachments,omitempty"`
}

type Alert struct {
	ID            uuid.UUID   `json:"id"`
	Lat           float64     `json:"lat"` // -90..90
	Lng           float64     `json:"lng"` // -180..180
	Payload       Payload     `json:"payload"`
	Status        AlertStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
	SourceEventID string      `json:"source_event_id,omitempty"`
}

// ExpiredAt reports logical expiry: an alert is gone once now reaches ExpiresAt.
func (a *Alert) ExpiredAt(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
