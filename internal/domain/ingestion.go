package domain

import (
	"time"

	"github.com/google/uuid"
)

// Delivery is one signed webhook delivery as received on the wire.
type Delivery struct {
	ID        string // svix-id, doubles as source_event_id
	Timestamp string // svix-timestamp, unix seconds
	Signature string // svix-signature, space separated "v1,<base64>" list
	Body      []byte
}

type IngestionRecord struct {
	SourceEventID string    `json:"source_event_id"`
	AlertID       uuid.UUID `json:"alert_id"`
	ReceivedAt    time.Time `json:"received_at"`
}

type IngestResult struct {
	AlertID   uuid.UUID `json:"alert_id"`
	Duplicate bool      `json:"duplicate"`
}

type EventType string

const (
	EventAlertCreated EventType = "alert.created"
)

// AlertEvent is the webhook envelope carrying a geotagged report.
type AlertEvent struct {
	Type EventType      `json:"type" validate:"required,eq=alert.created"`
	Data AlertEventData `json:"data"`
}

type AlertEventData struct {
	Location    GeoPoint `json:"location"`
	Message     string   `json:"message" validate:"required,min=1"`
	Severity    int      `json:"severity" validate:"required,min=1,max=5"`
	Source      string   `json:"source"`
	Category    Category `json:"category" validate:"required,oneof=alert news sale help event"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
	TTLSeconds  int      `json:"ttl_seconds" validate:"omitempty,min=1,max=31536000"`
}

// GeoPoint is a GeoJSON point, coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `json:"type" validate:"required,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"len=2"`
}
