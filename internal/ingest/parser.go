package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"
	"proxify/pkg/validator"
)

// Parse decodes an alert.created envelope into an alert without id or
// timestamps. A non-zero TTL comes back separately; zero means the store default.
func Parse(body []byte) (domain.Alert, time.Duration, error) {
	const op = "ingest.Parse"

	var ev domain.AlertEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return domain.Alert{}, 0, fmt.Errorf("%s: decode: %v: %w", op, err, e.ErrInvalidEvent)
	}
	if err := validator.ValidateStruct(ev); err != nil {
		return domain.Alert{}, 0, fmt.Errorf("%s: %v: %w", op, err, e.ErrInvalidEvent)
	}

	lng, lat := ev.Data.Location.Coordinates[0], ev.Data.Location.Coordinates[1]
	if !domain.ValidCoordinates(lat, lng) {
		return domain.Alert{}, 0, fmt.Errorf("%s: (%v, %v): %w: %w", op, lat, lng, e.ErrInvalidEvent, e.ErrInvalidCoordinates)
	}

	alert := domain.Alert{
		Lat:    lat,
		Lng:    lng,
		Status: domain.StatusPending,
		Payload: domain.Payload{
			Message:     ev.Data.Message,
			Severity:    ev.Data.Severity,
			Source:      ev.Data.Source,
			Category:    ev.Data.Category,
			Attachments: ev.Data.Attachments,
		},
	}
	return alert, time.Duration(ev.Data.TTLSeconds) * time.Second, nil
}
