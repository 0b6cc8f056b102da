package domain

import (
	"time"

	"github.com/google/uuid"
)

type NearbyAlert struct {
	ID         uuid.UUID   `json:"id"`
	DistanceKM float64     `json:"distance_km"`
	Lat        float64     `json:"lat"`
	Lng        float64     `json:"lng"`
	Payload    Payload     `json:"payload"`
	Status     AlertStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

type NearbyResponse struct {
	Alerts []NearbyAlert `json:"alerts"`
	Count  int           `json:"count"`
}
