package domain

type CreateAlertRequest struct {
	Lat         float64  `json:"lat" validate:"lat"`
	Lng         float64  `json:"lng" validate:"lng"`
	Message     string   `json:"message" validate:"required,min=1"`
	Severity    int      `json:"severity" validate:"required,min=1,max=5"`
	Source      string   `json:"source"`
	Category    Category `json:"category" validate:"required,oneof=alert news sale help event"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
	TTLSeconds  int      `json:"ttl_seconds" validate:"omitempty,min=1,max=31536000"`
}

// ReplaceAlertRequest swaps the whole alert content under an existing id.
type ReplaceAlertRequest = CreateAlertRequest

type NearbyRequest struct {
	Lat      float64 `query:"lat" validate:"lat"`
	Lng      float64 `query:"lng" validate:"lng"`
	RadiusKM float64 `query:"radius_km" validate:"radius_km"`
	Limit    int     `query:"limit" validate:"min=0,max=1000"`
}

type KNNRequest struct {
	Lat float64 `query:"lat" validate:"lat"`
	Lng float64 `query:"lng" validate:"lng"`
	K   int     `query:"k" validate:"min=1,max=1000"`
}
