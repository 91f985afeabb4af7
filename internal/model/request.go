package model

import "encoding/json"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

// GoogleLoginRequest carries the ID token returned by Google sign-in.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

type VisibilityRequest struct {
	State string `json:"state"`
}

type QuoteRequest struct {
	FromDate   string   `json:"from_date"`
	FromTime   string   `json:"from_time"`
	ToDate     string   `json:"to_date"`
	ToTime     string   `json:"to_time"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
	// Policy is "advance" (default) or "clamp".
	Policy string `json:"policy,omitempty"`
}

type QuoteResponse struct {
	FromDate      string  `json:"from_date"`
	FromTime      string  `json:"from_time"`
	ToDate        string  `json:"to_date"`
	ToTime        string  `json:"to_time"`
	Corrected     bool    `json:"corrected"`
	DurationHours float64 `json:"duration_hours"`
	HourlyRate    float64 `json:"hourly_rate"`
	Price         float64 `json:"price"`
	From          string  `json:"from"`
	To            string  `json:"to"`
}

type LoginResponse struct {
	Session    any             `json:"session"`
	RedirectTo string          `json:"redirect_to,omitempty"`
	User       json.RawMessage `json:"user,omitempty"`
}

type PublicConfig struct {
	GoogleMapsAPIKey string `json:"google_maps_api_key"`
	GoogleClientID   string `json:"google_client_id"`
	SentryDSN        string `json:"sentry_dsn,omitempty"`
	GAMeasurementID  string `json:"ga_measurement_id,omitempty"`
}
