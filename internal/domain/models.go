// Package domain provides domain models for the application
package domain

import (
	"encoding/json"
	"time"
)

// PredictionRequest is the flight payload received from the flight API and
// forwarded to the ML service after validation.
type PredictionRequest struct {
	FlightNumber        string `json:"flightNumber"`
	CompanyName         string `json:"companyName"`
	FlightOrigin        string `json:"flightOrigin"`
	FlightDestination   string `json:"flightDestination"`
	FlightDepartureDate string `json:"flightDepartureDate"`
	FlightDistance      int64  `json:"flightDistance"`
}

// PredictionResult is the raw JSON object returned by the ML service.
// Expected shape is {"prediction": 0|1, "probability": 0.0-1.0} but it is
// relayed as-is.
type PredictionResult json.RawMessage

// Summary is a best-effort view of the result used for logging only.
type Summary struct {
	Prediction  *int     `json:"prediction"`
	Probability *float64 `json:"probability"`
}

// Summarize extracts prediction and probability when present.
func (r PredictionResult) Summarize() Summary {
	var s Summary
	_ = json.Unmarshal(r, &s)
	return s
}

// Health status values
const (
	StatusUp       = "UP"
	StatusDown     = "DOWN"
	StatusDegraded = "DEGRADED"
)

// HealthStatus is the outcome of the ML service liveness probe
type HealthStatus struct {
	Status    string `json:"status"`
	MLService string `json:"ml_service"`
}

// IsUp reports whether the probe succeeded
func (h HealthStatus) IsUp() bool {
	return h.Status == StatusUp
}

// Violation describes one failed field constraint
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PredictionLog is an audit row for one forwarded prediction
type PredictionLog struct {
	ID           int64           `json:"id"`
	RequestID    string          `json:"request_id"`
	FlightNumber string          `json:"flight_number"`
	Request      json.RawMessage `json:"request"`
	Outcome      string          `json:"outcome"`
	StatusCode   *int            `json:"status_code"`
	Result       json.RawMessage `json:"result"`
	LatencyMs    int64           `json:"latency_ms"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Error messages returned to the caller
const (
	MsgEmptyBody   = "Empty request body"
	MsgInvalidData = "Invalid data"
	MsgWrapper     = "Integration wrapper error"
)

// ErrorResponse is the body for empty-body and wrapper errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse is the body for field validation failures
type ValidationErrorResponse struct {
	Error   string      `json:"error"`
	Details []Violation `json:"details"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string        `json:"status"`
	Service   string        `json:"service"`
	MLService *HealthStatus `json:"ml_service,omitempty"`
	Error     string        `json:"error,omitempty"`
}
