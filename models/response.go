package models

// ReportsResponse is returned by the reports listing endpoint
type ReportsResponse struct {
	Loading bool        `json:"loading"`
	Reports []ReportRow `json:"reports"`
}

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive   bool   `json:"alive"`
	Backend string `json:"backend"`
	Loading bool   `json:"loading"`
}

// ErrorMessageResponse wraps an error written back to an API caller
type ErrorMessageResponse struct {
	Response MessageError `json:"response"`
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
