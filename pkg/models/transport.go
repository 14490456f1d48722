package models

// UploadForm carries the non-file fields of an upload request.
type UploadForm struct {
	Source string `form:"source" binding:"omitempty,oneof=drop picker"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Time           string `json:"time"`
	ActiveSessions int    `json:"active_sessions"`
}
