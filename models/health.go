package models

import "time"

// Resolver state constants
const (
	DataCached = "cached"
	DataCold   = "cold" // nothing resolved yet, or the last attempt failed
)

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string     `json:"status"`
	Data      string     `json:"data"`
	Source    string     `json:"source,omitempty"`
	Days      int        `json:"days"`
	LoadedAt  *time.Time `json:"loadedAt,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// LevelsResponse is the JSON response for GET /api/levels
type LevelsResponse struct {
	Levels []Level `json:"levels"`
	Count  int     `json:"count"`
}
