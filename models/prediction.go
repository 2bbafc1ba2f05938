package models

import "time"

// Level is a congestion severity tier
type Level struct {
	Rank        int     `json:"rank"`
	Threshold   float64 `json:"threshold"`
	Icon        string  `json:"icon"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// RouteStation is one station of the route breakdown
type RouteStation struct {
	Station    string  `json:"station"`
	Congestion float64 `json:"congestion"`
	Color      string  `json:"color"` // "red", "yellow", "green"
}

// Departure is an upcoming scheduled train
type Departure struct {
	Time   string `json:"time"` // HH:MM
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// Diagnostics explains how a prediction was produced
type Diagnostics struct {
	MatchCount    int      `json:"matchCount"`
	KNNAverage    float64  `json:"knnAverage"`
	TopMatchDate  string   `json:"topMatchDate,omitempty"`
	TopMatchScore int      `json:"topMatchScore,omitempty"`
	MLComponent   *float64 `json:"mlComponent,omitempty"`
	DataDay       string   `json:"dataDay,omitempty"`
	Source        string   `json:"source,omitempty"`
	Mode          string   `json:"mode,omitempty"` // "EMERGENCY_MODE" when degraded
	Degraded      bool     `json:"degraded"`
}

// QueryEcho is the normalized query a response answers
type QueryEcho struct {
	Station   string `json:"station"`
	Direction string `json:"direction"`
	Day       string `json:"day"`
	Date      string `json:"date"`
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	Weather   string `json:"weather"`
	Holiday   bool   `json:"holiday"`
}

// PredictResponse is the JSON response for GET /api/predict
type PredictResponse struct {
	Success     bool           `json:"success"`
	Status      string         `json:"status"` // "ok", "degraded"
	RequestID   string         `json:"requestId"`
	Query       QueryEcho      `json:"query"`
	Congestion  int            `json:"congestion"`
	Level       Level          `json:"level"`
	Route       []RouteStation `json:"route"`
	NextTrains  []Departure    `json:"nextTrains"`
	Diagnostics Diagnostics    `json:"diagnostics"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
