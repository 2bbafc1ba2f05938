package models

import "time"

// StationLoad is one station's simulated state at the target hour
type StationLoad struct {
	Station string  `json:"station"`
	Load    float64 `json:"load"`
	Queue   float64 `json:"queue"`
	Trains  int     `json:"trains"`
}

// Segment is the simulated ride between two consecutive stations
type Segment struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Trains          int     `json:"trains"`
	PersonsPerTrain int     `json:"personsPerTrain"`
	RawCongestion   float64 `json:"rawCongestion"`
	Congestion      float64 `json:"congestion"` // clamped to the display range
	Level           Level   `json:"level"`
}

// Advice is the boarding recommendation at the queried station
type Advice struct {
	Status         string  `json:"status"` // "board_now", "wait", "entry_control"
	Queue          float64 `json:"queue"`
	WaitTrains     int     `json:"waitTrains"`
	MinWaitMinutes int     `json:"minWaitMinutes"`
	MaxWaitMinutes int     `json:"maxWaitMinutes,omitempty"`
}

// SimulateResponse is the JSON response for GET /api/simulate
type SimulateResponse struct {
	Success     bool          `json:"success"`
	Status      string        `json:"status"`
	RequestID   string        `json:"requestId"`
	Query       QueryEcho     `json:"query"`
	DataDay     string        `json:"dataDay"`
	Stations    []StationLoad `json:"stations"`
	Segments    []Segment     `json:"segments"`
	Advice      Advice        `json:"advice"`
	Source      string        `json:"source,omitempty"`
	Mode        string        `json:"mode,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}
