// Package simulation runs the hour-stepped capacity and queueing model that
// turns ridership counts and train frequency into per-station onboard load and
// leftover platform queue.
//
// State exists only for the duration of one call. Given the same inputs the
// result is bit-identical.
package simulation

import (
	"math"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/ridership"
)

// Config holds the simulation constants
type Config struct {
	OpeningHour     int     // first simulated hour
	TrainCapacity   float64 // passengers one train can physically carry
	RatedCapacity   float64 // passengers at 100% congestion
	OvercrowdFactor float64 // amplification applied to raw boarding counts
	PeakShare       float64 // share of demand in the favoured direction at peak
}

// DefaultConfig returns the Goldline constants
func DefaultConfig() Config {
	return Config{
		OpeningHour:     5,
		TrainCapacity:   240,
		RatedCapacity:   172,
		OvercrowdFactor: 1.25,
		PeakShare:       0.95,
	}
}

// Counter reports scheduled trains per station-hour
type Counter interface {
	TrainCount(station string, dir line.Direction, dayType history.DayType, hour int) (int, bool)
}

// Query selects what to simulate
type Query struct {
	TargetHour int
	Direction  line.Direction
	DayType    history.DayType
	Route      []string // stations in travel order
}

// HourState is the per-station outcome of one simulated hour
type HourState struct {
	Hour   int                `json:"hour"`
	Load   map[string]float64 `json:"load"`
	Queue  map[string]float64 `json:"queue"`
	Trains map[string]int     `json:"trains"`
}

// Result is the state at the target hour
type Result = HourState

// Simulator runs the capacity model over injected ridership and schedule sources
type Simulator struct {
	cfg       Config
	ridership ridership.Provider
	schedule  Counter
}

// New creates a Simulator. Nil sources fall back to documented defaults.
func New(cfg Config, riders ridership.Provider, sched Counter) *Simulator {
	return &Simulator{cfg: cfg, ridership: riders, schedule: sched}
}

// Config returns the simulator's constants
func (s *Simulator) Config() Config {
	return s.cfg
}

// DirectionalRatio returns the share of a station's demand travelling in dir.
// On weekdays, hours 5-9 favour ToAirport and hours 17-21 favour ToTerminus.
func (s *Simulator) DirectionalRatio(hour int, dayType history.DayType, dir line.Direction) float64 {
	base := 0.5
	if dayType == history.Weekday {
		if hour >= 5 && hour <= 9 {
			base = s.cfg.PeakShare
		} else if hour >= 17 && hour <= 21 {
			base = 1 - s.cfg.PeakShare
		}
	}
	if dir == line.ToAirport {
		return base
	}
	return 1 - base
}

// FallbackTrainCount is used when the schedule has no entry
func FallbackTrainCount(hour int) int {
	if hour >= 7 && hour <= 9 {
		return 21
	}
	return 6
}

// TrainCount returns the scheduled trains for a station-hour, or the fallback
func (s *Simulator) TrainCount(station string, dir line.Direction, dayType history.DayType, hour int) int {
	if s.schedule != nil {
		if n, ok := s.schedule.TrainCount(station, dir, dayType, hour); ok && n >= 1 {
			return n
		}
	}
	return FallbackTrainCount(hour)
}

// Simulate returns per-station load and queue at the target hour
func (s *Simulator) Simulate(q Query) Result {
	trace := s.Trace(q)
	if len(trace) == 0 {
		return emptyState(q.TargetHour, q.Route)
	}
	return trace[len(trace)-1]
}

// Trace returns the state after every simulated hour from the opening hour up
// to and including the target hour. The state at hour h depends only on
// inputs for hours <= h.
func (s *Simulator) Trace(q Query) []HourState {
	queues := make(map[string]float64, len(q.Route))
	for _, st := range q.Route {
		queues[st] = 0
	}

	var trace []HourState
	for hour := s.cfg.OpeningHour; hour <= q.TargetHour; hour++ {
		state := emptyState(hour, q.Route)
		ratio := s.DirectionalRatio(hour, q.DayType, q.Direction)
		onboard := 0.0

		for _, st := range q.Route {
			counts := ridership.Get(s.ridership, st, hour)

			demand := counts.Board*ratio*s.cfg.OvercrowdFactor + queues[st]

			alighting := math.Min(counts.Alight*ratio, onboard)
			remaining := onboard - alighting

			trains := s.TrainCount(st, q.Direction, q.DayType, hour)
			available := float64(trains)*s.cfg.TrainCapacity - remaining

			boarded := math.Min(demand, math.Max(0, available))
			queues[st] = demand - boarded
			onboard = remaining + boarded

			state.Load[st] = onboard
			state.Queue[st] = queues[st]
			state.Trains[st] = trains
		}
		trace = append(trace, state)
	}
	return trace
}

func emptyState(hour int, route []string) HourState {
	return HourState{
		Hour:   hour,
		Load:   make(map[string]float64, len(route)),
		Queue:  make(map[string]float64, len(route)),
		Trains: make(map[string]int, len(route)),
	}
}
