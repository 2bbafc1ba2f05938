package simulation

import (
	"math"

	"github.com/gimpo-goldline/congestion/internal/levels"
)

// Display clamp for segment congestion
const (
	MinDisplayCongestion = 10
	MaxDisplayCongestion = 280
)

// Segment is the ride between two consecutive stations
type Segment struct {
	From            string       `json:"from"`
	To              string       `json:"to"`
	Trains          int          `json:"trains"`
	Load            float64      `json:"load"`
	PersonsPerTrain int          `json:"personsPerTrain"`
	RawCongestion   float64      `json:"rawCongestion"`
	Congestion      float64      `json:"congestion"`
	Level           levels.Level `json:"level"`
}

// SegmentCongestion returns the unclamped percentage load / trains / rated * 100
func SegmentCongestion(load float64, trains int, rated float64) float64 {
	if trains <= 0 || rated <= 0 {
		return 0
	}
	return load / float64(trains) / rated * 100
}

// ClampDisplay limits a raw percentage to the display range
func ClampDisplay(raw float64) float64 {
	return math.Max(MinDisplayCongestion, math.Min(MaxDisplayCongestion, raw))
}

// Segments builds the breakdown for route segments starting at index from.
// The level is derived from the clamped value.
func (s *Simulator) Segments(res Result, route []string, from int) []Segment {
	if from < 0 {
		from = 0
	}
	var segments []Segment
	for i := from; i < len(route)-1; i++ {
		st := route[i]
		trains := res.Trains[st]
		if trains < 1 {
			trains = FallbackTrainCount(res.Hour)
		}
		load := res.Load[st]
		raw := SegmentCongestion(load, trains, s.cfg.RatedCapacity)
		clamped := ClampDisplay(raw)
		segments = append(segments, Segment{
			From:            st,
			To:              route[i+1],
			Trains:          trains,
			Load:            load,
			PersonsPerTrain: int(math.Round(load / float64(trains))),
			RawCongestion:   raw,
			Congestion:      clamped,
			Level:           levels.Lookup(clamped),
		})
	}
	return segments
}

// Boarding advice states
const (
	AdviceBoardNow     = "board_now"
	AdviceWait         = "wait"
	AdviceEntryControl = "entry_control"
)

// Queue and headway constants for boarding advice
const (
	EntryControlQueue   = 1500
	MinHeadwayMinutes   = 3
	MaxHeadwayMinutes   = 4
	EntryControlMinWait = 40
)

// Advice tells a passenger at the platform how long they will wait
type Advice struct {
	Status         string  `json:"status"`
	Queue          float64 `json:"queue"`
	WaitTrains     int     `json:"waitTrains"`
	MinWaitMinutes int     `json:"minWaitMinutes"`
	MaxWaitMinutes int     `json:"maxWaitMinutes,omitempty"`
}

// Advise converts a platform queue into boarding advice
func (s *Simulator) Advise(queue float64) Advice {
	switch {
	case queue <= 0:
		return Advice{Status: AdviceBoardNow}
	case queue > EntryControlQueue:
		return Advice{Status: AdviceEntryControl, Queue: queue, MinWaitMinutes: EntryControlMinWait}
	}
	waitTrains := int(math.Ceil(queue / s.cfg.TrainCapacity))
	return Advice{
		Status:         AdviceWait,
		Queue:          queue,
		WaitTrains:     waitTrains,
		MinWaitMinutes: waitTrains * MinHeadwayMinutes,
		MaxWaitMinutes: waitTrains * MaxHeadwayMinutes,
	}
}
