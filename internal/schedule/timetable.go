// Package schedule answers timetable questions: how many trains leave a station
// in an hour and which departures come next.
package schedule

import (
	"fmt"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
)

// lookahead is how many hours Next scans, including the current one
const lookahead = 3

// lastServiceHour bounds Next; departures after midnight are listed as hour 24
const lastServiceHour = 24

// Timetable wraps the raw timetable. A nil *Timetable has no entries.
type Timetable struct {
	data history.Timetable
}

// New creates a Timetable over raw data
func New(data history.Timetable) *Timetable {
	return &Timetable{data: data}
}

// Train is a single scheduled departure
type Train struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// String formats the departure as HH:MM
func (t Train) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Departures returns departure minutes for a station/direction/day type/hour
func (t *Timetable) Departures(station string, dir line.Direction, dayType history.DayType, hour int) (history.Minutes, bool) {
	if t == nil || t.data == nil {
		return nil, false
	}
	byDir, ok := t.data[station]
	if !ok {
		return nil, false
	}
	byDay, ok := byDir[string(dir)]
	if !ok {
		return nil, false
	}
	byHour, ok := byDay[dayType]
	if !ok {
		return nil, false
	}
	mins, ok := byHour[hour]
	return mins, ok
}

// TrainCount returns the number of scheduled departures in the hour.
// It reports false when there is no entry or the entry is empty.
func (t *Timetable) TrainCount(station string, dir line.Direction, dayType history.DayType, hour int) (int, bool) {
	mins, ok := t.Departures(station, dir, dayType, hour)
	if !ok || len(mins) == 0 {
		return 0, false
	}
	return len(mins), true
}

// Next returns up to n departures strictly after hour:minute, scanning the
// current hour and the following two.
func (t *Timetable) Next(station string, dir line.Direction, dayType history.DayType, hour, minute, n int) []Train {
	var trains []Train
	h := hour
	for i := 0; i < lookahead && h <= lastServiceHour; i++ {
		mins, _ := t.Departures(station, dir, dayType, h)
		for _, m := range mins {
			if i > 0 || m > minute {
				trains = append(trains, Train{Hour: h, Minute: m})
				if len(trains) >= n {
					return trains
				}
			}
		}
		h++
	}
	return trains
}
