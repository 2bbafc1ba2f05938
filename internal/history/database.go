// Package history holds the read-only historical database: per-day congestion
// snapshots, optional direct-model predictions, holidays, usage counts and the
// timetable.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMalformed is returned when a database payload cannot be decoded
var ErrMalformed = errors.New("malformed historical database")

// Meta describes the calendar and weather context of a recorded day.
// DOW uses 0 = Sunday.
type Meta struct {
	DOW     int    `json:"dow"`
	Holiday bool   `json:"holiday"`
	Weekend bool   `json:"weekend"`
	Weather string `json:"weather"`
}

// StationCongestion is one station's congestion within an hourly snapshot
type StationCongestion struct {
	Station string  `json:"station"`
	Cong    float64 `json:"cong"`
}

// DayRecord is one historical day
type DayRecord struct {
	Date   string                      `json:"-"`
	Meta   Meta                        `json:"meta"`
	Hourly map[int][]StationCongestion `json:"hourly"`
	MLPred map[int]map[string]float64  `json:"ml_pred,omitempty"`
}

// Congestion returns the recorded congestion for station at hour
func (r *DayRecord) Congestion(hour int, station string) (float64, bool) {
	for _, sc := range r.Hourly[hour] {
		if sc.Station == station {
			return sc.Cong, true
		}
	}
	return 0, false
}

// ML returns the direct-model prediction for station at hour, if any
func (r *DayRecord) ML(hour int, station string) (float64, bool) {
	byStation, ok := r.MLPred[hour]
	if !ok {
		return 0, false
	}
	v, ok := byStation[station]
	return v, ok
}

// HolidayOrWeekend reports the record's combined holiday flag
func (r *DayRecord) HolidayOrWeekend() bool {
	return r.Meta.Holiday || r.Meta.Weekend
}

// Month returns the record's calendar month (1-12), or 0 if Date is unparseable
func (r *DayRecord) Month() int {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return 0
	}
	return int(t.Month())
}

// Counts is a station's hourly board/alight pair
type Counts struct {
	Board  float64 `json:"boardCount"`
	Alight float64 `json:"alightCount"`
}

// Usage maps station -> day label -> hour -> counts
type Usage map[string]map[DayLabel]map[int]Counts

// Timetable maps station -> direction -> day type -> hour -> departure minutes
type Timetable map[string]map[string]map[DayType]map[int]Minutes

// Metadata is database-wide information
type Metadata struct {
	Holidays []string `json:"holidays"`
}

// Database is the complete historical dataset. It is treated as immutable once
// decoded.
type Database struct {
	Metadata  Metadata
	Timetable Timetable
	Usage     Usage
	Days      map[string]*DayRecord
}

// reserved top-level keys; every other key is an ISO date
const (
	keyMetadata  = "metadata"
	keyTimetable = "timetable"
	keyUsage     = "usage"
)

// Decode parses a database payload. A payload with neither day records nor
// usage is malformed.
func Decode(data []byte) (*Database, error) {
	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if db.Empty() {
		return nil, fmt.Errorf("%w: no day records or usage", ErrMalformed)
	}
	return &db, nil
}

// Empty reports whether db has no day records and no usage table
func (db *Database) Empty() bool {
	return len(db.Days) == 0 && len(db.Usage) == 0
}

// UnmarshalJSON accepts a flat object whose keys are either reserved sections
// or ISO dates. Unknown non-date keys are ignored.
func (db *Database) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	db.Days = make(map[string]*DayRecord)
	for key, value := range raw {
		switch key {
		case keyMetadata:
			if err := json.Unmarshal(value, &db.Metadata); err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
		case keyTimetable:
			if err := json.Unmarshal(value, &db.Timetable); err != nil {
				return fmt.Errorf("timetable: %w", err)
			}
		case keyUsage:
			if err := json.Unmarshal(value, &db.Usage); err != nil {
				return fmt.Errorf("usage: %w", err)
			}
		default:
			if _, err := time.Parse(DateLayout, key); err != nil {
				continue
			}
			rec := &DayRecord{}
			if err := json.Unmarshal(value, rec); err != nil {
				return fmt.Errorf("day %s: %w", key, err)
			}
			rec.Date = key
			db.Days[key] = rec
		}
	}
	return nil
}

// MarshalJSON writes the same flat shape UnmarshalJSON reads
func (db *Database) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(db.Days)+3)
	if len(db.Metadata.Holidays) > 0 {
		out[keyMetadata] = db.Metadata
	}
	if db.Timetable != nil {
		out[keyTimetable] = db.Timetable
	}
	if db.Usage != nil {
		out[keyUsage] = db.Usage
	}
	for date, rec := range db.Days {
		out[date] = rec
	}
	return json.Marshal(out)
}

// Dates returns record dates in ascending order. This is the enumeration
// order used for tie-breaking.
func (db *Database) Dates() []string {
	dates := make([]string, 0, len(db.Days))
	for d := range db.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// IsHoliday reports whether date (YYYY-MM-DD) is in the holiday list
func (db *Database) IsHoliday(date string) bool {
	for _, h := range db.Metadata.Holidays {
		if h == date {
			return true
		}
	}
	return false
}

// Covers reports whether the database has any data for station on days
// matching label. Usage coverage is authoritative when a usage table exists;
// otherwise day records are scanned.
func (db *Database) Covers(station string, label DayLabel) bool {
	if db.Usage != nil {
		byDay, ok := db.Usage[station]
		if !ok {
			return false
		}
		hours, ok := byDay[label]
		return ok && len(hours) > 0
	}

	wd, hasWeekday := label.Weekday()
	for _, rec := range db.Days {
		if label == Holiday {
			if !rec.Meta.Holiday {
				continue
			}
		} else if !hasWeekday || rec.Meta.DOW != int(wd) {
			continue
		}
		for _, snapshot := range rec.Hourly {
			for _, sc := range snapshot {
				if sc.Station == station {
					return true
				}
			}
		}
	}
	return false
}
