package congestion

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/ridership"
)

// ErrInvalidQuery is returned for malformed query parameters
var ErrInvalidQuery = errors.New("invalid query")

// Request carries raw query parameters. Nil pointers mean "not given".
type Request struct {
	Station   string
	Direction string
	Day       string // day label, e.g. "Mon" or "월"
	Date      string // YYYY-MM-DD, takes precedence over Day
	Hour      *int
	Minute    *int
	Weather   string
	Holiday   *bool
}

// Query is a normalized request
type Query struct {
	Station   string           `json:"station"`
	Direction line.Direction   `json:"direction"`
	Day       history.DayLabel `json:"day"`
	Date      time.Time        `json:"-"`
	DateStr   string           `json:"date"`
	Hour      int              `json:"hour"`
	Minute    int              `json:"minute"`
	Weather   string           `json:"weather"`
	Holiday   bool             `json:"holiday"`
}

// DayType returns the timetable classification of the query's day
func (q Query) DayType() history.DayType {
	if q.Holiday {
		return history.Weekend
	}
	return q.Day.Type()
}

// normalize resolves station and direction aliases, the target date and
// defaults taken from the current time in the line's timezone. db may be nil
// when no database is available; holiday detection is then skipped.
func (e *Estimator) normalize(req Request, db *history.Database) (Query, error) {
	station, ok := e.line.ResolveStation(req.Station)
	if !ok {
		return Query{}, fmt.Errorf("%w: %q", ensemble.ErrInvalidStation, req.Station)
	}
	dir, ok := e.line.ResolveDirection(req.Direction)
	if !ok {
		return Query{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidQuery, req.Direction)
	}

	now := e.now().In(e.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)

	q := Query{Station: station, Direction: dir}

	switch {
	case strings.TrimSpace(req.Date) != "":
		d, err := time.ParseInLocation(history.DateLayout, strings.TrimSpace(req.Date), e.loc)
		if err != nil {
			return Query{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidQuery)
		}
		q.Date = d
		q.Day = history.LabelFor(d.Weekday())
	case strings.TrimSpace(req.Day) != "":
		label, ok := history.ParseDayLabel(req.Day)
		if !ok {
			return Query{}, fmt.Errorf("%w: unknown day %q", ErrInvalidQuery, req.Day)
		}
		q.Day = label
		q.Date = history.NextDate(label, now)
		if label == history.Holiday {
			q.Holiday = true
		}
	default:
		q.Date = today
		q.Day = history.LabelFor(now.Weekday())
	}
	q.DateStr = q.Date.Format(history.DateLayout)

	q.Hour = now.Hour()
	if req.Hour != nil {
		if *req.Hour < 0 || *req.Hour > 23 {
			return Query{}, fmt.Errorf("%w: hour must be 0-23", ErrInvalidQuery)
		}
		q.Hour = *req.Hour
	}
	q.Minute = now.Minute()
	if req.Minute != nil {
		if *req.Minute < 0 || *req.Minute > 59 {
			return Query{}, fmt.Errorf("%w: minute must be 0-59", ErrInvalidQuery)
		}
		q.Minute = *req.Minute
	}

	switch {
	case req.Holiday != nil:
		q.Holiday = q.Holiday || *req.Holiday
	case db != nil && db.IsHoliday(q.DateStr):
		q.Holiday = true
	}
	if q.Holiday {
		q.Day = history.Holiday
	}

	q.Weather = strings.TrimSpace(req.Weather)
	if q.Weather == "" {
		q.Weather = ridership.DefaultWeather
		if e.model != nil {
			q.Weather = e.model.ForecastWeather(q.DateStr)
		}
	}
	return q, nil
}
