package ensemble

import (
	"sort"
	"time"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// Similarity weights. A record matching day of week, holiday category,
// weather and month scores MaxScore.
const (
	WeightDayOfWeek     = 50
	WeightHoliday       = 30
	WeightWeather       = 20
	WeightMonth         = 10
	WeightAdjacentMonth = 5

	MaxScore = WeightDayOfWeek + WeightHoliday + WeightWeather + WeightMonth
)

// Target is the calendar context a query is scored against
type Target struct {
	Date      time.Time
	DOW       int // 0 = Sunday
	IsHoliday bool
	Weather   string
	Month     int // 1-12
}

// NewTarget derives a Target from a date. Weekends always count as holidays.
func NewTarget(date time.Time, weather string, isHoliday bool) Target {
	return Target{
		Date:      date,
		DOW:       int(date.Weekday()),
		IsHoliday: isHoliday || history.IsWeekend(date),
		Weather:   weather,
		Month:     int(date.Month()),
	}
}

// Match is a scored historical day
type Match struct {
	Date   string             `json:"date"`
	Score  int                `json:"score"`
	Record *history.DayRecord `json:"-"`
}

// Score rates how similar a record is to the target
func Score(rec *history.DayRecord, t Target) int {
	score := 0
	if rec.Meta.DOW == t.DOW {
		score += WeightDayOfWeek
	}
	if rec.HolidayOrWeekend() == t.IsHoliday {
		score += WeightHoliday
	}
	if rec.Meta.Weather == t.Weather {
		score += WeightWeather
	}

	m := rec.Month()
	switch {
	case m == t.Month:
		score += WeightMonth
	case m != 0 && abs(m-t.Month) <= 1:
		score += WeightAdjacentMonth
	}
	return score
}

// Rank scores every record and orders them by descending score. Ties keep
// ascending date order.
func Rank(db *history.Database, t Target) []Match {
	dates := db.Dates()
	matches := make([]Match, 0, len(dates))
	for _, d := range dates {
		rec := db.Days[d]
		matches = append(matches, Match{Date: d, Score: Score(rec, t), Record: rec})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
