package ensemble

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/metrics"
)

// BacktestOptions controls a leave-one-out evaluation
type BacktestOptions struct {
	Samples int   // number of days to sample; 0 means every day
	Seed    int64 // sampling seed
}

// BacktestPoint is one evaluated (date, hour, station)
type BacktestPoint struct {
	Date      string  `json:"date"`
	Hour      int     `json:"hour"`
	Station   string  `json:"station"`
	Actual    float64 `json:"actual"`
	Predicted int     `json:"predicted"`
}

// BacktestResult summarizes a backtest
type BacktestResult struct {
	Summary metrics.Summary `json:"summary"`
	Skipped int             `json:"skipped"`
	Points  []BacktestPoint `json:"points"`
}

// Backtest predicts one random station-hour per sampled day using every other
// day as history and compares against the recorded value. Recorded values
// above OutlierThreshold and points with no surviving neighbours are skipped.
func (p *Predictor) Backtest(db *history.Database, opts BacktestOptions) (BacktestResult, error) {
	r := rand.New(rand.NewSource(opts.Seed))

	dates := db.Dates()
	r.Shuffle(len(dates), func(i, j int) { dates[i], dates[j] = dates[j], dates[i] })
	if opts.Samples > 0 && opts.Samples < len(dates) {
		dates = dates[:opts.Samples]
	}

	var stats metrics.ErrorStats
	result := BacktestResult{}

	for _, date := range dates {
		rec := db.Days[date]
		hours := make([]int, 0, len(rec.Hourly))
		for h, entries := range rec.Hourly {
			if len(entries) > 0 {
				hours = append(hours, h)
			}
		}
		if len(hours) == 0 {
			result.Skipped++
			continue
		}
		sort.Ints(hours)
		hour := hours[r.Intn(len(hours))]
		entry := rec.Hourly[hour][r.Intn(len(rec.Hourly[hour]))]

		if entry.Cong > OutlierThreshold {
			result.Skipped++
			continue
		}

		d, err := time.Parse(history.DateLayout, date)
		if err != nil {
			result.Skipped++
			continue
		}

		pred, err := p.Predict(Query{
			Date:      d,
			Hour:      hour,
			Station:   entry.Station,
			Weather:   rec.Meta.Weather,
			IsHoliday: rec.Meta.Holiday,
		}, without(db, date))
		if errors.Is(err, ErrInvalidStation) {
			result.Skipped++
			continue
		}
		if err != nil {
			return BacktestResult{}, err
		}
		if pred.MatchCount == 0 && pred.MLComponent == nil {
			result.Skipped++
			continue
		}

		stats.Observe(float64(pred.Congestion), entry.Cong)
		result.Points = append(result.Points, BacktestPoint{
			Date:      date,
			Hour:      hour,
			Station:   entry.Station,
			Actual:    entry.Cong,
			Predicted: pred.Congestion,
		})
	}

	result.Summary = stats.Summary()
	return result, nil
}

// without returns a shallow copy of db lacking the given day
func without(db *history.Database, date string) *history.Database {
	days := make(map[string]*history.DayRecord, len(db.Days))
	for d, rec := range db.Days {
		if d != date {
			days[d] = rec
		}
	}
	return &history.Database{
		Metadata:  db.Metadata,
		Timetable: db.Timetable,
		Usage:     db.Usage,
		Days:      days,
	}
}
