// Package ensemble predicts congestion from the most similar historical days,
// blended with a direct model prediction when one exists for the exact query.
package ensemble

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
)

var (
	// ErrInvalidStation is returned for station IDs the line does not have
	ErrInvalidStation = errors.New("invalid station")
	// ErrNoDataForDay is returned when neither the day nor its substitutes have data
	ErrNoDataForDay = errors.New("no data for this day")
)

// Ensemble constants
const (
	TopK             = 5
	OutlierThreshold = 400
	MLWeight         = 0.6
	KNNWeight        = 0.4
)

// Severity colours for the route breakdown
const (
	ColorRed    = "red"
	ColorYellow = "yellow"
	ColorGreen  = "green"
)

// ColorFor returns the severity colour band for a congestion value
func ColorFor(cong float64) string {
	switch {
	case cong > 80:
		return ColorRed
	case cong > 30:
		return ColorYellow
	default:
		return ColorGreen
	}
}

// RouteStation is one station in a route breakdown
type RouteStation struct {
	Station    string  `json:"station"`
	Congestion float64 `json:"congestion"`
	Color      string  `json:"color"`
}

// Query is a single prediction request
type Query struct {
	Date      time.Time
	Hour      int
	Station   string
	Direction line.Direction
	Weather   string
	IsHoliday bool
}

// Prediction is the ensemble output
type Prediction struct {
	Congestion  int            `json:"congestion"`
	KNNAverage  float64        `json:"knnAverage"`
	MatchCount  int            `json:"matchCount"`
	TopMatch    *Match         `json:"topMatch,omitempty"`
	MLComponent *float64       `json:"mlComponent,omitempty"`
	Route       []RouteStation `json:"route"`
}

// Predictor runs the KNN ensemble for one line
type Predictor struct {
	line *line.Line
}

// NewPredictor creates a Predictor
func NewPredictor(l *line.Line) *Predictor {
	return &Predictor{line: l}
}

// Predict scores every record in db against the query and blends the top
// matches with the direct model value, if present.
func (p *Predictor) Predict(q Query, db *history.Database) (Prediction, error) {
	if !p.line.HasStation(q.Station) {
		return Prediction{}, fmt.Errorf("%w: %s", ErrInvalidStation, q.Station)
	}

	target := NewTarget(q.Date, q.Weather, q.IsHoliday)
	matches := Rank(db, target)

	top := matches
	if len(top) > TopK {
		top = top[:TopK]
	}

	var sum float64
	count := 0
	for _, m := range top {
		v, ok := m.Record.Congestion(q.Hour, q.Station)
		if !ok || v > OutlierThreshold {
			continue
		}
		sum += v
		count++
	}

	pred := Prediction{MatchCount: count}
	if count > 0 {
		pred.KNNAverage = sum / float64(count)
	}

	if rec, ok := db.Days[q.Date.Format(history.DateLayout)]; ok {
		if v, ok := rec.ML(q.Hour, q.Station); ok {
			ml := v
			pred.MLComponent = &ml
		}
	}
	pred.Congestion = Blend(pred.MLComponent, pred.KNNAverage, count)

	if len(matches) > 0 {
		best := matches[0]
		pred.TopMatch = &best
		pred.Route = p.routeFrom(best.Record, q.Hour, q.Direction)
	} else {
		pred.Route = p.routeFrom(nil, q.Hour, q.Direction)
	}
	return pred, nil
}

// Blend combines the direct model value and the KNN average.
// With both present the result is round(0.6*ml + 0.4*knn); with only one the
// result is that value rounded; with neither it is 0.
func Blend(ml *float64, knn float64, knnCount int) int {
	switch {
	case ml != nil && knnCount > 0:
		return int(math.Round(MLWeight*(*ml) + KNNWeight*knn))
	case ml != nil:
		return int(math.Round(*ml))
	case knnCount > 0:
		return int(math.Round(knn))
	default:
		return 0
	}
}

func (p *Predictor) routeFrom(rec *history.DayRecord, hour int, dir line.Direction) []RouteStation {
	route := p.line.Route(dir)
	out := make([]RouteStation, 0, len(route))
	for _, st := range route {
		var v float64
		if rec != nil {
			v, _ = rec.Congestion(hour, st)
		}
		out = append(out, RouteStation{Station: st, Congestion: v, Color: ColorFor(v)})
	}
	return out
}

// ResolveDay returns label if db covers station on it, otherwise the first
// same-category substitute that does.
func ResolveDay(db *history.Database, station string, label history.DayLabel) (history.DayLabel, error) {
	if db.Covers(station, label) {
		return label, nil
	}
	for _, alt := range label.Substitutes() {
		if db.Covers(station, alt) {
			return alt, nil
		}
	}
	return "", fmt.Errorf("%w: %s on %s", ErrNoDataForDay, station, label)
}
