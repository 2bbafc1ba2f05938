// Package congestion answers congestion queries end to end: it normalizes the
// request, resolves the historical database and runs either the ensemble
// predictor or, when no database is reachable, the heuristic generator.
package congestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/heuristic"
	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/levels"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/resolver"
	"github.com/gimpo-goldline/congestion/internal/ridership"
	"github.com/gimpo-goldline/congestion/internal/schedule"
	"github.com/gimpo-goldline/congestion/internal/simulation"
)

// Status is the outcome class of an estimate
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusError    Status = "error"
)

// NextTrainCount is how many upcoming departures an estimate lists
const NextTrainCount = 3

// Resolver supplies the historical database
type Resolver interface {
	Resolve(ctx context.Context) resolver.Resolution
}

// Estimate is the answer to one prediction query
type Estimate struct {
	Status      Status                  `json:"status"`
	Query       Query                   `json:"query"`
	DataDay     history.DayLabel        `json:"dataDay,omitempty"`
	Congestion  int                     `json:"congestion"`
	Level       levels.Level            `json:"level"`
	Route       []ensemble.RouteStation `json:"route"`
	NextTrains  []schedule.Train        `json:"nextTrains"`
	MatchCount  int                     `json:"matchCount"`
	KNNAverage  float64                 `json:"knnAverage"`
	TopMatch    *ensemble.Match         `json:"topMatch,omitempty"`
	MLComponent *float64                `json:"mlComponent,omitempty"`
	Source      string                  `json:"source,omitempty"`
	Mode        string                  `json:"mode,omitempty"`
}

// Options configures an Estimator
type Options struct {
	Location           *time.Location
	Model              *ridership.Model
	Simulation         simulation.Config
	EndpointMultiplier float64
	Now                func() time.Time
}

// Estimator orchestrates a single line's estimates
type Estimator struct {
	line      *line.Line
	loc       *time.Location
	resolver  Resolver
	predictor *ensemble.Predictor
	heuristic *heuristic.Generator
	model     *ridership.Model
	simCfg    simulation.Config
	now       func() time.Time
}

// NewEstimator creates an Estimator. Zero-valued options fall back to the
// line's timezone, the default simulation constants and time.Now.
func NewEstimator(l *line.Line, r Resolver, opts Options) (*Estimator, error) {
	loc := opts.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(l.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone %q: %w", l.Timezone, err)
		}
	}
	simCfg := opts.Simulation
	if simCfg.TrainCapacity == 0 {
		simCfg = simulation.DefaultConfig()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Estimator{
		line:      l,
		loc:       loc,
		resolver:  r,
		predictor: ensemble.NewPredictor(l),
		heuristic: heuristic.New(l, opts.EndpointMultiplier),
		model:     opts.Model,
		simCfg:    simCfg,
		now:       now,
	}, nil
}

// Line returns the estimator's line definition
func (e *Estimator) Line() *line.Line {
	return e.line
}

// Predict answers a congestion query. Unreachable data degrades to heuristic
// figures with StatusDegraded; only client errors are returned as errors.
func (e *Estimator) Predict(ctx context.Context, req Request) (Estimate, error) {
	res := e.resolver.Resolve(ctx)
	if res.Degraded || res.DB == nil {
		return e.degraded(req, res)
	}

	db := res.DB
	q, err := e.normalize(req, db)
	if err != nil {
		return Estimate{Status: StatusError}, err
	}

	dataDay, err := ensemble.ResolveDay(db, q.Station, q.Day)
	if err != nil {
		return Estimate{Status: StatusError, Query: q}, err
	}

	pred, err := e.predictor.Predict(ensemble.Query{
		Date:      q.Date,
		Hour:      q.Hour,
		Station:   q.Station,
		Direction: q.Direction,
		Weather:   q.Weather,
		IsHoliday: q.Holiday,
	}, db)
	if err != nil {
		return Estimate{Status: StatusError, Query: q}, err
	}

	next := schedule.New(db.Timetable).Next(q.Station, q.Direction, q.DayType(), q.Hour, q.Minute, NextTrainCount)
	if next == nil {
		next = []schedule.Train{}
	}

	return Estimate{
		Status:      StatusOK,
		Query:       q,
		DataDay:     dataDay,
		Congestion:  pred.Congestion,
		Level:       levels.Lookup(float64(pred.Congestion)),
		Route:       pred.Route,
		NextTrains:  next,
		MatchCount:  pred.MatchCount,
		KNNAverage:  pred.KNNAverage,
		TopMatch:    pred.TopMatch,
		MLComponent: pred.MLComponent,
		Source:      res.Source,
	}, nil
}

func (e *Estimator) degraded(req Request, res resolver.Resolution) (Estimate, error) {
	q, err := e.normalize(req, nil)
	if err != nil {
		return Estimate{Status: StatusError}, err
	}

	pct, route := e.heuristic.Estimate(q.Hour, q.Station, q.Direction)
	mode := res.Mode
	if mode == "" {
		mode = resolver.ModeEmergency
	}
	return Estimate{
		Status:     StatusDegraded,
		Query:      q,
		Congestion: int(pct),
		Level:      levels.Lookup(pct),
		Route:      route,
		NextTrains: []schedule.Train{},
		Mode:       mode,
	}, nil
}

// IsClientError reports whether err was caused by the request itself
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ensemble.ErrInvalidStation) ||
		errors.Is(err, ensemble.ErrNoDataForDay)
}
