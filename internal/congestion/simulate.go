package congestion

import (
	"context"

	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/resolver"
	"github.com/gimpo-goldline/congestion/internal/ridership"
	"github.com/gimpo-goldline/congestion/internal/schedule"
	"github.com/gimpo-goldline/congestion/internal/simulation"
)

// StationState is one station's simulated state at the target hour
type StationState struct {
	Station string  `json:"station"`
	Load    float64 `json:"load"`
	Queue   float64 `json:"queue"`
	Trains  int     `json:"trains"`
}

// SimulationReport is the capacity simulation for one query
type SimulationReport struct {
	Status   Status               `json:"status"`
	Query    Query                `json:"query"`
	DataDay  history.DayLabel     `json:"dataDay"`
	Stations []StationState       `json:"stations"`
	Segments []simulation.Segment `json:"segments"`
	Advice   simulation.Advice    `json:"advice"`
	Source   string               `json:"source,omitempty"`
	Mode     string               `json:"mode,omitempty"`
}

// Simulate runs the capacity model for the query's direction and hour.
// Missing ridership or schedule data falls back to defaults, so only
// malformed requests return an error.
func (e *Estimator) Simulate(ctx context.Context, req Request) (SimulationReport, error) {
	res := e.resolver.Resolve(ctx)
	db := res.DB
	if res.Degraded {
		db = nil
	}

	q, err := e.normalize(req, db)
	if err != nil {
		return SimulationReport{Status: StatusError}, err
	}

	report := SimulationReport{Status: StatusOK, Query: q, DataDay: q.Day, Source: res.Source}

	var chain ridership.Chain
	var counter simulation.Counter
	if db != nil {
		if day, err := ensemble.ResolveDay(db, q.Station, q.Day); err == nil {
			report.DataDay = day
		}
		if db.Usage != nil {
			chain = append(chain, ridership.FromUsage(db.Usage, report.DataDay))
		}
		counter = schedule.New(db.Timetable)
	} else {
		report.Status = StatusDegraded
		report.Mode = res.Mode
		if report.Mode == "" {
			report.Mode = resolver.ModeEmergency
		}
	}
	if e.model != nil {
		chain = append(chain, e.model.Provider(q.DayType(), int(q.Date.Month()), q.Weather))
	}

	var riders ridership.Provider
	if len(chain) > 0 {
		riders = chain
	}
	sim := simulation.New(e.simCfg, riders, counter)

	route := e.line.Route(q.Direction)
	result := sim.Simulate(simulation.Query{
		TargetHour: q.Hour,
		Direction:  q.Direction,
		DayType:    q.DayType(),
		Route:      route,
	})

	report.Stations = make([]StationState, 0, len(route))
	for _, st := range route {
		report.Stations = append(report.Stations, StationState{
			Station: st,
			Load:    result.Load[st],
			Queue:   result.Queue[st],
			Trains:  result.Trains[st],
		})
	}
	report.Segments = sim.Segments(result, route, e.line.Position(q.Direction, q.Station))
	if report.Segments == nil {
		report.Segments = []simulation.Segment{}
	}
	report.Advice = sim.Advise(result.Queue[q.Station])
	return report, nil
}
