package handlers

import (
	"github.com/gimpo-goldline/congestion/internal/congestion"
	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/levels"
	"github.com/gimpo-goldline/congestion/internal/schedule"
	"github.com/gimpo-goldline/congestion/internal/simulation"
	"github.com/gimpo-goldline/congestion/models"
)

func toLevel(l levels.Level) models.Level {
	return models.Level{
		Rank:        l.Rank,
		Threshold:   l.Threshold,
		Icon:        l.Icon,
		Label:       l.Label,
		Description: l.Description,
	}
}

func toQueryEcho(q congestion.Query) models.QueryEcho {
	return models.QueryEcho{
		Station:   q.Station,
		Direction: string(q.Direction),
		Day:       string(q.Day),
		Date:      q.DateStr,
		Hour:      q.Hour,
		Minute:    q.Minute,
		Weather:   q.Weather,
		Holiday:   q.Holiday,
	}
}

func toRoute(route []ensemble.RouteStation) []models.RouteStation {
	out := make([]models.RouteStation, 0, len(route))
	for _, rs := range route {
		out = append(out, models.RouteStation{Station: rs.Station, Congestion: rs.Congestion, Color: rs.Color})
	}
	return out
}

func toDepartures(trains []schedule.Train) []models.Departure {
	out := make([]models.Departure, 0, len(trains))
	for _, t := range trains {
		out = append(out, models.Departure{Time: t.String(), Hour: t.Hour, Minute: t.Minute})
	}
	return out
}

func toDiagnostics(est congestion.Estimate) models.Diagnostics {
	d := models.Diagnostics{
		MatchCount:  est.MatchCount,
		KNNAverage:  est.KNNAverage,
		MLComponent: est.MLComponent,
		DataDay:     string(est.DataDay),
		Source:      est.Source,
		Mode:        est.Mode,
		Degraded:    est.Status == congestion.StatusDegraded,
	}
	if est.TopMatch != nil {
		d.TopMatchDate = est.TopMatch.Date
		d.TopMatchScore = est.TopMatch.Score
	}
	return d
}

func toSegments(segs []simulation.Segment) []models.Segment {
	out := make([]models.Segment, 0, len(segs))
	for _, s := range segs {
		out = append(out, models.Segment{
			From:            s.From,
			To:              s.To,
			Trains:          s.Trains,
			PersonsPerTrain: s.PersonsPerTrain,
			RawCongestion:   s.RawCongestion,
			Congestion:      s.Congestion,
			Level:           toLevel(s.Level),
		})
	}
	return out
}

func toStationLoads(states []congestion.StationState) []models.StationLoad {
	out := make([]models.StationLoad, 0, len(states))
	for _, s := range states {
		out = append(out, models.StationLoad{Station: s.Station, Load: s.Load, Queue: s.Queue, Trains: s.Trains})
	}
	return out
}

func toAdvice(a simulation.Advice) models.Advice {
	return models.Advice{
		Status:         a.Status,
		Queue:          a.Queue,
		WaitTrains:     a.WaitTrains,
		MinWaitMinutes: a.MinWaitMinutes,
		MaxWaitMinutes: a.MaxWaitMinutes,
	}
}
