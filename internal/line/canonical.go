package line

import (
	"sort"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// Canonicalize rewrites the data-side keys of db in place so they match the
// IDs queries resolve to: station names in day records, ML predictions, usage
// and timetable, timetable directions and day types, and usage day labels.
// Keys that cannot be resolved are kept as they are and returned, sorted.
func (l *Line) Canonicalize(db *history.Database) []string {
	unknown := make(map[string]bool)
	station := func(name string) string {
		if id, ok := l.ResolveStation(name); ok {
			return id
		}
		unknown[name] = true
		return name
	}

	for _, rec := range db.Days {
		for hour, snapshot := range rec.Hourly {
			for i := range snapshot {
				snapshot[i].Station = station(snapshot[i].Station)
			}
			rec.Hourly[hour] = snapshot
		}
		for hour, byStation := range rec.MLPred {
			out := make(map[string]float64, len(byStation))
			for name, v := range byStation {
				out[station(name)] = v
			}
			rec.MLPred[hour] = out
		}
	}

	if db.Usage != nil {
		usage := make(history.Usage, len(db.Usage))
		for name, byDay := range db.Usage {
			id := station(name)
			days := usage[id]
			if days == nil {
				days = make(map[history.DayLabel]map[int]history.Counts, len(byDay))
				usage[id] = days
			}
			for label, hours := range byDay {
				if canon, ok := history.ParseDayLabel(string(label)); ok {
					label = canon
				}
				days[label] = hours
			}
		}
		db.Usage = usage
	}

	if db.Timetable != nil {
		tt := make(history.Timetable, len(db.Timetable))
		for name, byDir := range db.Timetable {
			id := station(name)
			dirs := tt[id]
			if dirs == nil {
				dirs = make(map[string]map[history.DayType]map[int]history.Minutes, len(byDir))
				tt[id] = dirs
			}
			for dir, byType := range byDir {
				if d, ok := l.ResolveDirection(dir); ok && dir != "" {
					dir = string(d)
				}
				types := dirs[dir]
				if types == nil {
					types = make(map[history.DayType]map[int]history.Minutes, len(byType))
					dirs[dir] = types
				}
				for dt, hours := range byType {
					if canon, ok := history.ParseDayType(string(dt)); ok {
						dt = canon
					}
					types[dt] = hours
				}
			}
		}
		db.Timetable = tt
	}

	out := make([]string, 0, len(unknown))
	for name := range unknown {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
