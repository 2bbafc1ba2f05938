package source

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// schemaSQL is shared by the SQLite and Postgres stores.
//
//go:embed schema.sql
var schemaSQL string

// SchemaSQL returns the embedded schema for external use (e.g., init scripts).
func SchemaSQL() string {
	return schemaSQL
}

// rowScanner is the subset of *sql.Rows and pgx.Rows the loader needs
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type queryFunc func(ctx context.Context, query string) (rowScanner, func(), error)

type execFunc func(ctx context.Context, query string, args ...any) error

const (
	selectDays      = `SELECT date, dow, holiday, weekend, weather FROM history_days ORDER BY date`
	selectHourly    = `SELECT date, hour, station, cong FROM history_hourly ORDER BY date, hour, station`
	selectML        = `SELECT date, hour, station, value FROM history_ml_pred`
	selectHolidays  = `SELECT date FROM history_holidays ORDER BY date`
	selectUsage     = `SELECT station, day_label, hour, board, alight FROM history_usage`
	selectTimetable = `SELECT station, direction, day_type, hour, minute FROM history_timetable ORDER BY minute`
)

var clearStatements = []string{
	`DELETE FROM history_hourly`,
	`DELETE FROM history_ml_pred`,
	`DELETE FROM history_days`,
	`DELETE FROM history_holidays`,
	`DELETE FROM history_usage`,
	`DELETE FROM history_timetable`,
}

func each(ctx context.Context, query queryFunc, stmt string, fn func(rowScanner) error) error {
	rows, done, err := query(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to query %q: %w", stmt, err)
	}
	defer done()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

// loadDatabase rebuilds a history.Database from the relational tables
func loadDatabase(ctx context.Context, query queryFunc) (*history.Database, error) {
	db := &history.Database{Days: make(map[string]*history.DayRecord)}

	err := each(ctx, query, selectDays, func(r rowScanner) error {
		rec := &history.DayRecord{Hourly: make(map[int][]history.StationCongestion)}
		var holiday, weekend int
		if err := r.Scan(&rec.Date, &rec.Meta.DOW, &holiday, &weekend, &rec.Meta.Weather); err != nil {
			return err
		}
		rec.Meta.Holiday = holiday != 0
		rec.Meta.Weekend = weekend != 0
		db.Days[rec.Date] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(ctx, query, selectHourly, func(r rowScanner) error {
		var date, station string
		var hour int
		var cong float64
		if err := r.Scan(&date, &hour, &station, &cong); err != nil {
			return err
		}
		if rec, ok := db.Days[date]; ok {
			rec.Hourly[hour] = append(rec.Hourly[hour], history.StationCongestion{Station: station, Cong: cong})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(ctx, query, selectML, func(r rowScanner) error {
		var date, station string
		var hour int
		var value float64
		if err := r.Scan(&date, &hour, &station, &value); err != nil {
			return err
		}
		rec, ok := db.Days[date]
		if !ok {
			return nil
		}
		if rec.MLPred == nil {
			rec.MLPred = make(map[int]map[string]float64)
		}
		if rec.MLPred[hour] == nil {
			rec.MLPred[hour] = make(map[string]float64)
		}
		rec.MLPred[hour][station] = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(ctx, query, selectHolidays, func(r rowScanner) error {
		var date string
		if err := r.Scan(&date); err != nil {
			return err
		}
		db.Metadata.Holidays = append(db.Metadata.Holidays, date)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(ctx, query, selectUsage, func(r rowScanner) error {
		var station, label string
		var hour int
		var c history.Counts
		if err := r.Scan(&station, &label, &hour, &c.Board, &c.Alight); err != nil {
			return err
		}
		if db.Usage == nil {
			db.Usage = make(history.Usage)
		}
		if db.Usage[station] == nil {
			db.Usage[station] = make(map[history.DayLabel]map[int]history.Counts)
		}
		day := history.DayLabel(label)
		if db.Usage[station][day] == nil {
			db.Usage[station][day] = make(map[int]history.Counts)
		}
		db.Usage[station][day][hour] = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(ctx, query, selectTimetable, func(r rowScanner) error {
		var station, dir, dayType string
		var hour, minute int
		if err := r.Scan(&station, &dir, &dayType, &hour, &minute); err != nil {
			return err
		}
		if db.Timetable == nil {
			db.Timetable = make(history.Timetable)
		}
		if db.Timetable[station] == nil {
			db.Timetable[station] = make(map[string]map[history.DayType]map[int]history.Minutes)
		}
		if db.Timetable[station][dir] == nil {
			db.Timetable[station][dir] = make(map[history.DayType]map[int]history.Minutes)
		}
		dt := history.DayType(dayType)
		if db.Timetable[station][dir][dt] == nil {
			db.Timetable[station][dir][dt] = make(map[int]history.Minutes)
		}
		db.Timetable[station][dir][dt][hour] = append(db.Timetable[station][dir][dt][hour], minute)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// writeDatabase replaces every table's contents with db and records the run
func writeDatabase(ctx context.Context, exec execFunc, rebind func(string) string, db *history.Database, runID, origin string) error {
	for _, stmt := range clearStatements {
		if err := exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear tables: %w", err)
		}
	}

	insert := func(stmt string, args ...any) error {
		return exec(ctx, rebind(stmt), args...)
	}

	for _, date := range db.Dates() {
		rec := db.Days[date]
		if err := insert(`INSERT INTO history_days (date, dow, holiday, weekend, weather) VALUES (?, ?, ?, ?, ?)`,
			date, rec.Meta.DOW, boolInt(rec.Meta.Holiday), boolInt(rec.Meta.Weekend), rec.Meta.Weather); err != nil {
			return fmt.Errorf("failed to insert day %s: %w", date, err)
		}
		for _, hour := range sortedHours(rec.Hourly) {
			for _, sc := range rec.Hourly[hour] {
				if err := insert(`INSERT INTO history_hourly (date, hour, station, cong) VALUES (?, ?, ?, ?)`,
					date, hour, sc.Station, sc.Cong); err != nil {
					return fmt.Errorf("failed to insert hourly %s %d %s: %w", date, hour, sc.Station, err)
				}
			}
		}
		for hour, byStation := range rec.MLPred {
			for station, v := range byStation {
				if err := insert(`INSERT INTO history_ml_pred (date, hour, station, value) VALUES (?, ?, ?, ?)`,
					date, hour, station, v); err != nil {
					return fmt.Errorf("failed to insert ml_pred %s %d %s: %w", date, hour, station, err)
				}
			}
		}
	}

	for _, h := range db.Metadata.Holidays {
		if err := insert(`INSERT INTO history_holidays (date) VALUES (?)`, h); err != nil {
			return fmt.Errorf("failed to insert holiday %s: %w", h, err)
		}
	}

	for station, byDay := range db.Usage {
		for label, byHour := range byDay {
			for hour, c := range byHour {
				if err := insert(`INSERT INTO history_usage (station, day_label, hour, board, alight) VALUES (?, ?, ?, ?, ?)`,
					station, string(label), hour, c.Board, c.Alight); err != nil {
					return fmt.Errorf("failed to insert usage %s %s %d: %w", station, label, hour, err)
				}
			}
		}
	}

	for station, byDir := range db.Timetable {
		for dir, byType := range byDir {
			for dayType, byHour := range byType {
				for hour, minutes := range byHour {
					for _, m := range minutes {
						if err := insert(`INSERT INTO history_timetable (station, direction, day_type, hour, minute) VALUES (?, ?, ?, ?, ?)`,
							station, dir, string(dayType), hour, m); err != nil {
							return fmt.Errorf("failed to insert timetable %s %s: %w", station, dir, err)
						}
					}
				}
			}
		}
	}

	if err := insert(`INSERT INTO import_runs (id, source, days, imported_at) VALUES (?, ?, ?, ?)`,
		runID, origin, len(db.Days), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

// dollarPlaceholders rewrites ? placeholders to Postgres $n form
func dollarPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func identity(query string) string { return query }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sortedHours(m map[int][]history.StationCongestion) []int {
	hours := make([]int, 0, len(m))
	for h := range m {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}
