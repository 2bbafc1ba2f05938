package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/source"
)

func main() {
	input := flag.String("input", "data.json", "Path to the JSON historical database")
	dbPath := flag.String("db", "", "Read from this SQLite database instead of -input")
	samples := flag.Int("samples", 100, "Number of days to sample (0 = all)")
	seed := flag.Int64("seed", 42, "Sampling seed")
	verbose := flag.Bool("v", false, "Print every evaluated point")
	flag.Parse()

	goldline := line.Default()
	db, err := load(*input, *dbPath)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	if unknown := goldline.Canonicalize(db); len(unknown) > 0 {
		log.Printf("Warning: unknown stations skipped: %v", unknown)
	}
	log.Printf("Running leave-one-out validation over %d days...", len(db.Days))

	res, err := ensemble.NewPredictor(goldline).Backtest(db, ensemble.BacktestOptions{
		Samples: *samples,
		Seed:    *seed,
	})
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	if !*verbose {
		res.Points = nil
	}
	log.Printf("Evaluated %d points (%d skipped): RMSE %.2f, MAPE %.2f%%",
		res.Summary.Count, res.Skipped, res.Summary.RMSE, res.Summary.MAPE)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}

func load(input, dbPath string) (*history.Database, error) {
	if dbPath != "" {
		store, err := source.OpenSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Fetch(context.Background())
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	return history.Decode(data)
}
