package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/source"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	input := flag.String("input", "data.json", "Path to the JSON historical database")
	dbPath := flag.String("db", os.Getenv("SQLITE_DATABASE"), "Path to SQLite database (empty to skip)")
	pgURL := flag.String("postgres", os.Getenv("DATABASE_URL"), "Postgres connection URL (empty to skip)")
	flag.Parse()

	if *dbPath == "" && *pgURL == "" {
		log.Fatal("Nothing to do: set -db and/or -postgres")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *input, err)
	}
	db, err := history.Decode(data)
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", *input, err)
	}
	log.Printf("Decoded %d days, %d holidays, usage for %d stations", len(db.Days), len(db.Metadata.Holidays), len(db.Usage))

	for _, station := range line.Default().Canonicalize(db) {
		log.Printf("Warning: unknown station %q; its records are kept but can never be queried", station)
	}

	runID := uuid.NewString()
	ctx := context.Background()

	if *dbPath != "" {
		store, err := source.OpenSQLite(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open SQLite database: %v", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		if err := store.Save(ctx, db, runID, *input); err != nil {
			log.Fatalf("Failed to import into SQLite: %v", err)
		}
		log.Printf("SUCCESS: imported into %s (run %s)", *dbPath, runID)
	}

	if *pgURL != "" {
		store, err := source.OpenPostgres(ctx, *pgURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		if err := store.Save(ctx, db, runID, *input); err != nil {
			log.Fatalf("Failed to import into Postgres: %v", err)
		}
		log.Printf("SUCCESS: imported into Postgres (run %s)", runID)
	}
}
