package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/gimpo-goldline/congestion/handlers"
	"github.com/gimpo-goldline/congestion/internal/config"
	"github.com/gimpo-goldline/congestion/internal/congestion"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/resolver"
	"github.com/gimpo-goldline/congestion/internal/ridership"
	"github.com/gimpo-goldline/congestion/internal/simulation"
	"github.com/gimpo-goldline/congestion/internal/source"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()

	goldline := line.Default()
	if cfg.LineFile != "" {
		l, err := line.Load(cfg.LineFile)
		if err != nil {
			log.Fatalf("Failed to load line definition: %v", err)
		}
		goldline = l
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %s: %v", cfg.Timezone, err)
	}

	var model *ridership.Model
	if cfg.ModelFile != "" {
		model, err = ridership.LoadModel(cfg.ModelFile)
		if err != nil {
			log.Fatalf("Failed to load ridership model: %v", err)
		}
		if unknown := model.Canonicalize(goldline.ResolveStation); len(unknown) > 0 {
			log.Printf("Warning: ridership model has unknown stations: %v", unknown)
		}
		log.Printf("Loaded ridership model from %s", cfg.ModelFile)
	}

	tiers, closeSources := buildTiers(cfg, goldline)
	defer closeSources()

	res := resolver.New(resolver.NewCache(cfg.CacheTTL), tiers...)

	simCfg := simulation.DefaultConfig()
	simCfg.TrainCapacity = float64(cfg.TrainCapacity)
	simCfg.RatedCapacity = float64(cfg.RatedCapacity)

	estimator, err := congestion.NewEstimator(goldline, res, congestion.Options{
		Location:           loc,
		Model:              model,
		Simulation:         simCfg,
		EndpointMultiplier: cfg.HeuristicEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to create estimator: %v", err)
	}

	congestionHandler := handlers.NewCongestionHandler(estimator)
	healthHandler := handlers.NewHealthHandler(res)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(handlers.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", handlers.Healthz)

	r.Get("/api/predict", congestionHandler.GetPrediction)
	r.Get("/api/predict/{station}", congestionHandler.GetPrediction)
	r.Get("/api/simulate", congestionHandler.GetSimulation)
	r.Get("/api/levels", handlers.GetLevels)

	// Static file serving (if configured); the default local data URL points here
	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	log.Printf("API server starting on :%s (%s, %d stations)", cfg.Port, goldline.Name, len(goldline.Stations))
	log.Println("Endpoints:")
	log.Println("  GET /api/predict?station=&direction=&day=&date=&hour=&minute=&weather=&holiday=")
	log.Println("  GET /api/simulate?station=&direction=&day=&hour=")
	log.Println("  GET /api/levels")
	log.Println("  GET /health")

	// Warm the cache once the listener is up
	go func() {
		time.Sleep(500 * time.Millisecond)
		warm := res.Resolve(context.Background())
		if warm.Degraded {
			log.Printf("Historical data unavailable at startup, serving %s until a source recovers", warm.Mode)
		}
	}()

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// buildTiers assembles local sources before remote ones. Sources that cannot
// be opened are skipped with a warning. Every source is keyed to l.
func buildTiers(cfg *config.Config, l *line.Line) ([]resolver.Tier, func()) {
	var tiers []resolver.Tier
	var closers []func()

	if cfg.LocalSQLite != "" {
		store, err := source.OpenSQLite(cfg.LocalSQLite)
		if err != nil {
			log.Printf("Warning: SQLite source disabled: %v", err)
		} else {
			closers = append(closers, func() { store.Close() })
			tiers = append(tiers, resolver.Tier{Source: source.Canonical(store, l), Timeout: cfg.LocalTimeout})
		}
	}
	if cfg.LocalDataURL != "" {
		tiers = append(tiers, resolver.Tier{
			Source:  source.Canonical(source.NewHTTPSource("local", cfg.LocalDataURL, nil), l),
			Timeout: cfg.LocalTimeout,
		})
	}

	if cfg.RemotePostgres != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout)
		store, err := source.OpenPostgres(ctx, cfg.RemotePostgres)
		cancel()
		if err != nil {
			log.Printf("Warning: Postgres source disabled: %v", err)
		} else {
			closers = append(closers, store.Close)
			tiers = append(tiers, resolver.Tier{Source: source.Canonical(store, l), Timeout: cfg.RemoteTimeout})
		}
	}
	if cfg.RemoteDataURL != "" {
		tiers = append(tiers, resolver.Tier{
			Source:  source.Canonical(source.NewHTTPSource("remote", cfg.RemoteDataURL, nil), l),
			Timeout: cfg.RemoteTimeout,
		})
	}

	log.Printf("Configured %d data source tiers", len(tiers))
	return tiers, func() {
		for _, c := range closers {
			c()
		}
	}
}
