package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the congestion service
type Config struct {
	// HTTP
	Port           string
	AllowedOrigins []string
	StaticDir      string

	// Line definition (empty = embedded Gimpo Goldline)
	LineFile string
	Timezone string

	// Data source tiers
	LocalDataURL   string
	LocalSQLite    string
	RemoteDataURL  string
	RemotePostgres string
	LocalTimeout   time.Duration
	RemoteTimeout  time.Duration

	// Cache TTL for the resolved database (0 = keep for the process lifetime)
	CacheTTL time.Duration

	// Optional ridership model constants (JSON)
	ModelFile string

	// Simulation capacities
	TrainCapacity     int
	RatedCapacity     int
	HeuristicEndpoint float64
}

// Load reads configuration from environment variables with sensible defaults.
// Without LOCAL_DATA_URL the local HTTP tier reads the server's own
// /data.json, and only when STATIC_DIR is set to serve it.
func Load() *Config {
	cfg := &Config{
		// HTTP
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:8788", "http://127.0.0.1:8788"}),
		StaticDir:      getEnv("STATIC_DIR", ""),

		// Line
		LineFile: getEnv("LINE_FILE", ""),
		Timezone: getEnv("LINE_TIMEZONE", "Asia/Seoul"),

		// Data source tiers
		LocalDataURL:   getEnv("LOCAL_DATA_URL", ""),
		LocalSQLite:    getEnv("SQLITE_DATABASE", ""),
		RemoteDataURL:  getEnv("REMOTE_DATA_URL", ""),
		RemotePostgres: getEnv("DATABASE_URL", ""),
		LocalTimeout:   getEnvDuration("LOCAL_TIMEOUT_MS", 1500*time.Millisecond),
		RemoteTimeout:  getEnvDuration("REMOTE_TIMEOUT_MS", 3500*time.Millisecond),

		CacheTTL: time.Duration(getEnvInt("CACHE_TTL_MINUTES", 0)) * time.Minute,

		ModelFile: getEnv("MODEL_FILE", ""),

		TrainCapacity:     getEnvInt("TRAIN_CAPACITY", 240),
		RatedCapacity:     getEnvInt("RATED_CAPACITY", 172),
		HeuristicEndpoint: getEnvFloat("HEURISTIC_ENDPOINT_MULTIPLIER", 1.2),
	}

	if cfg.LocalDataURL == "" && cfg.StaticDir != "" {
		cfg.LocalDataURL = "http://127.0.0.1:" + cfg.Port + "/data.json"
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration reads a millisecond count
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
