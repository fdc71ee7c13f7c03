package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	// PostgresDSN is optional; empty runs the pipeline cache-only.
	PostgresDSN string

	NATSURL     string
	NATSSubject string

	ModelURL            string
	ModelAPIKey         string
	ModelName           string
	ModelRateLimitRPS   float64
	ModelMaxConcurrent  int
	ModelRequestTimeout time.Duration

	ExtractTimeout time.Duration

	CacheTTL      time.Duration
	CacheCapacity int

	ScoreMaxAttempts    int
	ScoreInitialBackoff time.Duration
	ScoreMaxBackoff     time.Duration

	MinDimensions          int
	PartialConfidenceCap   float64
	ClusterMatchThreshold  float64
	AnalysisOverallTimeout time.Duration

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "articles.analyze"),

		ModelURL:            mustEnv("MODEL_URL", "https://api.openai.com"),
		ModelAPIKey:         mustEnv("MODEL_API_KEY", ""),
		ModelName:           mustEnv("MODEL_NAME", "gpt-4o-mini"),
		ModelRateLimitRPS:   mustEnvFloat("MODEL_RATE_LIMIT_RPS", 8),
		ModelMaxConcurrent:  mustEnvInt("MODEL_MAX_CONCURRENT", 10),
		ModelRequestTimeout: mustEnvDuration("MODEL_REQUEST_TIMEOUT", 30*time.Second),

		ExtractTimeout: mustEnvDuration("EXTRACT_TIMEOUT", 15*time.Second),

		CacheTTL:      mustEnvDuration("CACHE_TTL", 15*time.Minute),
		CacheCapacity: mustEnvInt("CACHE_CAPACITY", 1024),

		ScoreMaxAttempts:    mustEnvInt("SCORE_MAX_ATTEMPTS", 3),
		ScoreInitialBackoff: mustEnvDuration("SCORE_INITIAL_BACKOFF", 200*time.Millisecond),
		ScoreMaxBackoff:     mustEnvDuration("SCORE_MAX_BACKOFF", 2*time.Second),

		MinDimensions:          mustEnvInt("MIN_DIMENSIONS", 3),
		PartialConfidenceCap:   mustEnvFloat("PARTIAL_CONFIDENCE_CAP", 0.5),
		ClusterMatchThreshold:  mustEnvFloat("CLUSTER_MATCH_THRESHOLD", 0.35),
		AnalysisOverallTimeout: mustEnvDuration("ANALYSIS_OVERALL_TIMEOUT", 45*time.Second),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
