package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// RecomputeConfig controls the scheduled popularity rebuild.
type RecomputeConfig struct {
	Interval time.Duration
	Workers  int
}

// NearbyConfig bounds the in-memory proximity search.
type NearbyConfig struct {
	CandidatePoolSize int
	CacheTTL          time.Duration
}

type Config struct {
	Repositories RepositoriesConfig
	Recompute    RecomputeConfig
	Nearby       NearbyConfig
	ServerPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "loci_pulse"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Recompute: RecomputeConfig{
			Interval: getDurationOrDefault("RECOMPUTE_INTERVAL", 30*time.Minute),
			Workers:  getIntOrDefault("RECOMPUTE_WORKERS", 8),
		},
		Nearby: NearbyConfig{
			CandidatePoolSize: getIntOrDefault("NEARBY_CANDIDATE_POOL", 2000),
			CacheTTL:          getDurationOrDefault("NEARBY_CACHE_TTL", 30*time.Second),
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
