package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Engine   EngineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
}

// CacheConfig holds the key/value cache settings shared by the row cache and
// the analytics snapshot cache. Version is the serialized payload format tag:
// bump it whenever the compact row encoding changes so stale entries read as
// misses instead of decoding garbage.
type CacheConfig struct {
	Backend      string // "memory" or "postgres"
	Version      string
	ChunkSize    int
	MaxValueSize int
	Freshness    time.Duration
	RowTTL       time.Duration
	AnalyticsTTL time.Duration
}

// EngineConfig holds the wall-clock budgets for the aggregation engine. The
// hosting environment may kill the process after ProcessingWindow, so every
// long pass polls these and downgrades instead of running out the clock.
type EngineConfig struct {
	ProcessingWindow time.Duration
	ScanBudget       time.Duration
	FetchChunkSize   int
}

func Load() (*Config, error) {
	// .env is optional; deployments may set the environment directly.
	_ = godotenv.Load()

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "lumina-analytics"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "America/Jamaica"),
	}

	chunkSize, err := strconv.Atoi(getEnv("CACHE_CHUNK_SIZE", "90000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_CHUNK_SIZE: %w", err)
	}

	maxValueSize, err := strconv.Atoi(getEnv("CACHE_MAX_VALUE_SIZE", "100000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_VALUE_SIZE: %w", err)
	}

	freshness, err := getEnvDuration("CACHE_FRESHNESS", "6h")
	if err != nil {
		return nil, err
	}
	rowTTL, err := getEnvDuration("CACHE_ROW_TTL", "30m")
	if err != nil {
		return nil, err
	}
	analyticsTTL, err := getEnvDuration("CACHE_ANALYTICS_TTL", "5m")
	if err != nil {
		return nil, err
	}

	config.Cache = CacheConfig{
		Backend:      getEnv("CACHE_BACKEND", "memory"),
		Version:      getEnv("CACHE_FORMAT_VERSION", "v2"),
		ChunkSize:    chunkSize,
		MaxValueSize: maxValueSize,
		Freshness:    freshness,
		RowTTL:       rowTTL,
		AnalyticsTTL: analyticsTTL,
	}

	processingWindow, err := getEnvDuration("ENGINE_PROCESSING_WINDOW", "25s")
	if err != nil {
		return nil, err
	}
	scanBudget, err := getEnvDuration("ENGINE_SCAN_BUDGET", "18s")
	if err != nil {
		return nil, err
	}
	fetchChunkSize, err := strconv.Atoi(getEnv("ENGINE_FETCH_CHUNK_SIZE", "2000"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_FETCH_CHUNK_SIZE: %w", err)
	}

	config.Engine = EngineConfig{
		ProcessingWindow: processingWindow,
		ScanBudget:       scanBudget,
		FetchChunkSize:   fetchChunkSize,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Timezone == "" {
		return fmt.Errorf("APP_TIMEZONE is required")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "postgres" {
		return fmt.Errorf("CACHE_BACKEND must be memory or postgres, got %q", c.Cache.Backend)
	}
	if c.Cache.ChunkSize <= 0 || c.Cache.ChunkSize > c.Cache.MaxValueSize {
		return fmt.Errorf("CACHE_CHUNK_SIZE must be positive and fit under CACHE_MAX_VALUE_SIZE")
	}
	if c.Engine.ScanBudget > c.Engine.ProcessingWindow {
		return fmt.Errorf("ENGINE_SCAN_BUDGET cannot exceed ENGINE_PROCESSING_WINDOW")
	}
	if c.Engine.FetchChunkSize <= 0 {
		return fmt.Errorf("ENGINE_FETCH_CHUNK_SIZE must be positive")
	}
	return nil
}

// Location resolves the configured timezone identifier. It is resolved once
// in main and threaded into every component that derives calendar dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
