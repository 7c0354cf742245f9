package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DateLayout = "2006-01-02"

// Config holds the simulator settings. Database, JWT and R2 values are
// optional; the features depending on them are off while they are empty.
type Config struct {
	DataDir          string
	Seed             int64
	ForfeitChance    int
	PointsPerQuarter int
	TournamentStart  time.Time
	BatchRuns        int
	BatchWorkers     int
	ServerPort       int
	LogLevel         slog.Level

	DatabaseURL  string
	JWTSecretKey string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:      os.Getenv("DATA_DIR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecretKey: os.Getenv("JWT_SECRET_KEY"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	var err error
	if cfg.Seed, err = envInt64("SIM_SEED", 0); err != nil {
		return nil, err
	}

	if cfg.ForfeitChance, err = envInt("FORFEIT_CHANCE", 3); err != nil {
		return nil, err
	}
	if cfg.ForfeitChance < 0 || cfg.ForfeitChance > 100 {
		return nil, fmt.Errorf("FORFEIT_CHANCE must be between 0 and 100, got %d", cfg.ForfeitChance)
	}

	if cfg.PointsPerQuarter, err = envInt("POINTS_PER_QUARTER", 17); err != nil {
		return nil, err
	}
	if cfg.PointsPerQuarter <= 0 {
		return nil, fmt.Errorf("POINTS_PER_QUARTER must be positive, got %d", cfg.PointsPerQuarter)
	}

	startStr := os.Getenv("TOURNAMENT_START")
	if startStr == "" {
		startStr = "2024-08-11"
	}
	cfg.TournamentStart, err = time.Parse(DateLayout, startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TOURNAMENT_START environment variable: %w", err)
	}

	if cfg.BatchRuns, err = envInt("BATCH_RUNS", 100); err != nil {
		return nil, err
	}
	if cfg.BatchRuns <= 0 {
		return nil, fmt.Errorf("BATCH_RUNS must be positive, got %d", cfg.BatchRuns)
	}

	if cfg.BatchWorkers, err = envInt("BATCH_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.BatchWorkers <= 0 {
		return nil, fmt.Errorf("BATCH_WORKERS must be positive, got %d", cfg.BatchWorkers)
	}

	if cfg.ServerPort, err = envInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.LogLevel, err = parseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func envInt64(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", raw)
	}
}
