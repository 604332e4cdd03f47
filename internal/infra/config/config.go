package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                 string
	LogLevel            string
	HTTPAddr            string
	Storage             string
	MongoURI            string
	MongoDB             string
	KafkaBrokers        []string
	KafkaTopicPrefix    string
	KafkaClosuresTopic  string
	KafkaGroupID        string
	IdempotencyTTL      time.Duration
	OutboxPollInterval  time.Duration
	RetryBackoff        []time.Duration
	FixturesPath        string
	CalendarMaxDays     int
	SelectionClearDelay time.Duration
	TimeZone            *time.Location
	CORSOrigins         []string
}

// Load parses configuration from the current environment. Variables from an
// optional .env file (or ENV_FILE) fill in whatever the environment leaves unset.
func Load() (Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		Storage:            strings.ToLower(getEnv("STORAGE", StorageMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "rentcal"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaClosuresTopic: getEnv("KAFKA_CLOSURES_TOPIC", "calendar.closures.v1"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "rentcal"),
		FixturesPath:       getEnv("FIXTURES_PATH", ""),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	clearDelay, err := parseDurationEnv("SELECTION_CLEAR_DELAY", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.SelectionClearDelay = clearDelay

	maxDays, err := parseIntEnv("CALENDAR_MAX_DAYS", 366)
	if err != nil {
		return Config{}, err
	}
	if maxDays < 1 {
		return Config{}, fmt.Errorf("CALENDAR_MAX_DAYS must be positive, got %d", maxDays)
	}
	cfg.CalendarMaxDays = maxDays

	loc, err := time.LoadLocation(getEnv("PROPERTY_TZ", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PROPERTY_TZ: %w", err)
	}
	cfg.TimeZone = loc

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	switch cfg.Storage {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE %q: want memory or mongo", cfg.Storage)
	}
	return cfg, nil
}

// KafkaEnabled reports whether the outbox relay and closure consumer should run.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}
