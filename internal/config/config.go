package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AdminPort string
	LogLevel  string

	CorpusAPIURL         string
	CorpusAPITimeout     time.Duration
	CorpusBreakerEnabled bool
	MaxUploadBytes       int64

	SessionTTL  time.Duration
	MaxSessions int

	RateLimitRPS   float64
	RateLimitBurst int

	AuditPostgresDSN  string
	AuditNATSURL      string
	AuditNATSSubject  string
	AuditRingCapacity int
}

// Load reads the process environment after merging an optional .env file.
// Variables already set in the environment win over the file.
func Load() Config {
	loadDotEnv(mustEnv("ADMIN_ENV_FILE", ".env"))

	return Config{
		AdminPort: mustEnv("ADMIN_PORT", "8090"),
		LogLevel:  mustEnv("LOG_LEVEL", "info"),

		CorpusAPIURL:         mustEnv("CORPUS_API_URL", "http://localhost:8080"),
		CorpusAPITimeout:     time.Duration(mustEnvInt("CORPUS_API_TIMEOUT_SECONDS", 0)) * time.Second,
		CorpusBreakerEnabled: mustEnvBool("CORPUS_BREAKER_ENABLED", false),
		MaxUploadBytes:       int64(mustEnvInt("MAX_UPLOAD_MB", 50)) << 20,

		SessionTTL:  time.Duration(mustEnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
		MaxSessions: mustEnvInt("SESSION_MAX", 256),

		RateLimitRPS:   mustEnvFloat("ADMIN_RATE_LIMIT_RPS", 5),
		RateLimitBurst: mustEnvInt("ADMIN_RATE_LIMIT_BURST", 10),

		AuditPostgresDSN:  mustEnv("AUDIT_POSTGRES_DSN", ""),
		AuditNATSURL:      mustEnv("AUDIT_NATS_URL", ""),
		AuditNATSSubject:  mustEnv("AUDIT_NATS_SUBJECT", "corpus.admin.audit"),
		AuditRingCapacity: mustEnvInt("AUDIT_RING_CAPACITY", 200),
	}
}

func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv_load_failed", "path", path, "error", err)
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
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
