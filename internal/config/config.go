// Package config
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	Address        string `validate:"required"`
	AllowedOrigins []string

	ProcRoot       string        `validate:"required"`
	SampleInterval time.Duration `validate:"gte=100ms"`
	SampleHistory  int           `validate:"gte=1"`

	ProbeServerIndex int           `validate:"gte=0"`
	ProbeMaxDuration time.Duration `validate:"gt=0"`
	ProbeTargets     []string      `validate:"dive,url"`

	HistoryDBPath    string
	DatabaseURL      string
	HistoryRetention time.Duration `validate:"gte=0"`

	RedisAddress  string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
}

var validate = validator.New()

func Load() *Config {
	_ = godotenv.Load()

	// Logs
	logLevel := strings.ToLower(getEnv("LOG_LEVEL", "info"))
	logFormat := strings.ToLower(getEnv("LOG_FORMAT", "text"))

	// HTTP Address, loopback only unless overridden
	addr := getEnv("HTTP_ADDR", "127.0.0.1:7077")

	// Sampling
	procRoot := getEnv("PROC_ROOT", "/")
	sampleInterval := getDuration("SAMPLE_INTERVAL", 2*time.Second)
	sampleHistory := getInt("SAMPLE_HISTORY", 60)

	// Bandwidth probe
	probeServerIndex := getInt("PROBE_SERVER_INDEX", 0)
	probeMaxDuration := getDuration("PROBE_MAX_DURATION", 13*time.Second)

	// History storage
	historyDBPath := getEnv("HISTORY_DB_PATH", "sysbro.db")
	databaseURL := os.Getenv("DATABASE_URL")
	historyRetention := getDuration("HISTORY_RETENTION", 30*24*time.Hour)

	// Redis, disabled when empty
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getInt("REDIS_DB", 0)

	return &Config{
		LogLevel:  logLevel,
		LogFormat: logFormat,

		Address:        addr,
		AllowedOrigins: getList("ALLOWED_ORIGINS"),

		ProcRoot:       procRoot,
		SampleInterval: sampleInterval,
		SampleHistory:  sampleHistory,

		ProbeServerIndex: probeServerIndex,
		ProbeMaxDuration: probeMaxDuration,
		ProbeTargets:     getList("PROBE_TARGETS"),

		HistoryDBPath:    historyDBPath,
		DatabaseURL:      databaseURL,
		HistoryRetention: historyRetention,

		RedisAddress:  redisAddr,
		RedisPassword: redisPassword,
		RedisDB:       redisDB,
	}
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
