// Package config builds runtime configuration from the environment so main
// stays lean. A .env file is honored when present (development convenience);
// real deployments set variables directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "practiceops/pkg/platform/strings"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr          string
	DatabaseURL   string
	Redis         RedisConfig
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string
	Rules         RulesConfig
}

// RedisConfig holds watermark-store connection settings. An empty URL means
// watermarks stay in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RulesConfig carries the escalation thresholds the source material leaves
// configurable: the KPI passing percentage and the event counts that trip
// the lateness and overdue-task rules.
type RulesConfig struct {
	KPIPassingThreshold float64
	LatenessCount       int
	OverdueTaskCount    int
}

// Load reads .env (if any) and builds the configuration with defaults.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() Config {
	cfg := Config{
		Addr:          getEnv("PRACTICEOPS_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AuditTopic:    getEnv("AUDIT_TOPIC", "practiceops.audit"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Rules: RulesConfig{
			KPIPassingThreshold: getEnvFloat("KPI_PASSING_THRESHOLD", 70),
			LatenessCount:       getEnvInt("LATENESS_WARNING_COUNT", 3),
			OverdueTaskCount:    getEnvInt("OVERDUE_TASK_WARNING_COUNT", 3),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
