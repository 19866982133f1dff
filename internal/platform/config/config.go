package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	AuthRequired  bool
	Screening     Screening
}

// RedisConfig holds connection settings for the result cache.
// An empty URL means the cache is disabled.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker settings for the audit trail.
// Empty brokers mean audit events stay in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Screening holds tunables for the matching engine.
type Screening struct {
	Threshold    float64
	MaxResults   int
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          envStr("VIGIL_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("VIGIL_POSTGRES_DSN"),
		JWTSigningKey: envStr("VIGIL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AuthRequired:  os.Getenv("VIGIL_AUTH_REQUIRED") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("VIGIL_REDIS_URL"),
			PoolSize:     envInt("VIGIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VIGIL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("VIGIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VIGIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VIGIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envList("VIGIL_KAFKA_BROKERS"),
			Topic:   envStr("VIGIL_KAFKA_AUDIT_TOPIC", "vigil.audit"),
		},
		Screening: Screening{
			Threshold:    envFloat("VIGIL_MATCH_THRESHOLD", 0.7),
			MaxResults:   envInt("VIGIL_MAX_RESULTS", 100),
			FetchTimeout: envDuration("VIGIL_SOURCE_FETCH_TIMEOUT", 5*time.Second),
			CacheTTL:     envDuration("VIGIL_CACHE_TTL", 5*time.Minute),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
