package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// BootstrapAdmin is granted the admin role at startup so the registry is
	// usable before any role grants exist.
	BootstrapAdmin       string
	BootstrapAdminSecret string

	// ExpirySweepInterval controls how often active certificates are checked
	// against their expiry dates.
	ExpirySweepInterval time.Duration
}

// PostgresConfig holds connection settings for the primary store. An empty
// DSN means the in-memory stores are used instead.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds connection settings for the verification cache.
// An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig holds settings for the external audit event sink. Empty
// brokers disable the sink; audit events are still persisted locally.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("OILCERT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	bootstrapAdmin := os.Getenv("OILCERT_BOOTSTRAP_ADMIN")
	if bootstrapAdmin == "" {
		bootstrapAdmin = "registry-admin"
	}
	bootstrapSecret := os.Getenv("OILCERT_BOOTSTRAP_ADMIN_SECRET")
	if bootstrapSecret == "" {
		bootstrapSecret = "dev-admin-secret"
	}

	sweep := durationFromEnv("OILCERT_EXPIRY_SWEEP_INTERVAL", time.Hour)

	return Server{
		Addr:                 addr,
		JWTSigningKey:        jwtSigningKey,
		JWTIssuer:            "oilcert",
		JWTAudience:          "oilcert-api",
		BootstrapAdmin:       bootstrapAdmin,
		BootstrapAdminSecret: bootstrapSecret,
		ExpirySweepInterval:  sweep,
	}
}

// PostgresFromEnv builds the Postgres config from environment variables.
func PostgresFromEnv() PostgresConfig {
	return PostgresConfig{
		DSN:          os.Getenv("OILCERT_POSTGRES_DSN"),
		MaxOpenConns: intFromEnv("OILCERT_POSTGRES_MAX_OPEN_CONNS", 10),
		MaxIdleConns: intFromEnv("OILCERT_POSTGRES_MAX_IDLE_CONNS", 5),
	}
}

// RedisFromEnv builds the Redis config from environment variables.
func RedisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("OILCERT_REDIS_URL"),
		PoolSize:     intFromEnv("OILCERT_REDIS_POOL_SIZE", 10),
		MinIdleConns: intFromEnv("OILCERT_REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  durationFromEnv("OILCERT_REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  durationFromEnv("OILCERT_REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: durationFromEnv("OILCERT_REDIS_WRITE_TIMEOUT", 3*time.Second),
		CacheTTL:     durationFromEnv("OILCERT_VERIFY_CACHE_TTL", 5*time.Minute),
	}
}

// KafkaFromEnv builds the Kafka sink config from environment variables.
func KafkaFromEnv() KafkaConfig {
	brokers := os.Getenv("OILCERT_KAFKA_BROKERS")
	topic := os.Getenv("OILCERT_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "oilcert.audit.events"
	}
	cfg := KafkaConfig{Topic: topic}
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Brokers = append(cfg.Brokers, b)
			}
		}
	}
	return cfg
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
