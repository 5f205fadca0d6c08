package config

import (
	"os"
	"strings"
	"time"

	strutil "github.com/manolisliolios/rwa-standard/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// NamespaceRoot seeds address derivation; hex encoded, 32 bytes.
	NamespaceRoot string
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig configures the optional Redis-backed idempotency store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit trail sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// IdempotencyTTL bounds how long a recorded submission outcome is replayed.
var IdempotencyTTL = 24 * time.Hour

// Development fallbacks for the two secrets the service cannot run
// without. main warns when either is still in use, and refuses to start
// against a configured Postgres.
const (
	DevSigningKey    = "dev-secret-key-change-in-production"
	DevNamespaceRoot = "abababababababababababababababababababababababababababababababab"
)

// DevSecretsInUse names the secret variables still on development
// fallbacks.
func (s Server) DevSecretsInUse() []string {
	var names []string
	if s.JWTSigningKey == DevSigningKey {
		names = append(names, "JWT_SIGNING_KEY")
	}
	if s.NamespaceRoot == DevNamespaceRoot {
		names = append(names, "RWA_NAMESPACE_ROOT")
	}
	return names
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("RWA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = DevSigningKey
	}

	root := os.Getenv("RWA_NAMESPACE_ROOT")
	if root == "" {
		root = DevNamespaceRoot
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "rwa.audit"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strutil.DedupeAndTrim(strings.Split(raw, ","))
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		NamespaceRoot: root,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}
