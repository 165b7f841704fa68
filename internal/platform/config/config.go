package config

import (
	"os"
	"strconv"
	"strings"
)

// Config captures process-level configuration. The owner account is set once
// here and never reassigned at runtime: administrative operations compare the
// caller against this identity.
type Config struct {
	Addr          string
	OwnerAccount  string
	JWTSigningKey string

	// PostgresURL selects the durable store; empty keeps the in-memory one.
	PostgresURL string

	// RedisURL enables the balance query cache; empty disables it.
	RedisURL string

	// KafkaBrokers enables the event sink for off-chain indexing; empty
	// keeps events in process.
	KafkaBrokers []string
	KafkaTopic   string

	EventBuffer int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CARECOIN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	owner := os.Getenv("CARECOIN_OWNER")
	if owner == "" {
		owner = "treasury"
	}

	jwtSigningKey := os.Getenv("CARECOIN_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("CARECOIN_KAFKA_TOPIC")
	if topic == "" {
		topic = "carecoin.ledger.events"
	}

	var brokers []string
	if raw := os.Getenv("CARECOIN_KAFKA_BROKERS"); raw != "" {
		for _, broker := range strings.Split(raw, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}

	buffer := 256
	if raw := os.Getenv("CARECOIN_EVENT_BUFFER"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			buffer = parsed
		}
	}

	return Config{
		Addr:          addr,
		OwnerAccount:  owner,
		JWTSigningKey: jwtSigningKey,
		PostgresURL:   os.Getenv("CARECOIN_POSTGRES_URL"),
		RedisURL:      os.Getenv("CARECOIN_REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		EventBuffer:   buffer,
	}
}
