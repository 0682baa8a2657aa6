// Package config loads runtime configuration.
// Priority: environment > .env file > defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Durability struct {
	WALDir           string
	WALSegmentSize   int64
	OutboxDir        string
	SnapshotDir      string
	SnapshotInterval time.Duration
}

type Kafka struct {
	Enabled   bool
	Brokers   []string
	FeedTopic string
	FeedGroup string
	OutTopic  string
	// DrainInterval paces the outbox broadcaster.
	DrainInterval time.Duration
}

type HTTP struct {
	Addr string
}

type Engine struct {
	// AmendIncreaseKeepsPriority keeps queue position on same-price
	// quantity increases instead of treating them as cancel+re-add.
	AmendIncreaseKeepsPriority bool
	// RenderEvery dumps the book after every N feed messages; 0 off.
	RenderEvery int
	// EpochInterval paces retired-order reclamation.
	EpochInterval time.Duration
}

type Config struct {
	Debug      bool
	Durability Durability
	Kafka      Kafka
	HTTP       HTTP
	Engine     Engine
}

func Default() Config {
	return Config{
		Durability: Durability{
			WALDir:           "data/wal",
			WALSegmentSize:   2 << 20,
			OutboxDir:        "data/outbox",
			SnapshotDir:      "data/snapshots",
			SnapshotInterval: 30 * time.Second,
		},
		Kafka: Kafka{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			FeedTopic:     "orders.feed",
			FeedGroup:     "mimir-engine",
			OutTopic:      "orders.events",
			DrainInterval: 100 * time.Millisecond,
		},
		HTTP: HTTP{Addr: ":8080"},
		Engine: Engine{
			RenderEvery:   10,
			EpochInterval: time.Second,
		},
	}
}

// LoadFromEnv reads the optional .env file and environment overrides.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Debug = getBool("DEBUG", cfg.Debug)

	cfg.Durability.WALDir = getEnv("WAL_DIR", cfg.Durability.WALDir)
	cfg.Durability.WALSegmentSize = getInt64("WAL_SEGMENT_SIZE", cfg.Durability.WALSegmentSize)
	cfg.Durability.OutboxDir = getEnv("OUTBOX_DIR", cfg.Durability.OutboxDir)
	cfg.Durability.SnapshotDir = getEnv("SNAPSHOT_DIR", cfg.Durability.SnapshotDir)
	cfg.Durability.SnapshotInterval = getMillis("SNAPSHOT_INTERVAL_MS", cfg.Durability.SnapshotInterval)

	cfg.Kafka.Enabled = getBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	cfg.Kafka.FeedTopic = getEnv("KAFKA_FEED_TOPIC", cfg.Kafka.FeedTopic)
	cfg.Kafka.FeedGroup = getEnv("KAFKA_FEED_GROUP", cfg.Kafka.FeedGroup)
	cfg.Kafka.OutTopic = getEnv("KAFKA_OUT_TOPIC", cfg.Kafka.OutTopic)
	cfg.Kafka.DrainInterval = getMillis("KAFKA_DRAIN_INTERVAL_MS", cfg.Kafka.DrainInterval)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Engine.AmendIncreaseKeepsPriority = getBool("AMEND_INCREASE_KEEPS_PRIORITY", cfg.Engine.AmendIncreaseKeepsPriority)
	cfg.Engine.RenderEvery = int(getInt64("RENDER_EVERY", int64(cfg.Engine.RenderEvery)))
	cfg.Engine.EpochInterval = getMillis("EPOCH_INTERVAL_MS", cfg.Engine.EpochInterval)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}
